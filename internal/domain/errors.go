package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrNoImage = &AppError{
		Code:       "NO_IMAGE",
		Message:    "No image provided",
		StatusCode: 400,
	}

	ErrProcessing = &AppError{
		Code:       "PROCESSING_FAILED",
		Message:    "Frame processing failed",
		StatusCode: 500,
	}
)

// ProcessingFailure wraps err as a 500 whose message is the underlying error text.
func ProcessingFailure(err error) *AppError {
	if err == nil {
		return ErrProcessing
	}
	return &AppError{
		Code:       ErrProcessing.Code,
		Message:    err.Error(),
		StatusCode: ErrProcessing.StatusCode,
		Err:        err,
	}
}
