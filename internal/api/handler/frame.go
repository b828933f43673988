package handler

import (
	"context"
	"image"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/spotlight/internal/domain"
	"github.com/saturnino-fabrica-de-software/spotlight/internal/service"
)

const defaultMode = "grayscale"

// FrameService interface for the frame processor
type FrameService interface {
	DetectFaces(ctx context.Context, img *image.NRGBA) ([]domain.Detection, error)
	GrayscaleBackgroundWithPerson(ctx context.Context, img *image.NRGBA) (*image.NRGBA, []domain.Detection, error)
}

// FrameHandler handles frame upload requests
type FrameHandler struct {
	service FrameService
	logger  *slog.Logger
}

// NewFrameHandler creates a new FrameHandler instance
func NewFrameHandler(service FrameService, logger *slog.Logger) *FrameHandler {
	return &FrameHandler{
		service: service,
		logger:  logger,
	}
}

// ProcessFrameResponse response for process-frame endpoint
type ProcessFrameResponse struct {
	Detections     []domain.Detection `json:"detections"`
	ProcessedImage string             `json:"processed_image"`
}

// DetectFaces POST /detect-faces - normalized face boxes for one frame
func (h *FrameHandler) DetectFaces(c *fiber.Ctx) error {
	img, err := extractImage(c)
	if err != nil {
		return err
	}

	detections, err := h.service.DetectFaces(c.UserContext(), img)
	if err != nil {
		return domain.ProcessingFailure(err)
	}
	if detections == nil {
		detections = []domain.Detection{}
	}

	return c.JSON(detections)
}

// ProcessFrame POST /process-frame - grayscale background, person and faces in color
func (h *FrameHandler) ProcessFrame(c *fiber.Ctx) error {
	img, err := extractImage(c)
	if err != nil {
		return err
	}

	// mode selects nothing yet; only grayscale compositing exists
	mode := c.FormValue("mode")
	if mode == "" {
		mode = c.Query("mode", defaultMode)
	}
	h.logger.Debug("processing frame",
		slog.String("mode", mode),
		slog.Int("width", img.Bounds().Dx()),
		slog.Int("height", img.Bounds().Dy()),
	)

	out, detections, err := h.service.GrayscaleBackgroundWithPerson(c.UserContext(), img)
	if err != nil {
		return domain.ProcessingFailure(err)
	}

	uri, err := service.JPEGDataURI(out)
	if err != nil {
		return domain.ProcessingFailure(err)
	}
	if detections == nil {
		detections = []domain.Detection{}
	}

	return c.JSON(ProcessFrameResponse{
		Detections:     detections,
		ProcessedImage: uri,
	})
}

// extractImage reads and decodes the multipart "image" field
func extractImage(c *fiber.Ctx) (*image.NRGBA, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, domain.ErrNoImage.WithError(err)
	}

	f, err := file.Open()
	if err != nil {
		return nil, domain.ProcessingFailure(err)
	}
	defer func() {
		_ = f.Close()
	}()

	img, err := service.DecodeRGB(f)
	if err != nil {
		return nil, domain.ProcessingFailure(err)
	}
	return img, nil
}
