package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Recover turns a panic into an error for the error handler
func Recover() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic recovered: %v", r)
			}
		}()
		return c.Next()
	}
}
