package handler

import (
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// HelloWorldResponse keeps the capitalized key clients already depend on
type HelloWorldResponse struct {
	Hello string `json:"Hello"`
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: "0.1.0",
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status: "ready",
	})
}

// HelloWorld GET /hello-world - liveness probe
func (h *HealthHandler) HelloWorld(c *fiber.Ctx) error {
	return c.JSON(HelloWorldResponse{Hello: "World"})
}
