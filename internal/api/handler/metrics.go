package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/spotlight/internal/provider"
)

// StatsSource reports model session pools
type StatsSource interface {
	Stats() []provider.PoolStats
}

type MetricsHandler struct {
	source StatsSource
}

func NewMetricsHandler(source StatsSource) *MetricsHandler {
	return &MetricsHandler{source: source}
}

type MetricsResponse struct {
	Pools []provider.PoolStats `json:"pools"`
}

// Metrics GET /metrics - session pool snapshots
func (h *MetricsHandler) Metrics(c *fiber.Ctx) error {
	pools := h.source.Stats()
	if pools == nil {
		pools = []provider.PoolStats{}
	}
	return c.JSON(MetricsResponse{Pools: pools})
}
