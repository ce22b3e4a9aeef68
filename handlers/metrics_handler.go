package handlers

import (
	"github.com/fachrudin/misteri-backend/shared"
	"github.com/gofiber/fiber/v2"
)

type MetricsHandler struct {
	Metrics *shared.ResolverMetrics
}

func NewMetricsHandler(metrics *shared.ResolverMetrics) *MetricsHandler {
	return &MetricsHandler{Metrics: metrics}
}

func (h *MetricsHandler) GetMetrics(c *fiber.Ctx) error {
	snapshot := h.Metrics.Snapshot()
	return c.JSON(fiber.Map{
		"status": "success",
		"data": fiber.Map{
			"resolver": snapshot,
			"hit_rate": h.Metrics.HitRate(),
		},
	})
}
