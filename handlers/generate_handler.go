package handlers

import (
	"github.com/fachrudin/misteri-backend/services"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// GenerateHandler proxies the generation provider server-side so credentials
// never reach the client. Error detail is logged here and reduced to a
// generic unavailable signal in the response.
type GenerateHandler struct {
	Service *services.GeminiService
}

func NewGenerateHandler(service *services.GeminiService) *GenerateHandler {
	return &GenerateHandler{Service: service}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
	Schema *struct {
		Fields   map[string]services.FieldType `json:"fields"`
		Required []string                      `json:"required"`
	} `json:"schema"`
}

func (h *GenerateHandler) Generate(c *fiber.Ctx) error {
	var req generateRequest
	if err := c.BodyParser(&req); err != nil || req.Prompt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid request payload",
		})
	}

	var schema *services.Schema
	if req.Schema != nil {
		schema = &services.Schema{Fields: req.Schema.Fields, Required: req.Schema.Required}
	}

	text, err := h.Service.GenerateRaw(c.Context(), req.Prompt, schema)
	if err != nil {
		logrus.WithField("error", err).Warn("Generation proxy call failed")
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"status":  "error",
			"message": "Generation unavailable",
		})
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"text":   text,
	})
}
