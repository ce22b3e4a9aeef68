package handlers

import (
	"github.com/fachrudin/misteri-backend/models"
	"github.com/fachrudin/misteri-backend/services"
	"github.com/gofiber/fiber/v2"
)

type CommentHandler struct {
	Service *services.CommentService
}

func NewCommentHandler(service *services.CommentService) *CommentHandler {
	return &CommentHandler{Service: service}
}

func (h *CommentHandler) GetComments(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)

	comments, err := h.Service.List(c.Context(), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Terjadi kesalahan internal",
		})
	}
	if comments == nil {
		comments = []models.Comment{}
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   comments,
	})
}

type saveCommentRequest struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (h *CommentHandler) SaveComment(c *fiber.Ctx) error {
	var req saveCommentRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Data tidak lengkap",
		})
	}

	comment, err := h.Service.Save(c.Context(), req.Name, req.Message)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Gagal menyimpan komentar",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status": "success",
		"data":   comment,
	})
}
