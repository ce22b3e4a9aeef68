package handlers

import (
	"errors"

	"github.com/fachrudin/misteri-backend/models"
	"github.com/fachrudin/misteri-backend/services"
	"github.com/fachrudin/misteri-backend/shared"
	"github.com/gofiber/fiber/v2"
)

type DreamHandler struct {
	Service *services.DreamService
}

func NewDreamHandler(service *services.DreamService) *DreamHandler {
	return &DreamHandler{Service: service}
}

// Search returns matching dreams as a bare array. No match and transport
// failure both yield an empty array, never an error object.
func (h *DreamHandler) Search(c *fiber.Ctx) error {
	q := c.Query("q")
	return c.JSON(h.Service.Search(c.Context(), q))
}

// Trending returns the most viewed dreams.
func (h *DreamHandler) Trending(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "success",
		"data":   h.Service.Trending(c.Context()),
	})
}

type resolveDreamRequest struct {
	Query string `json:"query"`
}

// Resolve runs the full dream pipeline: fuzzy cache search, then generation
// on a miss.
func (h *DreamHandler) Resolve(c *fiber.Ctx) error {
	var req resolveDreamRequest
	if err := c.BodyParser(&req); err != nil || req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Kata kunci mimpi kosong",
		})
	}

	dream, err := h.Service.Resolve(c.Context(), req.Query)
	if err != nil {
		if errors.Is(err, shared.ErrNoReading) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":  "error",
				"message": "Tafsir belum tersedia, silakan coba lagi",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Terjadi kesalahan internal",
		})
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   dream,
	})
}

type saveDreamRequest struct {
	Judul         string `json:"judul"`
	Kategori      string `json:"kategori"`
	Ringkasan     string `json:"ringkasan"`
	TafsirPositif string `json:"tafsir_positif"`
	TafsirNegatif string `json:"tafsir_negatif"`
	Angka         string `json:"angka"`
}

// Save upserts a dream by its derived slug; a collision increments the
// existing row's view count.
func (h *DreamHandler) Save(c *fiber.Ctx) error {
	var req saveDreamRequest
	if err := c.BodyParser(&req); err != nil || req.Judul == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Data tidak lengkap atau format salah",
		})
	}

	dream := &models.Dream{
		Judul:         req.Judul,
		Kategori:      req.Kategori,
		Ringkasan:     req.Ringkasan,
		TafsirPositif: req.TafsirPositif,
		TafsirNegatif: req.TafsirNegatif,
		Angka:         req.Angka,
	}

	if err := h.Service.Save(c.Context(), dream); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Data berhasil disinkronisasi",
	})
}
