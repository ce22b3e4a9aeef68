package handlers

import (
	"errors"

	"github.com/fachrudin/misteri-backend/models"
	"github.com/fachrudin/misteri-backend/services"
	"github.com/fachrudin/misteri-backend/shared"
	"github.com/gofiber/fiber/v2"
)

// ReadingHandler serves the resolve endpoints (cache-then-generate) and the
// raw cache endpoints (get/save without generation) for every reading type.
type ReadingHandler struct {
	Resolver *services.Resolver
	Store    services.ReadingStore
}

func NewReadingHandler(resolver *services.Resolver, store services.ReadingStore) *ReadingHandler {
	return &ReadingHandler{Resolver: resolver, Store: store}
}

// keyFromQuery maps a request's query parameters onto the natural-key tuple
// of a reading type. Date components default to today.
func keyFromQuery(c *fiber.Ctx, readingType models.ReadingType) (services.ReadingDefinition, models.NaturalKey, string) {
	def, ok := services.Definitions[readingType]
	if !ok {
		return services.ReadingDefinition{}, nil, "Unknown reading type"
	}

	switch readingType {
	case models.ReadingZodiac:
		nama := c.Query("nama")
		if nama == "" {
			return def, nil, "Nama zodiak kosong"
		}
		return def, models.NaturalKey{nama, c.Query("tanggal", services.Today())}, ""

	case models.ReadingNumerology, models.ReadingShio, models.ReadingPrimbon, models.ReadingSunda:
		dob := c.Query("dob")
		if dob == "" {
			return def, nil, "Tanggal lahir kosong"
		}
		return def, models.NaturalKey{dob}, ""

	case models.ReadingTarot:
		card := c.Query("card")
		if card == "" {
			return def, nil, "Nama kartu kosong"
		}
		return def, models.NaturalKey{c.Query("q"), card, c.Query("date", services.Today())}, ""

	case models.ReadingCompatibility:
		n1, d1 := c.Query("n1"), c.Query("d1")
		n2, d2 := c.Query("n2"), c.Query("d2")
		if n1 == "" || d1 == "" || n2 == "" || d2 == "" {
			return def, nil, "Parameter tidak lengkap"
		}
		return def, models.NaturalKey{n1, d1, n2, d2}, ""
	}

	return def, nil, "Unknown reading type"
}

// GetReading resolves a reading: cache first, generation only on a miss.
func (h *ReadingHandler) GetReading(c *fiber.Ctx) error {
	readingType := models.ReadingType(c.Params("type"))

	def, key, errMsg := keyFromQuery(c, readingType)
	if errMsg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": errMsg,
		})
	}

	payload, err := h.Resolver.Resolve(c.Context(), def, key)
	if err != nil {
		if errors.Is(err, shared.ErrNoReading) {
			// Neutral message only; provider detail never reaches users.
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":  "error",
				"message": "Ramalan belum tersedia, silakan coba lagi",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Terjadi kesalahan internal",
		})
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   payload,
	})
}

// GetCached fetches a cached reading without triggering generation.
func (h *ReadingHandler) GetCached(c *fiber.Ctx) error {
	readingType := models.ReadingType(c.Params("type"))

	def, key, errMsg := keyFromQuery(c, readingType)
	if errMsg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": errMsg,
		})
	}

	payload, err := h.Store.Get(c.Context(), def, key)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"status":  "error",
			"message": "Terjadi kesalahan internal",
		})
	}
	if payload == nil {
		return c.JSON(fiber.Map{"status": "not_found"})
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   payload,
	})
}

type saveReadingRequest map[string]any

// SaveCached upserts a reading payload directly. The body carries the
// natural-key fields alongside a content object.
func (h *ReadingHandler) SaveCached(c *fiber.Ctx) error {
	readingType := models.ReadingType(c.Params("type"))

	def, ok := services.Definitions[readingType]
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Unknown reading type",
		})
	}

	var body saveReadingRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Data tidak lengkap atau format salah",
		})
	}

	content, ok := body["content"].(map[string]any)
	if !ok || len(content) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Data tidak lengkap",
		})
	}

	key := make(models.NaturalKey, 0, len(def.KeyColumns))
	for _, col := range def.KeyColumns {
		v, _ := body[col].(string)
		if v == "" {
			if col == "tanggal" || col == "date" {
				v = services.Today()
			} else if col != "question" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"status":  "error",
					"message": "Data tidak lengkap",
				})
			}
		}
		key = append(key, v)
	}

	// Typed columns may arrive beside content instead of inside it.
	payload := models.Payload(content)
	for _, col := range def.ExtraColumns {
		if _, present := payload[col]; !present {
			if v, there := body[col]; there {
				payload[col] = v
			}
		}
	}

	if err := h.Store.Put(c.Context(), def, key, payload); err != nil {
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
