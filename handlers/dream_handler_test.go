package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/fachrudin/misteri-backend/models"
	"github.com/fachrudin/misteri-backend/services"
	"github.com/fachrudin/misteri-backend/shared"
	"github.com/gofiber/fiber/v2"
)

type stubDreamStore struct {
	mu     sync.Mutex
	dreams []models.Dream
}

func (s *stubDreamStore) Search(ctx context.Context, q string, limit int) ([]models.Dream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q == "" {
		return s.dreams, nil
	}
	var matched []models.Dream
	for _, d := range s.dreams {
		if strings.Contains(strings.ToLower(d.Judul), strings.ToLower(q)) {
			matched = append(matched, d)
		}
	}
	return matched, nil
}

func (s *stubDreamStore) IncrementViewCount(ctx context.Context, slug string) error {
	return nil
}

func (s *stubDreamStore) Upsert(ctx context.Context, dream *models.Dream) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dreams = append(s.dreams, *dream)
	return nil
}

func dreamPayload() models.Payload {
	return models.Payload{
		"judul":          "Mimpi Gigi Copot",
		"ringkasan":      "Kecemasan akan kehilangan",
		"tafsir_positif": "Awal yang baru",
		"tafsir_negatif": "Kabar kurang baik",
		"angka":          "04, 21, 67",
		"kategori":       "Tubuh",
	}
}

func setupDreamApp(store services.DreamStore, gen services.Generator) *fiber.App {
	svc := services.NewDreamService(store, gen, shared.NewResolverMetrics())
	handler := NewDreamHandler(svc)

	app := fiber.New()
	app.Get("/api/v1/search", handler.Search)
	app.Get("/api/v1/mimpi/trending", handler.Trending)
	app.Post("/api/v1/mimpi/resolve", handler.Resolve)
	app.Post("/api/v1/save-mimpi", handler.Save)
	return app
}

func TestDreamSearchReturnsBareArray(t *testing.T) {
	store := &stubDreamStore{dreams: []models.Dream{
		{Slug: "mimpi-ular", Judul: "Mimpi Ular", ViewCount: 3},
	}}
	app := setupDreamApp(store, &stubGenerator{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=ular", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var dreams []models.Dream
	if err := json.NewDecoder(resp.Body).Decode(&dreams); err != nil {
		t.Fatalf("response is not a bare array: %v", err)
	}
	if len(dreams) != 1 || dreams[0].Slug != "mimpi-ular" {
		t.Errorf("unexpected results: %+v", dreams)
	}
}

func TestDreamSearchNoMatchIsEmptyArray(t *testing.T) {
	app := setupDreamApp(&stubDreamStore{}, &stubGenerator{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search?q=naga", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	raw := new(bytes.Buffer)
	raw.ReadFrom(resp.Body)
	if strings.TrimSpace(raw.String()) != "[]" {
		t.Errorf("expected empty array body, got %q", raw.String())
	}
}

func TestDreamResolveEndpoint(t *testing.T) {
	app := setupDreamApp(&stubDreamStore{}, &stubGenerator{payload: dreamPayload()})

	body, _ := json.Marshal(map[string]string{"query": "gigi copot"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/mimpi/resolve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	envelope := decodeBody(t, resp)
	data, _ := envelope["data"].(map[string]any)
	if data["slug"] != "mimpi-gigi-copot" {
		t.Errorf("slug = %v, want mimpi-gigi-copot", data["slug"])
	}
}

func TestDreamResolveEmptyQuery(t *testing.T) {
	app := setupDreamApp(&stubDreamStore{}, &stubGenerator{})

	body, _ := json.Marshal(map[string]string{"query": ""})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/mimpi/resolve", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestDreamSaveEndpoint(t *testing.T) {
	store := &stubDreamStore{}
	app := setupDreamApp(store, &stubGenerator{})

	body, _ := json.Marshal(map[string]string{
		"judul":          "Mimpi Terbang Tinggi",
		"ringkasan":      "Kebebasan",
		"tafsir_positif": "Cita-cita tercapai",
		"tafsir_negatif": "Lari dari masalah",
		"angka":          "08, 19, 33",
		"kategori":       "Perjalanan",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/save-mimpi", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.dreams) != 1 || store.dreams[0].Slug != "mimpi-terbang-tinggi" {
		t.Errorf("dream not persisted with derived slug: %+v", store.dreams)
	}
}

func TestDreamSaveRequiresTitle(t *testing.T) {
	app := setupDreamApp(&stubDreamStore{}, &stubGenerator{})

	body, _ := json.Marshal(map[string]string{"ringkasan": "tanpa judul"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/save-mimpi", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
