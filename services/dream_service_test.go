package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fachrudin/misteri-backend/models"
	"github.com/fachrudin/misteri-backend/shared"
)

type mockDreamStore struct {
	mu             sync.Mutex
	dreams         []models.Dream
	searchErr      error
	upsertCalls    int
	incrementCalls int
	lastUpsert     *models.Dream
}

func (m *mockDreamStore) Search(ctx context.Context, q string, limit int) ([]models.Dream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if q == "" {
		return m.dreams, nil
	}
	var matched []models.Dream
	for _, d := range m.dreams {
		if strings.Contains(strings.ToLower(d.Judul), strings.ToLower(q)) {
			matched = append(matched, d)
		}
	}
	return matched, nil
}

func (m *mockDreamStore) IncrementViewCount(ctx context.Context, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.incrementCalls++
	for i := range m.dreams {
		if m.dreams[i].Slug == slug {
			m.dreams[i].ViewCount++
		}
	}
	return nil
}

func (m *mockDreamStore) Upsert(ctx context.Context, dream *models.Dream) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertCalls++
	m.lastUpsert = dream
	for i := range m.dreams {
		if m.dreams[i].Slug == dream.Slug {
			m.dreams[i].ViewCount++
			return nil
		}
	}
	m.dreams = append(m.dreams, *dream)
	return nil
}

func (m *mockDreamStore) snapshot() (int, int, *models.Dream) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertCalls, m.incrementCalls, m.lastUpsert
}

func validDreamPayload() models.Payload {
	return models.Payload{
		"judul":          "Mimpi Melihat Ular Besar",
		"ringkasan":      "Pertanda perubahan besar",
		"tafsir_positif": "Rejeki mendekat",
		"tafsir_negatif": "Waspadai pengkhianatan",
		"angka":          "12, 45, 78",
		"kategori":       "Hewan",
	}
}

func newTestDreamService(store DreamStore, gen Generator) (*DreamService, chan WriteResult) {
	s := NewDreamService(store, gen, shared.NewResolverMetrics())
	writes := make(chan WriteResult, 8)
	s.SetWriteHook(func(wr WriteResult) { writes <- wr })
	return s, writes
}

func TestDreamResolveHitBumpsViewAndSkipsGeneration(t *testing.T) {
	store := &mockDreamStore{dreams: []models.Dream{
		{Slug: "mimpi-ular", Judul: "Mimpi Ular", ViewCount: 5},
	}}
	gen := &mockGenerator{payload: validDreamPayload()}
	svc, writes := newTestDreamService(store, gen)

	dream, err := svc.Resolve(context.Background(), "ular")
	if err != nil {
		t.Fatalf("Resolve failed on a hit: %v", err)
	}
	if dream.Slug != "mimpi-ular" {
		t.Errorf("expected best match mimpi-ular, got %s", dream.Slug)
	}
	if dream.ViewCount != 6 {
		t.Errorf("returned view count = %d, want 6", dream.ViewCount)
	}
	if gen.callCount() != 0 {
		t.Errorf("generator called %d times on a hit, expected 0", gen.callCount())
	}

	awaitWrite(t, writes)
	upserts, increments, _ := store.snapshot()
	if increments != 1 {
		t.Errorf("IncrementViewCount called %d times, expected 1", increments)
	}
	if upserts != 0 {
		t.Errorf("Upsert called %d times on a hit, expected 0", upserts)
	}
}

func TestDreamResolveMissGeneratesAndUpserts(t *testing.T) {
	store := &mockDreamStore{}
	gen := &mockGenerator{payload: validDreamPayload()}
	svc, writes := newTestDreamService(store, gen)

	dream, err := svc.Resolve(context.Background(), "ular besar")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if dream.Slug != "mimpi-melihat-ular-besar" {
		t.Errorf("slug = %q, want mimpi-melihat-ular-besar", dream.Slug)
	}
	if dream.TafsirPositif != "Rejeki mendekat" {
		t.Errorf("unexpected tafsir_positif: %q", dream.TafsirPositif)
	}
	if dream.ViewCount != 1 {
		t.Errorf("fresh dream view count = %d, want 1", dream.ViewCount)
	}

	awaitWrite(t, writes)
	upserts, _, last := store.snapshot()
	if upserts != 1 {
		t.Errorf("Upsert called %d times, expected 1", upserts)
	}
	if last == nil || last.Slug != dream.Slug {
		t.Error("persisted dream does not match the returned one")
	}
}

func TestDreamResolveGenerationFailure(t *testing.T) {
	store := &mockDreamStore{}
	gen := &mockGenerator{err: errors.New("provider unreachable")}
	svc, _ := newTestDreamService(store, gen)

	_, err := svc.Resolve(context.Background(), "jatuh dari langit")
	if !errors.Is(err, shared.ErrNoReading) {
		t.Fatalf("expected ErrNoReading, got %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	upserts, _, _ := store.snapshot()
	if upserts != 0 {
		t.Errorf("Upsert called %d times after generation failure, expected 0", upserts)
	}
}

func TestDreamResolveIncompletePayloadRejected(t *testing.T) {
	store := &mockDreamStore{}
	payload := validDreamPayload()
	delete(payload, "tafsir_negatif")
	gen := &mockGenerator{payload: payload}
	svc, _ := newTestDreamService(store, gen)

	_, err := svc.Resolve(context.Background(), "gigi copot")
	if !errors.Is(err, shared.ErrNoReading) {
		t.Fatalf("expected ErrNoReading for incomplete payload, got %v", err)
	}
	upserts, _, _ := store.snapshot()
	if upserts != 0 {
		t.Errorf("incomplete dream must not be persisted, Upsert called %d times", upserts)
	}
}

func TestDreamSearchSwallowsErrors(t *testing.T) {
	store := &mockDreamStore{searchErr: errors.New("timeout")}
	svc, _ := newTestDreamService(store, &mockGenerator{})

	dreams := svc.Search(context.Background(), "ular")
	if dreams == nil {
		t.Fatal("Search must return an empty slice, not nil")
	}
	if len(dreams) != 0 {
		t.Errorf("expected no results, got %d", len(dreams))
	}
}

func TestDreamTrendingUsesEmptyQuery(t *testing.T) {
	store := &mockDreamStore{dreams: []models.Dream{
		{Slug: "mimpi-terbang", Judul: "Mimpi Terbang", ViewCount: 40},
		{Slug: "mimpi-ular", Judul: "Mimpi Ular", ViewCount: 12},
	}}
	svc, _ := newTestDreamService(store, &mockGenerator{})

	dreams := svc.Trending(context.Background())
	if len(dreams) != 2 {
		t.Fatalf("expected 2 trending dreams, got %d", len(dreams))
	}
	if dreams[0].Slug != "mimpi-terbang" {
		t.Errorf("expected most viewed first, got %s", dreams[0].Slug)
	}
}

func TestDreamSaveDerivesSlug(t *testing.T) {
	store := &mockDreamStore{}
	svc, _ := newTestDreamService(store, &mockGenerator{})

	dream := &models.Dream{Judul: "Mimpi Gigi Copot!"}
	if err := svc.Save(context.Background(), dream); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if dream.Slug != "mimpi-gigi-copot" {
		t.Errorf("derived slug = %q, want mimpi-gigi-copot", dream.Slug)
	}
	if dream.ViewCount != 1 {
		t.Errorf("default view count = %d, want 1", dream.ViewCount)
	}

	if err := svc.Save(context.Background(), &models.Dream{}); err == nil {
		t.Error("Save accepted a dream without a title")
	}
}
