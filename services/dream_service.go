package services

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fachrudin/misteri-backend/models"
	"github.com/fachrudin/misteri-backend/shared"
	"github.com/sirupsen/logrus"
)

// DreamSearchLimit bounds every dream lookup, including the trending listing.
const DreamSearchLimit = 10

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a slug from a dream title: lowercase, non-alphanumeric runs
// collapsed to a single hyphen, no leading or trailing hyphen. Titles with no
// alphanumeric characters get a timestamp fallback, never an empty slug.
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = nonAlphanumeric.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	if slug == "" {
		return fmt.Sprintf("mimpi-%d", time.Now().UnixNano())
	}
	return slug
}

// DreamStore persists dream rows. The slug carries the uniqueness constraint;
// upserting an existing slug increments view_count instead of duplicating.
type DreamStore interface {
	Search(ctx context.Context, q string, limit int) ([]models.Dream, error)
	IncrementViewCount(ctx context.Context, slug string) error
	Upsert(ctx context.Context, dream *models.Dream) error
}

// PostgresDreamStore is the Postgres-backed DreamStore.
type PostgresDreamStore struct {
	DB *sql.DB
}

func NewPostgresDreamStore(db *sql.DB) *PostgresDreamStore {
	return &PostgresDreamStore{DB: db}
}

// Search returns dreams whose title contains q, case-insensitive, most viewed
// first. An empty q returns the top rows by view count (the trending listing).
func (s *PostgresDreamStore) Search(ctx context.Context, q string, limit int) ([]models.Dream, error) {
	if limit <= 0 {
		limit = DreamSearchLimit
	}

	query := `
		SELECT id, slug, judul, kategori, ringkasan, tafsir_positif, tafsir_negatif, angka, view_count, created_at
		FROM mimpi
		ORDER BY view_count DESC
		LIMIT $1
	`
	args := []interface{}{limit}

	if q != "" {
		query = `
			SELECT id, slug, judul, kategori, ringkasan, tafsir_positif, tafsir_negatif, angka, view_count, created_at
			FROM mimpi
			WHERE judul ILIKE '%' || $1 || '%'
			ORDER BY view_count DESC
			LIMIT $2
		`
		args = []interface{}{q, limit}
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dreams []models.Dream
	for rows.Next() {
		var d models.Dream
		if err := rows.Scan(&d.ID, &d.Slug, &d.Judul, &d.Kategori, &d.Ringkasan,
			&d.TafsirPositif, &d.TafsirNegatif, &d.Angka, &d.ViewCount, &d.CreatedAt); err != nil {
			return nil, err
		}
		dreams = append(dreams, d)
	}

	return dreams, rows.Err()
}

func (s *PostgresDreamStore) IncrementViewCount(ctx context.Context, slug string) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE mimpi SET view_count = view_count + 1 WHERE slug = $1`, slug)
	return err
}

// Upsert inserts a dream with view_count 1; a slug collision increments the
// existing row's view count instead of duplicating or overwriting content.
func (s *PostgresDreamStore) Upsert(ctx context.Context, dream *models.Dream) error {
	query := `
		INSERT INTO mimpi (slug, judul, kategori, ringkasan, tafsir_positif, tafsir_negatif, angka, view_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
		ON CONFLICT (slug) DO UPDATE SET view_count = mimpi.view_count + 1
	`
	_, err := s.DB.ExecContext(ctx, query,
		dream.Slug, dream.Judul, dream.Kategori, dream.Ringkasan,
		dream.TafsirPositif, dream.TafsirNegatif, dream.Angka)
	return err
}

// DreamService is the dream specialization of the resolver: the cache lookup
// is a fuzzy substring search instead of an exact natural-key match, and a
// hit bumps the matched row's view counter as a side effect of reading.
type DreamService struct {
	store        DreamStore
	generator    Generator
	metrics      *shared.ResolverMetrics
	writeTimeout time.Duration
	onWrite      func(WriteResult)
}

func NewDreamService(store DreamStore, generator Generator, metrics *shared.ResolverMetrics) *DreamService {
	return &DreamService{
		store:        store,
		generator:    generator,
		metrics:      metrics,
		writeTimeout: 10 * time.Second,
	}
}

// SetWriteHook registers an observer for fire-and-forget write results.
func (s *DreamService) SetWriteHook(fn func(WriteResult)) {
	s.onWrite = fn
}

// Search returns matching dreams, or an empty slice on any failure. Callers
// treat the empty array as the uniform not-found signal for this endpoint.
func (s *DreamService) Search(ctx context.Context, q string) []models.Dream {
	dreams, err := s.store.Search(ctx, q, DreamSearchLimit)
	if err != nil {
		s.metrics.RecordCacheReadFailure()
		shared.WrapError(err, shared.ErrorCategoryCacheRead, "DREAM_SEARCH_FAILED",
			"dream-service", "search", true).LogError()
		return []models.Dream{}
	}
	if dreams == nil {
		return []models.Dream{}
	}
	return dreams
}

// Trending returns the most viewed dreams.
func (s *DreamService) Trending(ctx context.Context) []models.Dream {
	return s.Search(ctx, "")
}

// Resolve looks a dream up by query; on a hit it returns the best match and
// bumps its view counter, on a miss it generates a fresh interpretation and
// persists it fire-and-forget.
func (s *DreamService) Resolve(ctx context.Context, query string) (*models.Dream, error) {
	dreams, err := s.store.Search(ctx, query, DreamSearchLimit)
	if err != nil {
		s.metrics.RecordCacheReadFailure()
		shared.WrapError(err, shared.ErrorCategoryCacheRead, "DREAM_SEARCH_FAILED",
			"dream-service", "resolve", true).LogError()
	}

	if len(dreams) > 0 {
		top := dreams[0]
		s.metrics.RecordCacheHit()
		s.bumpViewAsync(top.Slug)
		top.ViewCount++
		return &top, nil
	}

	s.metrics.RecordCacheMiss()

	payload, err := s.generator.Generate(ctx, DreamDefinition.Prompt(models.NaturalKey{query}), DreamDefinition.Schema)
	if err != nil {
		s.metrics.RecordGeneration(false)
		logrus.WithFields(logrus.Fields{"query": query, "error": err}).Warn("Dream generation failed")
		return nil, shared.ErrNoReading
	}

	if err := DreamDefinition.Schema.Validate(payload); err != nil {
		s.metrics.RecordGeneration(false)
		logrus.WithFields(logrus.Fields{"query": query, "error": err}).Warn("Generated dream failed schema validation")
		return nil, shared.ErrNoReading
	}

	s.metrics.RecordGeneration(true)

	dream := dreamFromPayload(payload)
	s.upsertAsync(dream)

	return dream, nil
}

// Save upserts a caller-supplied dream, deriving the slug from its title.
func (s *DreamService) Save(ctx context.Context, dream *models.Dream) error {
	if strings.TrimSpace(dream.Judul) == "" {
		return fmt.Errorf("judul is required")
	}
	if dream.Slug == "" {
		dream.Slug = Slugify(dream.Judul)
	}
	if dream.ViewCount == 0 {
		dream.ViewCount = 1
	}
	return s.store.Upsert(ctx, dream)
}

func dreamFromPayload(p models.Payload) *models.Dream {
	str := func(field string) string {
		v, _ := p[field].(string)
		return v
	}

	judul := str("judul")
	return &models.Dream{
		Slug:          Slugify(judul),
		Judul:         judul,
		Kategori:      str("kategori"),
		Ringkasan:     str("ringkasan"),
		TafsirPositif: str("tafsir_positif"),
		TafsirNegatif: str("tafsir_negatif"),
		Angka:         str("angka"),
		ViewCount:     1,
		CreatedAt:     time.Now(),
	}
}

func (s *DreamService) bumpViewAsync(slug string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		defer cancel()

		err := s.store.IncrementViewCount(ctx, slug)
		s.metrics.RecordPersistenceWrite(err == nil)
		if err != nil {
			shared.WrapError(err, shared.ErrorCategoryPersistenceWrite, "VIEW_COUNT_FAILED",
				"dream-service", "increment_view", true).LogError()
		}

		if s.onWrite != nil {
			s.onWrite(WriteResult{Type: models.ReadingDream, Key: models.NaturalKey{slug}, Err: err})
		}
	}()
}

func (s *DreamService) upsertAsync(dream *models.Dream) {
	d := *dream
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		defer cancel()

		err := s.store.Upsert(ctx, &d)
		s.metrics.RecordPersistenceWrite(err == nil)
		if err != nil {
			shared.WrapError(err, shared.ErrorCategoryPersistenceWrite, "DREAM_WRITE_FAILED",
				"dream-service", "upsert", true).LogError()
		}

		if s.onWrite != nil {
			s.onWrite(WriteResult{Type: models.ReadingDream, Key: models.NaturalKey{d.Slug}, Err: err})
		}
	}()
}
