package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/fachrudin/misteri-backend/models"
)

// PostgresReadingStore persists reading payloads, one cache table per reading
// type, each with a uniqueness constraint on its natural-key columns.
type PostgresReadingStore struct {
	DB *sql.DB
}

func NewPostgresReadingStore(db *sql.DB) *PostgresReadingStore {
	return &PostgresReadingStore{DB: db}
}

// Get fetches the cached payload for a natural key. (nil, nil) means miss.
func (s *PostgresReadingStore) Get(ctx context.Context, def ReadingDefinition, key models.NaturalKey) (models.Payload, error) {
	if len(key) != len(def.KeyColumns) {
		return nil, fmt.Errorf("natural key for %s needs %d values, got %d", def.Type, len(def.KeyColumns), len(key))
	}

	var where []string
	args := make([]interface{}, len(key))
	for i, col := range def.KeyColumns {
		where = append(where, fmt.Sprintf("%s = $%d", col, i+1))
		args[i] = key[i]
	}

	query := fmt.Sprintf("SELECT content FROM %s WHERE %s LIMIT 1", def.Table, strings.Join(where, " AND "))

	var raw []byte
	err := s.DB.QueryRowContext(ctx, query, args...).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	var payload models.Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode cached content for %s: %w", def.Type, err)
	}

	return payload, nil
}

// Put upserts the payload under its natural key. Re-saves replace the stored
// content wholesale; last write wins, which is acceptable since payloads for
// a given key are near-identical across regenerations.
func (s *PostgresReadingStore) Put(ctx context.Context, def ReadingDefinition, key models.NaturalKey, payload models.Payload) error {
	if len(key) != len(def.KeyColumns) {
		return fmt.Errorf("natural key for %s needs %d values, got %d", def.Type, len(def.KeyColumns), len(key))
	}

	content, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode content for %s: %w", def.Type, err)
	}

	columns := append([]string{}, def.KeyColumns...)
	args := make([]interface{}, 0, len(key)+len(def.ExtraColumns)+1)
	for _, v := range key {
		args = append(args, v)
	}

	for _, col := range def.ExtraColumns {
		columns = append(columns, col)
		args = append(args, extraColumnValue(payload[col]))
	}

	columns = append(columns, "content")
	args = append(args, content)

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	var updates []string
	for _, col := range append(def.ExtraColumns, "content") {
		updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		def.Table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(def.KeyColumns, ", "),
		strings.Join(updates, ", "),
	)

	_, err = s.DB.ExecContext(ctx, query, args...)
	return err
}

// extraColumnValue coerces JSON numbers (always float64 after unmarshal) to
// integers for the typed numeric columns (neptu, score, life_path_number).
func extraColumnValue(v interface{}) interface{} {
	if f, ok := v.(float64); ok {
		return int64(math.Round(f))
	}
	return v
}
