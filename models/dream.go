package models

import "time"

// Dream is a dream interpretation row. Unlike the date-scoped reading types
// its lookup is a substring match over judul, and repeat lookups bump
// ViewCount, the only mutable counter in the model.
type Dream struct {
	ID            int64     `json:"id"`
	Slug          string    `json:"slug"`
	Judul         string    `json:"judul"`
	Kategori      string    `json:"kategori"`
	Ringkasan     string    `json:"ringkasan"`
	TafsirPositif string    `json:"tafsir_positif"`
	TafsirNegatif string    `json:"tafsir_negatif"`
	Angka         string    `json:"angka"`
	ViewCount     int       `json:"view_count"`
	CreatedAt     time.Time `json:"created_at"`
}
