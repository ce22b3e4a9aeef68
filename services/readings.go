package services

import (
	"fmt"
	"time"

	"github.com/fachrudin/misteri-backend/models"
)

// ReadingDefinition parameterizes the generic resolver for one reading type:
// its natural-key shape, payload schema, prompt template, and storage mapping.
// All seven types share identical resolution control flow.
type ReadingDefinition struct {
	Type models.ReadingType

	// Table is the cache table; KeyColumns are the natural-key columns, in
	// tuple order, carrying a matching uniqueness constraint.
	Table      string
	KeyColumns []string

	// ExtraColumns are payload fields additionally stored as typed columns
	// (e.g. neptu, score). Column names match the payload field names.
	ExtraColumns []string

	Schema Schema
	Prompt func(key models.NaturalKey) string
}

// Today returns the calendar-date string used in date-scoped natural keys.
// A new calendar day naturally invalidates those caches; no TTL is involved.
func Today() string {
	return time.Now().Format("2006-01-02")
}

var ZodiacDefinition = ReadingDefinition{
	Type:       models.ReadingZodiac,
	Table:      "zodiak_cache",
	KeyColumns: []string{"nama", "tanggal"},
	Schema: Schema{
		Fields: map[string]FieldType{
			"umum": FieldString, "cinta": FieldString, "karir": FieldString,
			"keuangan": FieldString, "warna_hoki": FieldString, "angka_hoki": FieldString,
		},
		Required: []string{"umum", "cinta", "karir", "keuangan", "warna_hoki", "angka_hoki"},
	},
	Prompt: func(key models.NaturalKey) string {
		return fmt.Sprintf(`Berikan ramalan harian untuk zodiak %s pada tanggal %s.
Format JSON: { "umum": "...", "cinta": "...", "karir": "...", "keuangan": "...", "warna_hoki": "...", "angka_hoki": "..." }.
Bahasa: Indonesia. Singkat dan menarik. Nuansa: Mistis, Bijak, Berwibawa.`, key[0], key[1])
	},
}

var NumerologyDefinition = ReadingDefinition{
	Type:         models.ReadingNumerology,
	Table:        "numerology_cache",
	KeyColumns:   []string{"dob"},
	ExtraColumns: []string{"life_path_number"},
	Schema: Schema{
		Fields: map[string]FieldType{
			"life_path_number": FieldNumber, "kepribadian": FieldString,
			"karir": FieldString, "cinta": FieldString, "angka_hoki": FieldString,
		},
		Required: []string{"life_path_number", "kepribadian", "karir", "cinta"},
	},
	Prompt: func(key models.NaturalKey) string {
		return fmt.Sprintf(`Berikan pembacaan numerologi (Life Path) untuk tanggal lahir %s.
Format JSON: { "life_path_number": angka, "kepribadian": "...", "karir": "...", "cinta": "...", "angka_hoki": "..." }.
Bahasa: Indonesia. Nuansa: Mistis, Bijak, Berwibawa.`, key[0])
	},
}

var ShioDefinition = ReadingDefinition{
	Type:         models.ReadingShio,
	Table:        "chinese_zodiac_cache",
	KeyColumns:   []string{"dob"},
	ExtraColumns: []string{"shio"},
	Schema: Schema{
		Fields: map[string]FieldType{
			"shio": FieldString, "elemen": FieldString, "karakter": FieldString,
			"peruntungan": FieldString, "cocok_dengan": FieldString,
		},
		Required: []string{"shio", "elemen", "karakter", "peruntungan"},
	},
	Prompt: func(key models.NaturalKey) string {
		return fmt.Sprintf(`Berikan pembacaan shio (zodiak Tionghoa) untuk tanggal lahir %s.
Format JSON: { "shio": "...", "elemen": "...", "karakter": "...", "peruntungan": "...", "cocok_dengan": "..." }.
Bahasa: Indonesia. Nuansa: Mistis, Bijak, Berwibawa.`, key[0])
	},
}

var PrimbonDefinition = ReadingDefinition{
	Type:         models.ReadingPrimbon,
	Table:        "primbon_cache",
	KeyColumns:   []string{"dob"},
	ExtraColumns: []string{"weton", "neptu"},
	Schema: Schema{
		Fields: map[string]FieldType{
			"weton": FieldString, "neptu": FieldNumber, "watak": FieldString,
			"rejeki": FieldString, "jodoh": FieldString,
		},
		Required: []string{"weton", "neptu", "watak", "rejeki"},
	},
	Prompt: func(key models.NaturalKey) string {
		return fmt.Sprintf(`Berikan ramalan Primbon Jawa (weton) untuk tanggal lahir %s.
Format JSON: { "weton": "...", "neptu": angka, "watak": "...", "rejeki": "...", "jodoh": "..." }.
Bahasa: Indonesia. Nuansa: Mistis, Bijak, Berwibawa.`, key[0])
	},
}

var SundaDefinition = ReadingDefinition{
	Type:         models.ReadingSunda,
	Table:        "sunda_cache",
	KeyColumns:   []string{"dob"},
	ExtraColumns: []string{"wedal"},
	Schema: Schema{
		Fields: map[string]FieldType{
			"wedal": FieldString, "karakter": FieldString,
			"peruntungan": FieldString, "pantangan": FieldString,
		},
		Required: []string{"wedal", "karakter", "peruntungan"},
	},
	Prompt: func(key models.NaturalKey) string {
		return fmt.Sprintf(`Berikan ramalan kalender Sunda (wedal) untuk tanggal lahir %s.
Format JSON: { "wedal": "...", "karakter": "...", "peruntungan": "...", "pantangan": "..." }.
Bahasa: Indonesia. Nuansa: Mistis, Bijak, Berwibawa.`, key[0])
	},
}

var TarotDefinition = ReadingDefinition{
	Type:       models.ReadingTarot,
	Table:      "tarot_cache",
	KeyColumns: []string{"question", "card_name", "date"},
	Schema: Schema{
		Fields: map[string]FieldType{
			"makna": FieldString, "cinta": FieldString,
			"karir": FieldString, "nasihat": FieldString,
		},
		Required: []string{"makna", "cinta", "karir", "nasihat"},
	},
	Prompt: func(key models.NaturalKey) string {
		prompt := fmt.Sprintf(`Berikan tafsir kartu tarot "%s" untuk hari %s.`, key[1], key[2])
		if key[0] != "" {
			prompt += fmt.Sprintf(` Pertanyaan penanya: "%s".`, key[0])
		}
		return prompt + `
Format JSON: { "makna": "...", "cinta": "...", "karir": "...", "nasihat": "..." }.
Bahasa: Indonesia. Nuansa: Mistis, Bijak, Berwibawa.`
	},
}

var CompatibilityDefinition = ReadingDefinition{
	Type:         models.ReadingCompatibility,
	Table:        "compatibility_cache",
	KeyColumns:   []string{"name1", "dob1", "name2", "dob2"},
	ExtraColumns: []string{"score"},
	Schema: Schema{
		Fields: map[string]FieldType{
			"score": FieldNumber, "keserasian": FieldString,
			"tantangan": FieldString, "saran": FieldString,
		},
		Required: []string{"score", "keserasian", "tantangan", "saran"},
	},
	Prompt: func(key models.NaturalKey) string {
		return fmt.Sprintf(`Berikan ramalan kecocokan pasangan antara %s (lahir %s) dan %s (lahir %s).
Format JSON: { "score": angka 0-100, "keserasian": "...", "tantangan": "...", "saran": "..." }.
Bahasa: Indonesia. Nuansa: Mistis, Bijak, Berwibawa.`, key[0], key[1], key[2], key[3])
	},
}

// DreamDefinition drives generation for the dream resolver. Storage goes
// through the dream store (slug-keyed upsert), not the generic cache tables.
var DreamDefinition = ReadingDefinition{
	Type: models.ReadingDream,
	Schema: Schema{
		Fields: map[string]FieldType{
			"judul": FieldString, "ringkasan": FieldString, "tafsir_positif": FieldString,
			"tafsir_negatif": FieldString, "angka": FieldString, "kategori": FieldString,
		},
		Required: []string{"judul", "ringkasan", "tafsir_positif", "tafsir_negatif", "angka", "kategori"},
	},
	Prompt: func(key models.NaturalKey) string {
		return fmt.Sprintf(`Berikan tafsir mimpi untuk: "%s".
Format dalam JSON dengan struktur:
{ "judul": "string", "ringkasan": "string", "tafsir_positif": "string", "tafsir_negatif": "string", "angka": "string (3 angka unik)", "kategori": "string" }
Bahasa: Indonesia. Nuansa: Mistis, Bijak, Berwibawa.`, key[0])
	},
}

// Definitions maps reading type names to their definitions for the generic
// cache endpoints.
var Definitions = map[models.ReadingType]ReadingDefinition{
	models.ReadingZodiac:        ZodiacDefinition,
	models.ReadingNumerology:    NumerologyDefinition,
	models.ReadingShio:          ShioDefinition,
	models.ReadingPrimbon:       PrimbonDefinition,
	models.ReadingSunda:         SundaDefinition,
	models.ReadingTarot:         TarotDefinition,
	models.ReadingCompatibility: CompatibilityDefinition,
}
