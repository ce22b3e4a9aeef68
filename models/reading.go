package models

// ReadingType identifies one cached reading category. Each type has its own
// natural key shape and payload schema but identical resolution control flow.
type ReadingType string

const (
	ReadingZodiac        ReadingType = "zodiac"
	ReadingNumerology    ReadingType = "numerology"
	ReadingShio          ReadingType = "shio"
	ReadingPrimbon       ReadingType = "primbon"
	ReadingSunda         ReadingType = "sunda"
	ReadingTarot         ReadingType = "tarot"
	ReadingCompatibility ReadingType = "compatibility"
	ReadingDream         ReadingType = "mimpi"
)

// Payload is a flat reading object. The resolver only ever checks required
// field presence; field semantics belong to the presentation layer.
type Payload map[string]any

// NaturalKey is the ordered tuple of strings that uniquely identifies a
// cacheable request for one reading type (e.g. (nama, tanggal) for zodiac).
type NaturalKey []string
