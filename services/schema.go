package services

import (
	"fmt"
	"strings"

	"github.com/fachrudin/misteri-backend/models"
)

// FieldType describes the expected JSON type of a payload field.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldNumber FieldType = "number"
)

// Schema declares the shape a generated payload must satisfy before it is
// accepted. Validation is presence-only: field semantics are opaque to the
// resolution pipeline.
type Schema struct {
	Fields   map[string]FieldType
	Required []string
}

// Validate checks that every required field is present and non-empty.
// Malformed output is total failure for the resolution attempt; there is no
// partial credit.
func (s Schema) Validate(p models.Payload) error {
	if len(p) == 0 {
		return fmt.Errorf("empty payload")
	}

	for _, name := range s.Required {
		v, ok := p[name]
		if !ok || v == nil {
			return fmt.Errorf("missing required field %q", name)
		}
		if str, isStr := v.(string); isStr && strings.TrimSpace(str) == "" {
			return fmt.Errorf("required field %q is empty", name)
		}
	}

	return nil
}
