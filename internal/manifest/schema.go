package manifest

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/scriptler-dev/scriptler/internal/errors"
)

// entrySchema describes the required shape of a single script entry.
const entrySchema = `{
	"type": "object",
	"required": ["id", "name", "url", "checksum"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"name": {"type": "string", "minLength": 1},
		"category": {"type": "string"},
		"url": {"type": "string", "minLength": 1},
		"checksum": {"type": "string", "minLength": 1},
		"dependencies": {"type": "array", "items": {"type": "string"}},
		"version": {"type": "string"}
	}
}`

var (
	flatSchema = fmt.Sprintf(`{"type": "array", "items": %s}`, entrySchema)

	nestedSchema = fmt.Sprintf(`{
		"type": "object",
		"additionalProperties": {"type": "array", "items": %s}
	}`, entrySchema)
)

// validateDocument checks a decoded manifest document against the schema for
// its layout. Violations fail with ErrValidation, listing every offending field.
func validateDocument(doc any, format Format) error {
	schema := flatSchema
	if format == FormatNested {
		schema = nestedSchema
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("%w: schema validation failed: %w", errors.ErrParse, err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("%w: %s", errors.ErrValidation, strings.Join(problems, "; "))
	}

	return nil
}
