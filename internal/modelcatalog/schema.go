package modelcatalog

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// catalogSchema is the declarative shape every catalog document must
// satisfy before it is decoded into the Go tagged-union types. Unknown
// extra fields are tolerated for forward compatibility; only required
// fields are enforced here.
const catalogSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "family", "name", "variants", "capabilities", "hardware", "cloud"],
    "properties": {
      "id": {"type": "string", "minLength": 1},
      "family": {"type": "string"},
      "name": {"type": "string"},
      "variants": {
        "type": "array",
        "minItems": 1,
        "items": {
          "type": "object",
          "required": ["id", "precision", "vramMinMb", "vramRecommendedMb"],
          "properties": {
            "id": {"type": "string"},
            "precision": {"type": "string"},
            "vramMinMb": {"type": "number"},
            "vramRecommendedMb": {"type": "number"}
          }
        }
      },
      "capabilities": {
        "type": "object",
        "required": ["primary", "scores"]
      },
      "hardware": {
        "type": "object",
        "required": ["totalSizeGb", "computeIntensity"]
      },
      "cloud": {
        "type": "object",
        "required": ["available"]
      }
    }
  }
}`

// validateAgainstSchema runs the raw catalog document through gojsonschema
// before any decoding happens, so a malformed document fails with a precise
// pointer to the offending entry rather than a generic unmarshal error.
func validateAgainstSchema(raw []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(catalogSchema)
	docLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		return &CatalogError{Reason: formatSchemaErrors(result.Errors())}
	}
	return nil
}

func formatSchemaErrors(errs []gojsonschema.ResultError) string {
	if len(errs) == 0 {
		return "unknown schema violation"
	}
	msg := ""
	for i, e := range errs {
		if i > 0 {
			msg += "; "
		}
		msg += e.String()
		if i >= 4 {
			msg += fmt.Sprintf("; (+%d more)", len(errs)-5)
			break
		}
	}
	return msg
}
