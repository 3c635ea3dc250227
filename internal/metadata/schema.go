package metadata

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// descriptorSchema constrains the shape of the fields this tool interprets.
// Everything else is deliberately unconstrained pass-through.
const descriptorSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "repo": {"type": "string"},
    "repository": {"type": "string"},
    "type": {"type": "string"},
    "tier": {"type": "string"},
    "__file": {"type": "string"},
    "components": {
      "type": "array",
      "items": {
        "oneOf": [
          {"type": "string"},
          {"type": "object"}
        ]
      }
    }
  },
  "additionalProperties": true
}`

var compiledSchema = gojsonschema.NewStringLoader(descriptorSchema)

// CheckSchema validates raw descriptor bytes against the structural schema
// and returns one message per violation.
func CheckSchema(data []byte) ([]string, error) {
	result, err := gojsonschema.Validate(compiledSchema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	var violations []string
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return violations, nil
}
