// Package schema validates decoded TOML documents against embedded JSON
// Schemas before they are trusted by the engine.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/xeipuuv/gojsonschema"
)

// ValidateTOML decodes TOML data and validates the resulting document against
// the given JSON Schema. Returns nil when the document conforms.
func ValidateTOML(data []byte, schemaJSON string) error {
	var doc interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("not valid TOML: %w", err)
	}

	jsonBytes, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode for validation: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewBytesLoader(jsonBytes),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return fmt.Errorf("document does not match schema:\n%s", strings.Join(msgs, "\n"))
	}
	return nil
}
