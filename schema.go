package codey

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaFor generates a JSON Schema for tool parameters from a struct
// type T, using its json and jsonschema struct tags (§6.2: every
// ToolHandler exposes a parameter schema derived this way).
func SchemaFor[T any]() (json.RawMessage, error) {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}

	schema := reflector.Reflect(new(T))

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("codey: marshal schema: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("codey: unmarshal schema: %w", err)
	}
	delete(raw, "$schema")
	delete(raw, "$id")

	out, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("codey: re-marshal schema: %w", err)
	}
	return out, nil
}

// MustSchemaFor is like SchemaFor but panics on error. Intended for
// package-init-time tool registration where a bad struct tag is a
// programmer error, not a runtime condition.
func MustSchemaFor[T any]() json.RawMessage {
	schema, err := SchemaFor[T]()
	if err != nil {
		panic(err)
	}
	return schema
}
