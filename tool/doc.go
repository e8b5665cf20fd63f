// Package tool provides the ToolHandler capability (§6.2): tools expose
// a name, description, JSON schema, and compose(params) → Pipeline, so
// the Tool Executor can drive every tool call — local or approval-gated
// — through the same pipeline.Pipeline machinery.
//
// # Basic usage
//
// Define tool arguments as a struct with tags, bind a typed handler,
// and register it:
//
//	type WeatherArgs struct {
//	    Location string `json:"location" jsonschema:"required,description=City name"`
//	    Unit     string `json:"unit" jsonschema:"description=Temperature unit,enum=celsius,enum=fahrenheit"`
//	}
//
//	t, h := tool.MustBind("get_weather", "Get current weather",
//	    func(ctx context.Context, args WeatherArgs) (string, error) {
//	        return fmt.Sprintf(`{"temp": 72, "location": %q}`, args.Location), nil
//	    })
//
//	registry := tool.NewRegistry()
//	registry.MustRegister(t, h)
//
// The Tool Executor never calls a Handler directly; it calls
// Registry.Compose(agentId, call) to get a Pipeline, then drives that with
// Advance. Tools registered via RegisterWithApproval (or a ToolPair with
// RequiresApproval set) compose with a leading AwaitApproval stage.
//
// # Supported struct tags
//
// Schemas come from SchemaFor, which reads only the json and jsonschema
// struct tags:
//
//	json:"name"                              - Property name
//	jsonschema:"required"                    - Mark field as required
//	jsonschema:"description=text"            - Description for the model
//	jsonschema:"enum=a,enum=b"               - Allowed values (one enum= each)
//	jsonschema:"minimum=0,maximum=100"       - Numeric bounds
//	jsonschema:"minLength=1,maxLength=100"   - String length bounds
//	jsonschema:"pattern=regex"               - String pattern
//	jsonschema:"default=value"               - Default value
//	jsonschema:"minItems=1,maxItems=10"      - Array length bounds
//
// Standalone desc, required, enum, min, max, minLength, maxLength,
// pattern, default, minItems and maxItems tags are not read and add
// nothing to the schema; a field is listed as required only when its
// jsonschema tag says so. The argument structs of the built-in tools
// use the standalone tags, so their schemas carry property names and
// types but no descriptions, enums or required lists.
//
// # Built-in tools
//
//   - read_file, list_directory: no approval gate
//   - write_file, edit_file: approval gate
//   - http_request: no approval gate (Full preset only)
//   - search_files: no approval gate
//
// # Presets
//
// FullToolSet, ReadOnlyToolSet, and SubAgentToolSet build the three
// ToolPair slices the core recognizes for the primary agent, read-only
// callers, and sub-agents respectively (§6.2).
package tool
