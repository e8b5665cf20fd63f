package codey

// Provider identifies an AI provider.
type Provider string

// String returns the provider identifier.
func (p Provider) String() string { return string(p) }

// ProviderAnthropic is the only LLM collaborator the core wires up; Codey's
// OAuth and interleaved-thinking requirements are Claude-specific protocol
// features with no analogue on other hosted providers.
const ProviderAnthropic Provider = "anthropic"
