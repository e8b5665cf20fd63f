package tool

// Three preset tool registries are recognized by the core for different
// callers (§6.2): Full (every tool), ReadOnly (no write/shell mutations),
// and SubAgent (read-only, and further forbidden from spawning agents of
// its own — enforced by the caller simply never adding a spawn tool to
// it, since this package has no dependency on the agent registry).

// FullToolSet returns every built-in tool, including file writes and
// arbitrary HTTP requests, for the primary agent.
func FullToolSet(fileOpts []FileToolOption, httpOpts []HTTPToolOption, searchOpts []SearchToolOption) []ToolPair {
	pairs := FileTools(fileOpts...)
	pairs = append(pairs, WebTools(httpOpts...)...)
	pairs = append(pairs, SearchTools(searchOpts...)...)
	return pairs
}

// ReadOnlyToolSet returns the tools with no filesystem or network
// mutation capability: reading and listing files, and searching them.
// Arbitrary HTTP requests are excluded since the generic http_request
// tool permits non-GET methods with side effects.
func ReadOnlyToolSet(fileOpts []FileToolOption, searchOpts []SearchToolOption) []ToolPair {
	pairs := ReadOnlyFileTools(fileOpts...)
	pairs = append(pairs, SearchTools(searchOpts...)...)
	return pairs
}

// SubAgentToolSet is the tool set handed to spawned sub-agents: the same
// as ReadOnlyToolSet. Callers must additionally omit a spawn_agent tool
// from the registry built with this set to honor the "no further
// spawning" half of the preset (§9, Open Question decision 3).
func SubAgentToolSet(fileOpts []FileToolOption, searchOpts []SearchToolOption) []ToolPair {
	return ReadOnlyToolSet(fileOpts, searchOpts)
}
