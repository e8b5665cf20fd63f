// Package store provides pluggable persistence for an Agent's message
// history and for the session's persisted Transcript (§6.5).
//
// The package offers two main types:
//   - [MessageStore]: a specialized store for an Agent's []ai.Message history
//   - [Transcript]: ordered Turns of Blocks, with ephemeral Blocks
//     (injected notifications, IDE previews) skipped on Sync so Reload
//     reconstructs exactly what an Agent needs to resume
//
// Both support pluggable persistence through the [Adapter] interface,
// with a default in-memory implementation provided via [MemoryAdapter].
//
// # Message History
//
//	history := store.NewMessageStore(nil)
//	history.Append(ai.Message{Role: ai.RoleUser, Content: "Hello"})
//	msgs := history.Messages()
//
// # Transcript
//
//	t := store.NewTranscript(nil)
//	turn := t.BeginTurn()
//	t.AppendMessage(turn, ai.Message{Role: ai.RoleUser, Content: "Hello"})
//	t.AppendEphemeral(turn, "user", "wait, also check src/lib.rs")
//
//	if err := t.Sync(ctx, "session-1"); err != nil {
//	    log.Fatal(err)
//	}
//	// ... later, in a fresh process:
//	if err := t.Reload(ctx, "session-1"); err != nil {
//	    log.Fatal(err)
//	}
//	history := t.ReplayHistory() // the ephemeral notification is gone
//
// # Custom Adapters
//
// Implement the Adapter interface for custom persistence:
//
//	type RedisAdapter struct { ... }
//
//	func (r *RedisAdapter) Get(ctx context.Context, key string) (json.RawMessage, bool, error) { ... }
//	func (r *RedisAdapter) Set(ctx context.Context, key string, value json.RawMessage) error { ... }
//	func (r *RedisAdapter) Delete(ctx context.Context, key string) error { ... }
//
//	s := store.NewMessageStore(&RedisAdapter{})
package store
