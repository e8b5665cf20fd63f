package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	ai "github.com/tcdent/codey"
)

// Block is one unit of a Turn's content. Most Blocks wrap the exact
// ai.Message an Agent's history holds; Ephemeral Blocks instead carry
// out-of-band content (an injected Notification, an IDE preview) that
// must never survive a Sync or a ReplayHistory (§6.5).
type Block struct {
	Message ai.Message
	// Ephemeral marks a Block that is dropped on Sync and skipped by
	// ReplayHistory: injected notification markup, preview content.
	Ephemeral bool
	// Label annotates an Ephemeral Block for display (e.g. a
	// Notification's source label).
	Label string
}

// Turn is one ordered group of Blocks — everything from a user message
// through every tool round trip up to the next user message or the
// Agent going Idle.
type Turn struct {
	Blocks []Block
}

// Transcript records a session as ordered Turns of Blocks, persisted
// independently of an Agent's in-memory history (§6.5). Sync writes only
// non-Ephemeral Blocks; Reload-then-ReplayHistory reconstructs the
// []ai.Message an Agent needs to resume a `--continue` session
// identically to how it looked before persistence — ephemeral content
// never reappears.
type Transcript struct {
	mu        sync.RWMutex
	sessionID string
	turns     []Turn
	adapter   Adapter
}

// NewTranscript constructs an empty Transcript with a fresh session
// identifier. If adapter is nil, a default in-memory adapter is used.
func NewTranscript(adapter Adapter) *Transcript {
	if adapter == nil {
		adapter = NewMemoryAdapter()
	}
	return &Transcript{
		sessionID: uuid.NewString(),
		adapter:   adapter,
	}
}

// SessionID identifies this Transcript's persisted session.
func (t *Transcript) SessionID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sessionID
}

// BeginTurn appends a new empty Turn and returns its index, to be passed
// to AppendMessage/AppendEphemeral as the Turn fills in.
func (t *Transcript) BeginTurn() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = append(t.turns, Turn{})
	return len(t.turns) - 1
}

// AppendMessage records msg as a durable Block of the Turn at index.
func (t *Transcript) AppendMessage(turn int, msg ai.Message) {
	t.appendBlock(turn, Block{Message: msg})
}

// AppendEphemeral records content as an Ephemeral Block of the Turn at
// index — a Notification or preview that must display now but never
// persist or replay (§6.5).
func (t *Transcript) AppendEphemeral(turn int, label, content string) {
	t.appendBlock(turn, Block{
		Message:   ai.Message{Content: content},
		Ephemeral: true,
		Label:     label,
	})
}

func (t *Transcript) appendBlock(turn int, b Block) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if turn < 0 || turn >= len(t.turns) {
		return
	}
	t.turns[turn].Blocks = append(t.turns[turn].Blocks, b)
}

// Turns returns a deep-enough copy of every recorded Turn, durable and
// ephemeral Blocks alike, for display.
func (t *Transcript) Turns() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Turn, len(t.turns))
	for i, turn := range t.turns {
		out[i] = Turn{Blocks: append([]Block(nil), turn.Blocks...)}
	}
	return out
}

// ReplayHistory reconstructs the []ai.Message an Agent's history must
// hold to resume this session identically, skipping every Ephemeral
// Block (§6.5).
func (t *Transcript) ReplayHistory() []ai.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []ai.Message
	for _, turn := range t.turns {
		for _, b := range turn.Blocks {
			if b.Ephemeral {
				continue
			}
			out = append(out, b.Message)
		}
	}
	return out
}

// persistedTurn is the wire shape Sync writes: only the ai.Messages of
// non-Ephemeral Blocks, in order. Ephemeral Blocks are simply absent —
// there is nothing to reload for them (§6.5).
type persistedTurn struct {
	Messages []ai.Message `json:"messages"`
}

// Sync persists every durable Block under key, dropping Ephemeral ones,
// mirroring MessageStore's Sync/Reload pattern.
func (t *Transcript) Sync(ctx context.Context, key string) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	persisted := make([]persistedTurn, len(t.turns))
	for i, turn := range t.turns {
		pt := persistedTurn{Messages: make([]ai.Message, 0, len(turn.Blocks))}
		for _, b := range turn.Blocks {
			if b.Ephemeral {
				continue
			}
			pt.Messages = append(pt.Messages, b.Message)
		}
		persisted[i] = pt
	}

	raw, err := json.Marshal(persisted)
	if err != nil {
		return &SerializationError{Key: key, Err: err}
	}
	return t.adapter.Set(ctx, key, raw)
}

// Reload replaces the in-memory Turns with whatever was last Synced
// under key. Every reloaded Block is durable — Ephemeral content was
// never written, so it cannot come back.
func (t *Transcript) Reload(ctx context.Context, key string) error {
	raw, ok, err := t.adapter.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return ErrKeyNotFound
	}

	var persisted []persistedTurn
	if err := json.Unmarshal(raw, &persisted); err != nil {
		return &SerializationError{Key: key, Err: err}
	}

	turns := make([]Turn, len(persisted))
	for i, pt := range persisted {
		blocks := make([]Block, len(pt.Messages))
		for j, m := range pt.Messages {
			blocks[j] = Block{Message: m}
		}
		turns[i] = Turn{Blocks: blocks}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.turns = turns
	return nil
}
