package notify

// Kind tags the variant of a Notification (§4.6).
type Kind string

const (
	// KindUserMessage is a user message arriving while a turn is active.
	KindUserMessage Kind = "UserMessage"
	// KindBackgroundTaskCompleted announces a background tool call's
	// completion; the model still has to call get_background_task to
	// retrieve its output.
	KindBackgroundTaskCompleted Kind = "BackgroundTaskCompleted"
	// KindSlashCommand is a deferred, non-injectable notification: it
	// waits until the primary Agent is Idle rather than riding the next
	// tool result.
	KindSlashCommand Kind = "SlashCommand"
)

// Injectable reports whether a Notification of this Kind is drained at
// the next tool-result boundary (UserMessage, BackgroundTaskCompleted)
// or deferred until the primary Agent goes Idle (everything else,
// e.g. slash commands).
func (k Kind) Injectable() bool {
	switch k {
	case KindUserMessage, KindBackgroundTaskCompleted:
		return true
	default:
		return false
	}
}

// Notification is one external event awaiting delivery into the
// model's context (§4.6).
type Notification struct {
	Kind Kind
	// Content is the notification body.
	Content string
	// SourceLabel names the originator for the markup's source
	// attribute ("user", a background call's tool name, etc.).
	SourceLabel string
}

// Queue holds Notifications in arrival order until they're drained.
// Not safe for concurrent use — like the rest of the core, it is driven
// exclusively by the single-threaded Event Loop.
type Queue struct {
	pending []Notification
}

// Enqueue appends a Notification, preserving arrival order.
func (q *Queue) Enqueue(n Notification) {
	q.pending = append(q.pending, n)
}

// Len reports how many Notifications are currently queued, injectable
// or not.
func (q *Queue) Len() int { return len(q.pending) }

// DrainInjectable removes and returns every injectable Notification, in
// arrival order, leaving non-injectable ones queued (§4.6: "Non-
// injectable notifications ... remain queued until the primary Agent
// is Idle").
func (q *Queue) DrainInjectable() []Notification {
	return q.drain(func(k Kind) bool { return k.Injectable() })
}

// DrainDeferred removes and returns every non-injectable Notification,
// in arrival order. Call this once the primary Agent goes Idle.
func (q *Queue) DrainDeferred() []Notification {
	return q.drain(func(k Kind) bool { return !k.Injectable() })
}

func (q *Queue) drain(match func(Kind) bool) []Notification {
	if len(q.pending) == 0 {
		return nil
	}
	var drained, remaining []Notification
	for _, n := range q.pending {
		if match(n.Kind) {
			drained = append(drained, n)
		} else {
			remaining = append(remaining, n)
		}
	}
	q.pending = remaining
	return drained
}
