// Package anthropic implements [github.com/tcdent/codey.ChatProvider]
// against the Anthropic Messages API. It is Codey's sole LLM
// collaborator: the agent runtime depends only on the ai.ChatProvider
// interface, never on this package's types directly.
//
// # Authentication
//
// [New] authenticates with a standard API key. [NewWithOAuth]
// authenticates with a Claude.ai OAuth bearer token instead: the
// x-api-key header is omitted entirely, the request carries
// authorization: Bearer <token>, and the oauth beta header is attached
// on every call, per the subscription-auth contract Codey's CLI
// exposes to interactive users.
//
// # Extended and interleaved thinking
//
// Setting [github.com/tcdent/codey.WithThinkingBudget] on a request
// enables Claude's extended-thinking mode. Interleaved thinking
// additionally requires the interleaved-thinking beta header, which is
// attached to a request when either
// [github.com/tcdent/codey.WithInterleavedThinking] is set on it or the
// client was built with [WithInterleavedThinking]; neither of those
// enables thinking on its own. Thinking
// content and its signature round-trip through
// [github.com/tcdent/codey.Response] and
// [github.com/tcdent/codey.StreamEvent] so the agent runtime can store
// them on the originating [github.com/tcdent/codey.Message] and resubmit
// the signature verbatim on the next turn — Claude rejects the
// conversation otherwise.
//
// # Basic usage
//
//	client := anthropic.New(os.Getenv("ANTHROPIC_API_KEY"))
//
//	messages := []ai.Message{
//	    {Role: ai.RoleUser, Content: "list the files in this repo"},
//	}
//
//	resp, err := client.Chat(ctx, messages)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.Content)
//
// # Streaming
//
//	stream, err := client.ChatStream(ctx, messages)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for event := range stream {
//	    if event.Err != nil {
//	        log.Fatal(event.Err)
//	    }
//	    fmt.Print(event.Delta)
//	}
package anthropic
