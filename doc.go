// Package codey provides the wire-level data model shared by Codey's
// agent runtime: messages, tool schemas, chat options, and the
// CategorizedError taxonomy providers and the retry layer consult.
//
// This package intentionally knows nothing about the agent state machine,
// the tool pipeline, or the event loop — see the [github.com/tcdent/codey/agent],
// [github.com/tcdent/codey/pipeline], [github.com/tcdent/codey/executor], and
// [github.com/tcdent/codey/loop] packages for those.
//
// # Core interface
//
// [ChatProvider] is the single collaborator interface the runtime depends
// on for LLM access; [github.com/tcdent/codey/internal/provider/anthropic]
// implements it against the Anthropic Messages API.
//
// # Basic usage
//
//	provider := anthropic.New(apiKey)
//
//	messages := []codey.Message{
//	    {Role: codey.RoleUser, Content: "read README.md"},
//	}
//
//	resp, err := provider.Chat(ctx, messages)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.Content)
//
// # Streaming
//
//	stream, err := provider.ChatStream(ctx, messages)
//	for event := range stream {
//	    if event.Err != nil {
//	        log.Fatal(event.Err)
//	    }
//	    fmt.Print(event.Delta)
//	}
//
// # Tool calling
//
//	tools := []codey.Tool{
//	    {Name: "read_file", Description: "Read a file", Parameters: schema},
//	}
//	resp, err := provider.Chat(ctx, messages, codey.WithTools(tools))
//	for _, call := range resp.ToolCalls {
//	    fmt.Printf("tool: %s args: %s\n", call.Name, call.Arguments)
//	}
package codey
