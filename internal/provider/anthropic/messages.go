package anthropic

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	ai "github.com/tcdent/codey"
)

func convertMessages(messages []ai.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var result []anthropic.MessageParam
	var system []anthropic.TextBlockParam

	for _, msg := range messages {
		switch msg.Role {
		case ai.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case ai.RoleUser:
			if msg.HasParts() {
				blocks := convertPartsToAnthropicBlocks(msg.Parts)
				result = append(result, anthropic.MessageParam{
					Role:    anthropic.MessageParamRoleUser,
					Content: blocks,
				})
			} else {
				result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			}
		case ai.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			// A preserved thinking block must lead the assistant turn,
			// carrying its original signature verbatim, or the Anthropic
			// API rejects the follow-on tool_use blocks for an
			// interleaved-thinking conversation (§4.3, §6.1).
			if msg.ThinkingSignature != "" {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfThinking: &anthropic.ThinkingBlockParam{
						Thinking:  msg.Thinking,
						Signature: msg.ThinkingSignature,
					},
				})
			}
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				var input any
				json.Unmarshal([]byte(tc.Arguments), &input)
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
			if len(blocks) == 0 {
				blocks = append(blocks, anthropic.NewTextBlock(""))
			}
			result = append(result, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleAssistant,
				Content: blocks,
			})
		case ai.RoleTool:
			var blocks []anthropic.ContentBlockParamUnion
			for _, tr := range msg.ToolResults {
				blocks = append(blocks, anthropic.NewToolResultBlock(tr.ToolCallID, tr.Content, tr.IsError))
			}
			result = append(result, anthropic.MessageParam{
				Role:    anthropic.MessageParamRoleUser,
				Content: blocks,
			})
		default:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	return result, system
}

func convertPartsToAnthropicBlocks(parts []ai.ContentPart) []anthropic.ContentBlockParamUnion {
	var blocks []anthropic.ContentBlockParamUnion
	for _, part := range parts {
		switch part.Type {
		case ai.ContentPartTypeText:
			blocks = append(blocks, anthropic.NewTextBlock(part.Text))
		case ai.ContentPartTypeImage:
			if part.ImageURL != "" {
				blocks = append(blocks, anthropic.NewImageBlock(anthropic.URLImageSourceParam{
					URL: part.ImageURL,
				}))
			} else if part.Base64 != "" {
				mediaType := part.MimeType
				if mediaType == "" {
					mediaType = "image/jpeg"
				}
				blocks = append(blocks, anthropic.NewImageBlockBase64(mediaType, part.Base64))
			}
		}
	}
	return blocks
}
