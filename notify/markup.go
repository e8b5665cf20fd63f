package notify

import "strings"

// SystemPromptDirective is appended once to the system prompt (§6.4) so
// the model knows `<notification>` tags inside a tool result are
// out-of-band events, not part of the tool's own output.
const SystemPromptDirective = `Tool results may contain one or more <notification source="...">...</notification> blocks appended after the tool's own output. These report events that happened out-of-band during your turn (a new user message, a background task finishing); they are not part of the tool's result and require no acknowledgment beyond acting on their content when relevant.`

// Inject appends every Notification's tagged markup to content, in
// order, separated by a blank line from content and from each other
// (§4.6, §6.4). With no notifications, content is returned unchanged.
func Inject(content string, notifications []Notification) string {
	if len(notifications) == 0 {
		return content
	}
	var b strings.Builder
	b.WriteString(content)
	for _, n := range notifications {
		b.WriteString("\n\n<notification source=\"")
		b.WriteString(n.SourceLabel)
		b.WriteString("\">\n")
		b.WriteString(n.Content)
		b.WriteString("\n</notification>")
	}
	return b.String()
}
