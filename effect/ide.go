package effect

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	ai "github.com/tcdent/codey"
)

// encodePreviewPayload builds the opaque wire payload for an
// ide_show_preview effect. The bridge's exact wire shape is out of
// scope (§6.3: "opaque payloads the Event Loop routes to the IDE
// collaborator"), so this assembles JSON field-by-field with sjson
// rather than marshaling a dedicated wire struct.
func encodePreviewPayload(path string) string {
	payload, _ := sjson.Set("{}", "path", path)
	return payload
}

// encodeDiffPreviewPayload builds the opaque wire payload for an
// ide_show_diff_preview effect, folding in the edit pairs and any
// diagnostics the caller wants surfaced alongside the diff.
func encodeDiffPreviewPayload(path string, edits []ai.IdeEdit, diagnostics []ai.Diagnostic) string {
	payload, _ := sjson.Set("{}", "path", path)
	for i, e := range edits {
		payload, _ = sjson.Set(payload, fmt.Sprintf("edits.%d.old_text", i), e.OldText)
		payload, _ = sjson.Set(payload, fmt.Sprintf("edits.%d.new_text", i), e.NewText)
	}
	for i, d := range diagnostics {
		payload, _ = sjson.Set(payload, fmt.Sprintf("diagnostics.%d", i), d)
	}
	return payload
}

// SummarizeDiagnostics reads a raw diagnostics payload as reported back
// by the IDE bridge (e.g. after a reload or a diff preview) and returns
// a short count-by-severity string for the Notification Queue, without
// unmarshaling the payload into []ai.Diagnostic.
func SummarizeDiagnostics(raw []byte) string {
	counts := map[ai.DiagnosticSeverity]int{}
	for _, r := range gjson.GetBytes(raw, "diagnostics").Array() {
		sev := ai.DiagnosticSeverity(r.Get("severity").String())
		counts[sev]++
	}
	if len(counts) == 0 {
		return "no diagnostics"
	}
	return fmt.Sprintf(
		"%d error(s), %d warning(s), %d info, %d hint(s)",
		counts[ai.SeverityError], counts[ai.SeverityWarning], counts[ai.SeverityInfo], counts[ai.SeverityHint],
	)
}
