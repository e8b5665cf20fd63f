package effect

// IdeBridge is the opaque channel effects are routed through (§6.3). Its
// wire transport is not this module's concern — payloads are pre-built
// strings (see ide.go) so a concrete bridge can forward them verbatim
// over whatever transport it uses (stdio, a socket, an editor plugin
// RPC).
type IdeBridge interface {
	// Open asks the IDE to open path in the editor.
	Open(path string) error
	// Reload asks the IDE to reload path's buffer from disk.
	Reload(path string) error
	// ShowPreview displays a read-only preview described by payload.
	ShowPreview(payload string) error
	// ShowDiffPreview displays a diff preview described by payload.
	ShowDiffPreview(payload string) error
	// ClosePreview dismisses whatever preview is currently on screen.
	ClosePreview() error
	// PreviewOpen reports whether a preview is still visible, i.e. the
	// IdePreview Resource is still held by an earlier effect. It becomes
	// false once the user closes it or ClosePreview runs.
	PreviewOpen() bool
}

// NullBridge is an IdeBridge that has no editor attached: previews never
// open (so PreviewOpen is always false and nothing ever queues behind
// the IdePreview Resource) and every operation is a silent no-op. Useful
// for headless runs and tests.
type NullBridge struct{}

func (NullBridge) Open(path string) error               { return nil }
func (NullBridge) Reload(path string) error             { return nil }
func (NullBridge) ShowPreview(payload string) error     { return nil }
func (NullBridge) ShowDiffPreview(payload string) error { return nil }
func (NullBridge) ClosePreview() error                  { return nil }
func (NullBridge) PreviewOpen() bool                    { return false }
