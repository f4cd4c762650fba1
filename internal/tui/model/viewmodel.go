package model

import (
	"context"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"

	"clipsync/internal/api"
	"clipsync/internal/engine"
	"clipsync/internal/status"
	"clipsync/internal/store"
	"clipsync/internal/transport"
)

// ViewModel mediates between the UI widgets and the client core. Widgets read
// snapshots and call actions; they never touch the store or the cascade
// directly.
type ViewModel struct {
	mu sync.RWMutex

	client  *api.Client
	store   *store.Store
	cascade *transport.Cascade
	machine *status.Machine
	engine  *engine.Engine
	logger  *zap.Logger

	Flash Flash

	sessionID string

	revealed map[string]bool
	ended    bool
}

// NewViewModel creates the view model for one session view.
func NewViewModel(c *api.Client, s *store.Store, casc *transport.Cascade, m *status.Machine, e *engine.Engine, logger *zap.Logger) *ViewModel {
	return &ViewModel{
		client:   c,
		store:    s,
		cascade:  casc,
		machine:  m,
		engine:   e,
		logger:   logger,
		revealed: make(map[string]bool),
	}
}

// Reload re-synchronizes with the session: snapshot fetch plus transport
// cascade. Used on startup, on session change and on explicit user reload.
func (vm *ViewModel) Reload(ctx context.Context, sessionID string) error {
	vm.mu.Lock()
	vm.sessionID = sessionID
	vm.revealed = make(map[string]bool)
	vm.ended = false
	vm.mu.Unlock()

	vm.engine.SetSession(sessionID)
	if err := vm.cascade.Reload(ctx, sessionID); err != nil {
		return err
	}
	vm.engine.RecordSnapshot(sessionID, vm.store.Messages())
	vm.logger.Info("session loaded",
		zap.String("session_id", sessionID),
		zap.String("channel", vm.cascade.Active()),
		zap.Int("messages", vm.store.Len()))
	return nil
}

// Session returns the current session ID.
func (vm *ViewModel) Session() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.sessionID
}

// SetSession records the session ID to join; Reload does the actual work.
func (vm *ViewModel) SetSession(id string) {
	vm.mu.Lock()
	vm.sessionID = id
	vm.mu.Unlock()
}

// Messages returns the current store view, newest first.
func (vm *ViewModel) Messages() []api.Message {
	return vm.store.Messages()
}

// Revision returns the store revision, used to skip redundant redraws.
func (vm *ViewModel) Revision() uint64 {
	return vm.store.Revision()
}

// Indicator describes the connection state for the status bar.
func (vm *ViewModel) Indicator() status.Indicator {
	return status.Describe(vm.machine.Current())
}

// ActiveChannel names the transport currently delivering events.
func (vm *ViewModel) ActiveChannel() string {
	return vm.cascade.Active()
}

// Send publishes a text message to the session.
func (vm *ViewModel) Send(ctx context.Context, text string, sensitive bool) error {
	err := vm.client.SendMessage(ctx, vm.Session(), api.Draft{Body: text, Sensitive: sensitive})
	if err != nil {
		return err
	}
	vm.Flash.Set("Message sent", 3*time.Second)
	return nil
}

// SendFile publishes a message carrying a file attachment read from a local
// path. Image mime types become image attachments, everything else a plain
// file.
func (vm *ViewModel) SendFile(ctx context.Context, path string, sensitive bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return err
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	attachType := api.AttachmentFile
	if strings.HasPrefix(mimeType, "image/") {
		attachType = api.AttachmentImage
	}
	draft := api.Draft{
		Sensitive: sensitive,
		File: &api.FileUpload{
			Name:   filepath.Base(path),
			Mime:   mimeType,
			Type:   attachType,
			Size:   info.Size(),
			Reader: f,
		},
	}
	if err := vm.client.SendMessage(ctx, vm.Session(), draft); err != nil {
		return err
	}
	vm.Flash.Set("Attachment sent", 3*time.Second)
	return nil
}

// DeleteMessage removes a message from the session. The store update arrives
// back through the event channel, not from this call.
func (vm *ViewModel) DeleteMessage(ctx context.Context, messageID string) error {
	return vm.client.DeleteMessage(ctx, vm.Session(), messageID)
}

// DeleteSession destroys the whole session server-side.
func (vm *ViewModel) DeleteSession(ctx context.Context) error {
	return vm.client.DeleteSession(ctx, vm.Session())
}

// CopyMessage puts the message body on the system clipboard.
func (vm *ViewModel) CopyMessage(m api.Message) error {
	if err := clipboard.WriteAll(m.Body); err != nil {
		return err
	}
	vm.Flash.Set("Copied to clipboard", 3*time.Second)
	return nil
}

// ToggleReveal flips the redaction of one sensitive message.
func (vm *ViewModel) ToggleReveal(messageID string) {
	vm.mu.Lock()
	vm.revealed[messageID] = !vm.revealed[messageID]
	vm.mu.Unlock()
}

// Revealed reports whether a sensitive message is currently shown in clear.
func (vm *ViewModel) Revealed(messageID string) bool {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.revealed[messageID]
}

// End marks the session as gone (deleted server-side) and stops the cascade
// so nothing keeps retrying against a dead session.
func (vm *ViewModel) End() {
	vm.mu.Lock()
	vm.ended = true
	vm.mu.Unlock()
	vm.cascade.Stop()
}

// Ended reports whether the session has been destroyed.
func (vm *ViewModel) Ended() bool {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.ended
}
