package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"go.uber.org/zap"

	"clipsync/internal/api"
	"clipsync/internal/bus"
	"clipsync/internal/engine"
	"clipsync/internal/status"
	"clipsync/internal/store"
	"clipsync/internal/transport"
)

func newTestViewModel(c *api.Client) *ViewModel {
	b := bus.New()
	s := store.New(b)
	m := status.NewMachine(b)
	e := engine.New(s, nil, b, zap.NewNop())
	casc := transport.NewCascade(c, s, m, zap.NewNop(), nil)
	return NewViewModel(c, s, casc, m, e, zap.NewNop())
}

func TestSendFileUploadsThenPublishes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.png")
	if err := os.WriteFile(path, []byte("pixels"), 0o600); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.Method+" "+r.URL.Path)
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/attachments/upload":
			if got := r.URL.Query().Get("type"); got != api.AttachmentImage {
				t.Errorf("upload type = %q, want %q", got, api.AttachmentImage)
			}
			_, _ = w.Write([]byte(`{"status":"success","data":{"id":"a1","type":"image","name":"note.png"}}`))
		case "/sessions/s1":
			var msg api.Message
			if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
				t.Errorf("decode published message: %v", err)
			}
			if msg.AttachmentID != "a1" {
				t.Errorf("attachment_id = %q, want a1", msg.AttachmentID)
			}
			if msg.AttachmentName != "note.png" {
				t.Errorf("attachment_name = %q, want note.png", msg.AttachmentName)
			}
			_, _ = w.Write([]byte(`{"status":"success"}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	vm := newTestViewModel(api.NewClient(srv.URL, zap.NewNop()))
	vm.SetSession("s1")

	if err := vm.SendFile(context.Background(), path, false); err != nil {
		t.Fatalf("SendFile() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"POST /attachments/upload", "PUT /sessions/s1"}
	if len(calls) != 2 || calls[0] != want[0] || calls[1] != want[1] {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestSendFileMissingPath(t *testing.T) {
	vm := newTestViewModel(api.NewClient("http://unreachable.invalid", zap.NewNop()))
	vm.SetSession("s1")

	err := vm.SendFile(context.Background(), filepath.Join(t.TempDir(), "missing.txt"), false)
	if err == nil {
		t.Fatal("SendFile() succeeded for a missing path")
	}
}

func TestSessionAccessIsRaceFree(t *testing.T) {
	vm := newTestViewModel(api.NewClient("http://unreachable.invalid", zap.NewNop()))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				vm.SetSession("s1")
				_ = vm.Session()
			}
		}()
	}
	wg.Wait()

	if got := vm.Session(); got != "s1" {
		t.Errorf("Session() = %q, want s1", got)
	}
}
