package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
)

func respond(t *testing.T, w http.ResponseWriter, status int, env envelope) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func TestClientCarriesNoBlanketTimeout(t *testing.T) {
	// Deadlines belong to the caller's ctx. A fixed http.Client timeout would
	// cut off large attachment uploads that pass the size check.
	c := NewClient("http://localhost:8080", zap.NewNop())
	if c.http.Timeout != 0 {
		t.Errorf("http.Client timeout = %v, want none", c.http.Timeout)
	}
}

func TestClientHonorsContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL, zap.NewNop())
	if _, err := c.GetSession(ctx, "s1"); err == nil {
		t.Fatal("GetSession() succeeded with a cancelled context")
	}
}

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/sessions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}
		respond(t, w, http.StatusOK, envelope{Status: "success", Data: json.RawMessage(`"abc123"`)})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	id, err := c.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	if id != "abc123" {
		t.Errorf("id = %q, want abc123", id)
	}
}

func TestGetSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sessions/abc123" {
			t.Errorf("path = %s", r.URL.Path)
		}
		respond(t, w, http.StatusOK, envelope{
			Status: "success",
			Data: json.RawMessage(`{
				"id": "abc123",
				"messages": [{"id": "m1", "body": "hello", "created_at": 10}],
				"created_at": 5
			}`),
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	sess, err := c.GetSession(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if sess.ID != "abc123" || len(sess.Messages) != 1 || sess.Messages[0].Body != "hello" {
		t.Errorf("unexpected session: %+v", sess)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, http.StatusNotFound, envelope{Status: "error", Error: "session not found"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	_, err := c.GetSession(context.Background(), "gone")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestRequestErrorCarriesServerReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respond(t, w, http.StatusInternalServerError, envelope{Status: "error", Error: "database unavailable"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	err := c.DeleteSession(context.Background(), "abc123")
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error type = %T, want *RequestError", err)
	}
	if reqErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", reqErr.StatusCode)
	}
	if reqErr.Reason != "database unavailable" {
		t.Errorf("reason = %q", reqErr.Reason)
	}
}

func TestDeleteMessage(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.Method + " " + r.URL.Path
		respond(t, w, http.StatusOK, envelope{Status: "success"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	if err := c.DeleteMessage(context.Background(), "abc123", "m7"); err != nil {
		t.Fatalf("DeleteMessage() error = %v", err)
	}
	if path != "DELETE /sessions/abc123/m7" {
		t.Errorf("request = %q", path)
	}
}

func TestSendMessagePublishesBody(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/sessions/abc123" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		respond(t, w, http.StatusOK, envelope{Status: "success"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	err := c.SendMessage(context.Background(), "abc123", Draft{Body: "secret", Sensitive: true})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if got.Body != "secret" || !got.Sensitive {
		t.Errorf("published message = %+v", got)
	}
	if got.CreatedAt == 0 {
		t.Error("message missing created_at")
	}
}

func TestSendMessageRejectsEmptyDraftWithoutNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		respond(t, w, http.StatusOK, envelope{Status: "success"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	err := c.SendMessage(context.Background(), "abc123", Draft{})
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("server saw %d requests, want 0", n)
	}
}

func TestSendMessageUploadsFileFirst(t *testing.T) {
	var order []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/attachments/upload":
			order = append(order, "upload")
			if got := r.URL.Query().Get("type"); got != AttachmentFile {
				t.Errorf("upload type = %q, want %q", got, AttachmentFile)
			}
			f, hdr, err := r.FormFile("file")
			if err != nil {
				t.Fatalf("FormFile: %v", err)
			}
			defer func() { _ = f.Close() }()
			body, _ := io.ReadAll(f)
			if string(body) != "file contents" || hdr.Filename != "notes.txt" {
				t.Errorf("upload = %q as %q", body, hdr.Filename)
			}
			respond(t, w, http.StatusOK, envelope{
				Status: "success",
				Data:   json.RawMessage(`{"id": "a9", "type": "file", "name": "notes.txt"}`),
			})
		case r.Method == http.MethodPut:
			order = append(order, "publish")
			var msg Message
			if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
				t.Fatalf("decode message: %v", err)
			}
			if msg.AttachmentID != "a9" || msg.AttachmentName != "notes.txt" {
				t.Errorf("message does not reference the upload: %+v", msg)
			}
			respond(t, w, http.StatusOK, envelope{Status: "success"})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	err := c.SendMessage(context.Background(), "abc123", Draft{
		File: &FileUpload{
			Name:   "notes.txt",
			Mime:   "text/plain",
			Type:   AttachmentFile,
			Size:   13,
			Reader: strings.NewReader("file contents"),
		},
	})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if len(order) != 2 || order[0] != "upload" || order[1] != "publish" {
		t.Errorf("request order = %v, want [upload publish]", order)
	}
}

func TestSendMessageSurfacesPublishFailureAfterUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/attachments/upload" {
			respond(t, w, http.StatusOK, envelope{
				Status: "success",
				Data:   json.RawMessage(`{"id": "a1", "type": "image", "name": "pic.png"}`),
			})
			return
		}
		respond(t, w, http.StatusBadRequest, envelope{Status: "error", Error: "session is full"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	err := c.SendMessage(context.Background(), "abc123", Draft{
		File: &FileUpload{Name: "pic.png", Mime: "image/png", Type: AttachmentImage, Size: 4, Reader: strings.NewReader("data")},
	})
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("error = %v, want *RequestError from the publish step", err)
	}
	if reqErr.Reason != "session is full" {
		t.Errorf("reason = %q", reqErr.Reason)
	}
}
