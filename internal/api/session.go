package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// CreateSession creates a new session and returns its server-assigned ID.
// Not retried; the caller decides what to do on failure.
func (c *Client) CreateSession(ctx context.Context) (string, error) {
	var id string
	if err := c.do(ctx, http.MethodPost, "/sessions", nil, "", &id); err != nil {
		return "", err
	}
	c.logger.Info("session created", zap.String("session_id", id))
	return id, nil
}

// GetSession fetches the full session snapshot. Returns ErrNotFound when the
// session no longer exists so callers can navigate away instead of retrying.
func (c *Client) GetSession(ctx context.Context, id string) (*Session, error) {
	var sess Session
	if err := c.do(ctx, http.MethodGet, "/sessions/"+id, nil, "", &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// DeleteSession destroys the session server-side. Connected clients learn of
// it through a session.deleted event.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+id, nil, "", nil)
}

// DeleteMessage removes a single message from the session.
func (c *Client) DeleteMessage(ctx context.Context, sessionID, messageID string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+sessionID+"/"+messageID, nil, "", nil)
}

// Draft is a message about to be sent. A draft must carry a body, a file, or
// both. The file, if any, is uploaded before the message is published.
type Draft struct {
	Body      string
	Sensitive bool
	File      *FileUpload
}

// SendMessage validates the draft, uploads its attachment if present, then
// publishes the message to the session. Upload and publish are two distinct
// requests: when publish fails after a successful upload the attachment is
// orphaned server-side and the whole operation surfaces as one error.
func (c *Client) SendMessage(ctx context.Context, sessionID string, d Draft) error {
	if d.Body == "" && d.File == nil {
		return &ValidationError{Reason: "message needs a body or an attachment"}
	}

	msg := NewMessage()
	msg.Body = d.Body
	msg.Sensitive = d.Sensitive

	if d.File != nil {
		att, err := c.UploadAttachment(ctx, *d.File)
		if err != nil {
			return fmt.Errorf("upload attachment: %w", err)
		}
		msg.AttachmentID = att.ID
		msg.AttachmentType = att.Type
		msg.AttachmentName = att.Name
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := c.do(ctx, http.MethodPut, "/sessions/"+sessionID, bytes.NewReader(payload), "application/json", nil); err != nil {
		return err
	}

	c.logger.Info("message sent",
		zap.String("session_id", sessionID),
		zap.Bool("sensitive", msg.Sensitive),
		zap.Bool("attachment", msg.HasAttachment()))
	return nil
}
