package api

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestUploadAttachmentRejectsOversize(t *testing.T) {
	c := NewClient("http://unreachable.invalid", zap.NewNop())
	_, err := c.UploadAttachment(context.Background(), FileUpload{
		Name:   "huge.bin",
		Type:   AttachmentFile,
		Size:   MaxAttachmentSize + 1,
		Reader: strings.NewReader(""),
	})
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
}

func TestUploadAttachmentRejectsUnknownType(t *testing.T) {
	c := NewClient("http://unreachable.invalid", zap.NewNop())
	_, err := c.UploadAttachment(context.Background(), FileUpload{
		Name:   "clip.mov",
		Type:   "video",
		Size:   10,
		Reader: strings.NewReader("0123456789"),
	})
	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("error type = %T, want *ValidationError", err)
	}
}
