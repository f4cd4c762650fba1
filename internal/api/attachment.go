package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// MaxAttachmentSize is the largest attachment the server accepts. Enforced
// here before any bytes are sent.
const MaxAttachmentSize = 100 << 20 // 100 MiB

// FileUpload describes a file to be uploaded as an attachment.
type FileUpload struct {
	Name   string
	Mime   string
	Type   string // AttachmentImage or AttachmentFile
	Size   int64
	Reader io.Reader
}

// UploadAttachment uploads the file as multipart form data and returns the
// stored attachment, whose ID a message must reference to be published.
func (c *Client) UploadAttachment(ctx context.Context, f FileUpload) (*Attachment, error) {
	if f.Size > MaxAttachmentSize {
		return nil, &ValidationError{
			Reason: fmt.Sprintf("attachment %q exceeds the %d MiB limit", f.Name, MaxAttachmentSize>>20),
		}
	}
	if f.Type != AttachmentImage && f.Type != AttachmentFile {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown attachment type %q", f.Type)}
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		part, err := form.CreateFormFile("file", f.Name)
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(form.Close())
	}()

	path := "/attachments/upload?type=" + url.QueryEscape(f.Type)
	var att Attachment
	if err := c.do(ctx, http.MethodPost, path, pr, form.FormDataContentType(), &att); err != nil {
		return nil, err
	}
	return &att, nil
}
