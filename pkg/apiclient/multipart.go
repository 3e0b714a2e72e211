package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
)

// Upload is one file part of a multipart request.
type Upload struct {
	Field    string
	Filename string
	Reader   io.Reader
}

// CallMultipart sends form fields and file uploads as
// multipart/form-data. The body is buffered once so the 401
// refresh-and-resend path can replay it without re-reading the
// upload sources.
func (c *Client) CallMultipart(ctx context.Context, method, path string, fields map[string]string, files []Upload, out any, opts ...CallOption) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("apiclient: write form field %q: %w", k, err)
		}
	}
	for _, f := range files {
		if f.Reader == nil {
			continue
		}
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return fmt.Errorf("apiclient: create form file %q: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.Reader); err != nil {
			return fmt.Errorf("apiclient: copy upload %q: %w", f.Filename, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("apiclient: finalize multipart body: %w", err)
	}

	return c.call(ctx, method, path, buf.Bytes(), w.FormDataContentType(), out, opts...)
}
