package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	"go.uber.org/zap"
)

// UploadKind selects the backend files endpoint.
type UploadKind string

const (
	UploadImage UploadKind = "image"
	UploadPDF   UploadKind = "pdf"
)

// urlField is the kind-specific response field consulted after "data".
func (k UploadKind) urlField() string {
	if k == UploadPDF {
		return "fileUrl"
	}
	return "imgUrl"
}

// File is an attachment ready to be sent as multipart form data.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UploadFile posts file under the multipart field "file" and resolves the stored URL.
func (c *Client) UploadFile(ctx context.Context, kind UploadKind, file File) (string, error) {
	endpoint := c.endpoint(c.cfg.FilesPath)
	if kind == UploadPDF {
		endpoint = c.endpoint(c.cfg.FilesPath, "pdf")
	}
	operation := "upload_" + string(kind)

	if file.Content == nil {
		return "", &Error{Operation: operation, Endpoint: endpoint, Err: fmt.Errorf("file %q has no content", file.Name)}
	}

	body, contentType, err := encodeMultipart(file)
	if err != nil {
		return "", &Error{Operation: operation, Endpoint: endpoint, Err: err}
	}

	c.logger.Debug("upstream request",
		zap.String("operation", operation),
		zap.String("endpoint", endpoint),
		zap.String("file", file.Name),
		zap.Int64("size", file.Size),
	)

	raw, _, err := c.do(ctx, call{
		operation:   operation,
		method:      http.MethodPost,
		endpoint:    endpoint,
		body:        body,
		contentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return ResolveUploadURL(kind, raw), nil
}

func encodeMultipart(file File) ([]byte, string, error) {
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%s`, strconv.Quote(file.Name)))
	ct := file.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	header.Set("Content-Type", ct)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create multipart part: %w", err)
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return nil, "", fmt.Errorf("write multipart file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

// ResolveUploadURL is the only place that knows how the files endpoints report the stored
// location. The backend is inconsistent, so the first truthy value wins in this order:
// "data", then "imgUrl" (images) or "fileUrl" (documents), then "url", then the raw body.
func ResolveUploadURL(kind UploadKind, raw []byte) string {
	trimmed := bytes.TrimSpace(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err == nil {
		for _, key := range []string{"data", kind.urlField(), "url"} {
			if value, ok := truthy(fields[key]); ok {
				return value
			}
		}
	}
	return rawText(trimmed)
}

// truthy mirrors the backend client's loose checks: missing, null, false, 0 and "" are skipped.
// Strings are returned unquoted, any other value as its JSON text.
func truthy(raw json.RawMessage) (string, bool) {
	value := bytes.TrimSpace(raw)
	if len(value) == 0 {
		return "", false
	}
	switch string(value) {
	case "null", "false", "0", `""`:
		return "", false
	}
	if value[0] == '"' {
		var s string
		if err := json.Unmarshal(value, &s); err != nil || s == "" {
			return "", false
		}
		return s, true
	}
	return string(value), true
}

func rawText(body []byte) string {
	if len(body) > 0 && body[0] == '"' {
		var s string
		if err := json.Unmarshal(body, &s); err == nil {
			return s
		}
	}
	return string(body)
}
