package docproc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// ListDocuments retrieves all document summaries in backend order.
func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	var result []Document
	if err := c.doRequest(ctx, request{method: http.MethodGet, path: "/documents"}, &result); err != nil {
		return nil, wrapError(err, "ListDocuments", MsgListFailed)
	}

	return result, nil
}

// GetDocument retrieves a single document with its pages and paragraphs.
func (c *Client) GetDocument(ctx context.Context, id int) (*DocumentDetail, error) {
	path := fmt.Sprintf("/documents/%d", id)

	var result DocumentDetail
	if err := c.doRequest(ctx, request{method: http.MethodGet, path: path}, &result); err != nil {
		return nil, wrapError(err, "GetDocument", MsgDetailsFailed)
	}

	return &result, nil
}

// DeleteDocument deletes a document. Any response body is ignored.
func (c *Client) DeleteDocument(ctx context.Context, id int) error {
	path := fmt.Sprintf("/documents/%d", id)

	if err := c.doRequest(ctx, request{method: http.MethodDelete, path: path}, nil); err != nil {
		return wrapError(err, "DeleteDocument", MsgDeleteFailed)
	}

	return nil
}

// UploadDocument sends the contents of r as the multipart field "file".
// Upload constraints are not checked here; see CheckUpload.
func (c *Client) UploadDocument(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, wrapError(fmt.Errorf("read upload: %w", err), "UploadDocument", MsgUploadFailed)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filepath.Base(filename))))
	header.Set("Content-Type", mimetype.Detect(data).String())

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, wrapError(fmt.Errorf("create form file: %w", err), "UploadDocument", MsgUploadFailed)
	}
	if _, err := part.Write(data); err != nil {
		return nil, wrapError(fmt.Errorf("write form file: %w", err), "UploadDocument", MsgUploadFailed)
	}
	if err := writer.Close(); err != nil {
		return nil, wrapError(fmt.Errorf("close multipart: %w", err), "UploadDocument", MsgUploadFailed)
	}

	req := request{
		method:      http.MethodPost,
		path:        "/upload",
		body:        &buf,
		contentType: writer.FormDataContentType(),
	}

	var result UploadResult
	if err := c.doRequest(ctx, req, &result); err != nil {
		return nil, wrapError(err, "UploadDocument", MsgUploadFailed)
	}

	return &result, nil
}

// UploadFile uploads the file at path.
func (c *Client) UploadFile(ctx context.Context, path string) (*UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapError(fmt.Errorf("open upload: %w", err), "UploadDocument", MsgUploadFailed)
	}
	defer f.Close()

	return c.UploadDocument(ctx, filepath.Base(path), f)
}
