package client

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
)

// Upload is one image sent for background removal.
type Upload struct {
	Filename string
	Data     []byte
}

// ProcessedImage is one image returned by the backend.
type ProcessedImage struct {
	Filename string `json:"filename"`
	URL      string `json:"processed_url"`
}

// BackgroundResult lists the processed images and an archive of all of them.
// URLs are relative to the backend; use ResolveURL to make them absolute.
type BackgroundResult struct {
	Message string           `json:"message"`
	Images  []ProcessedImage `json:"processed_images"`
	ZipURL  string           `json:"zip_url"`
}

// RemoveBackground uploads images as multipart form field "images[]".
func (c *Client) RemoveBackground(ctx context.Context, uploads []Upload) (*BackgroundResult, error) {
	if len(uploads) == 0 {
		return nil, fmt.Errorf("removing background: no images provided")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, u := range uploads {
		part, err := mw.CreateFormFile("images[]", u.Filename)
		if err != nil {
			return nil, fmt.Errorf("adding %s to upload: %w", u.Filename, err)
		}
		if _, err := part.Write(u.Data); err != nil {
			return nil, fmt.Errorf("adding %s to upload: %w", u.Filename, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finishing upload: %w", err)
	}

	var result BackgroundResult
	if err := c.send(ctx, http.MethodPost, "/remove-background", &buf, mw.FormDataContentType(), &result); err != nil {
		return nil, fmt.Errorf("removing background: %w", err)
	}
	return &result, nil
}

// ResolveURL turns a backend-relative path into an absolute URL.
func (c *Client) ResolveURL(path string) string {
	if path == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}
