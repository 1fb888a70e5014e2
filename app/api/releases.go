package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"pressroom/app/models"
)

// Bulk upload kinds.
const (
	BulkReleases    = "releases"
	BulkJournalists = "journalists"
)

// MyReleases lists the caller's own releases.
func (c *Client) MyReleases(ctx context.Context) ([]models.Release, error) {
	var out struct {
		Releases []models.Release `json:"releases"`
	}
	err := c.do(ctx, get("/releases/mine", "/releases/mine"), &out)
	return out.Releases, err
}

// CreateRelease submits a release for review.
func (c *Client) CreateRelease(ctx context.Context, rel models.Release) (models.Release, error) {
	var out models.Release
	err := c.do(ctx, post("/releases", "/releases", rel), &out)
	return out, err
}

// BulkUpload sends a CSV file to /bulk/{kind} as the multipart field "file".
func (c *Client) BulkUpload(ctx context.Context, kind, filename string, csv []byte) (BulkResult, error) {
	if kind != BulkReleases && kind != BulkJournalists {
		return BulkResult{}, fmt.Errorf("api: unknown bulk kind %q", kind)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return BulkResult{}, fmt.Errorf("api: build upload: %w", err)
	}
	if _, err := fw.Write(csv); err != nil {
		return BulkResult{}, fmt.Errorf("api: build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return BulkResult{}, fmt.Errorf("api: build upload: %w", err)
	}

	var out BulkResult
	err = c.do(ctx, request{
		method:      http.MethodPost,
		route:       "/bulk/" + kind,
		path:        "/bulk/" + kind,
		raw:         buf.Bytes(),
		contentType: mw.FormDataContentType(),
	}, &out)
	return out, err
}
