package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// ObjectPutter stores one object and returns its public URL.
// The admin interview upload is the only writer in this service.
type ObjectPutter interface {
	PutObject(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// S3Putter writes objects through a bucket's HTTP endpoint. The bucket
// is expected to accept the PUT (presigned endpoint or write-enabled
// policy); authorization is the deployment's concern.
type S3Putter struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewS3Putter returns an S3Putter for the bucket at baseURL.
func NewS3Putter(baseURL string, client *http.Client, logger *slog.Logger) *S3Putter {
	if len(baseURL) > 0 && baseURL[len(baseURL)-1] != '/' {
		baseURL += "/"
	}
	return &S3Putter{
		baseURL: baseURL,
		client:  client,
		logger:  logger,
	}
}

// PutObject implements ObjectPutter.
func (p *S3Putter) PutObject(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	objURL := p.baseURL + key

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, objURL, body)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Error("object upload failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("object upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		p.logger.Error("object store rejected upload",
			slog.String("key", key),
			slog.Int("http_status", resp.StatusCode),
		)
		return "", fmt.Errorf("object store returned status %d", resp.StatusCode)
	}

	return objURL, nil
}
