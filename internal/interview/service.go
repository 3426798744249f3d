// Package interview serves the video interview catalog: JSON documents
// plus video objects under the entrevistas/ prefix of the interviews
// bucket.
package interview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gacetapress/gaceta/internal/model"
)

// interviewsPrefix is the root of the interview tree inside the bucket.
const interviewsPrefix = "entrevistas/"

// KeyLister enumerates keys in the interviews bucket and resolves
// their public URLs.
type KeyLister interface {
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	ObjectURL(key string) string
}

// ObjectFetcher fetches one object body by URL.
type ObjectFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// ObjectPutter stores one object and returns its public URL.
type ObjectPutter interface {
	PutObject(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// UploadRequest carries one admin interview submission: bilingual
// metadata plus the video stream.
type UploadRequest struct {
	TituloES      string
	TituloEN      string
	DescripcionES string
	DescripcionEN string
	// Fecha in YYYY-MM-DD form; empty means today.
	Fecha string

	Video            io.Reader
	VideoSize        int64
	VideoContentType string
	VideoFilename    string
}

// Service lists and uploads interviews.
type Service struct {
	lister        KeyLister
	fetcher       ObjectFetcher
	putter        ObjectPutter
	logger        *slog.Logger
	uploadMaxSize int64
}

// NewService returns an interview Service. uploadMaxSize caps the
// accepted video size in bytes.
func NewService(lister KeyLister, fetcher ObjectFetcher, putter ObjectPutter, logger *slog.Logger, uploadMaxSize int64) *Service {
	return &Service{
		lister:        lister,
		fetcher:       fetcher,
		putter:        putter,
		logger:        logger,
		uploadMaxSize: uploadMaxSize,
	}
}

// List returns all published interviews, newest first by FechaISO.
// A document that cannot be fetched or decoded is dropped, never
// fatal: the catalog renders with whatever loads.
func (s *Service) List(ctx context.Context) ([]model.Interview, error) {
	keys, err := s.lister.ListKeys(ctx, interviewsPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list interviews: %w", err)
	}

	var interviews []model.Interview
	for _, key := range keys {
		if !strings.HasSuffix(key, ".json") {
			continue
		}

		raw, err := s.fetcher.FetchText(ctx, s.lister.ObjectURL(key))
		if err != nil {
			s.logger.Warn("interview document fetch failed, dropping",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			continue
		}

		var iv model.Interview
		if err := json.Unmarshal([]byte(raw), &iv); err != nil {
			s.logger.Warn("interview document is not valid JSON, dropping",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			continue
		}
		interviews = append(interviews, iv)
	}

	// Lexicographic order is chronological for ISO dates.
	sort.SliceStable(interviews, func(i, j int) bool {
		return interviews[i].FechaISO > interviews[j].FechaISO
	})

	return interviews, nil
}

// ValidateUpload checks the video's content type and size before any
// byte is stored.
func (s *Service) ValidateUpload(contentType string, size int64) error {
	if !strings.HasPrefix(contentType, "video/") {
		return model.NewInvalidUploadError(contentType)
	}
	if size > s.uploadMaxSize {
		return model.NewUploadTooLargeError(size, s.uploadMaxSize)
	}
	return nil
}

// Upload validates the request, stores the video, then stores the
// interview JSON document pointing at it. The document goes in last so
// a half-failed upload never leaves a catalog entry with a missing
// video.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (model.Interview, error) {
	if err := s.ValidateUpload(req.VideoContentType, req.VideoSize); err != nil {
		return model.Interview{}, err
	}

	fecha := req.Fecha
	if fecha == "" {
		fecha = time.Now().Format("2006-01-02")
	}

	id := uuid.NewString()

	ext := path.Ext(req.VideoFilename)
	if ext == "" {
		ext = ".mp4"
	}
	videoKey := interviewsPrefix + "videos/" + id + ext

	videoURL, err := s.putter.PutObject(ctx, videoKey, req.VideoContentType, req.Video)
	if err != nil {
		return model.Interview{}, fmt.Errorf("failed to store interview video: %w", err)
	}

	iv := model.Interview{
		ID:          id,
		Titulo:      model.BilingualText{ES: req.TituloES, EN: req.TituloEN},
		Descripcion: model.BilingualText{ES: req.DescripcionES, EN: req.DescripcionEN},
		Fecha:       fecha,
		FechaISO:    fecha,
		VideoURL:    videoURL,
	}

	doc, err := json.MarshalIndent(iv, "", "  ")
	if err != nil {
		return model.Interview{}, fmt.Errorf("failed to encode interview document: %w", err)
	}

	docKey := interviewsPrefix + id + ".json"
	if _, err := s.putter.PutObject(ctx, docKey, "application/json", bytes.NewReader(doc)); err != nil {
		return model.Interview{}, fmt.Errorf("failed to store interview document: %w", err)
	}

	s.logger.Info("interview published",
		slog.String("interview_id", id),
		slog.String("fecha", fecha),
		slog.Int64("video_bytes", req.VideoSize),
	)

	return iv, nil
}
