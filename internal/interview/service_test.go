package interview

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/gacetapress/gaceta/internal/model"
)

type mockKeyLister struct {
	keys []string
	err  error
}

func (m *mockKeyLister) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	return m.keys, m.err
}

func (m *mockKeyLister) ObjectURL(key string) string {
	return "https://bucket/" + key
}

type mockFetcher struct {
	docs map[string]string
}

func (m *mockFetcher) FetchText(ctx context.Context, url string) (string, error) {
	doc, ok := m.docs[url]
	if !ok {
		return "", errors.New("not found: " + url)
	}
	return doc, nil
}

type mockPutter struct {
	puts []string
	err  error
}

func (m *mockPutter) PutObject(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.puts = append(m.puts, key)
	return "https://bucket/" + key, nil
}

func interviewDoc(id, fechaISO string) string {
	return `{"id":"` + id + `","titulo":{"ES":"t","EN":"t"},"fechaISO":"` + fechaISO + `"}`
}

func TestList_SortsNewestFirst(t *testing.T) {
	lister := &mockKeyLister{keys: []string{
		"entrevistas/a.json",
		"entrevistas/b.json",
		"entrevistas/videos/a.mp4",
	}}
	fetcher := &mockFetcher{docs: map[string]string{
		"https://bucket/entrevistas/a.json": interviewDoc("a", "2025-11-01"),
		"https://bucket/entrevistas/b.json": interviewDoc("b", "2025-12-15"),
	}}
	svc := NewService(lister, fetcher, &mockPutter{}, slog.Default(), 100)

	interviews, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(interviews) != 2 {
		t.Fatalf("len(interviews) = %d, want 2", len(interviews))
	}
	if interviews[0].ID != "b" {
		t.Errorf("interviews[0].ID = %q, want the newest %q", interviews[0].ID, "b")
	}
}

func TestList_DropsBrokenDocuments(t *testing.T) {
	lister := &mockKeyLister{keys: []string{
		"entrevistas/ok.json",
		"entrevistas/missing.json",
		"entrevistas/corrupt.json",
	}}
	fetcher := &mockFetcher{docs: map[string]string{
		"https://bucket/entrevistas/ok.json":      interviewDoc("ok", "2025-12-01"),
		"https://bucket/entrevistas/corrupt.json": "{not json",
	}}
	svc := NewService(lister, fetcher, &mockPutter{}, slog.Default(), 100)

	interviews, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(interviews) != 1 || interviews[0].ID != "ok" {
		t.Errorf("interviews = %v, want only the decodable document", interviews)
	}
}

func TestList_ListingFailure_ReturnsError(t *testing.T) {
	lister := &mockKeyLister{err: errors.New("bucket unreachable")}
	svc := NewService(lister, &mockFetcher{}, &mockPutter{}, slog.Default(), 100)

	_, err := svc.List(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestValidateUpload(t *testing.T) {
	svc := NewService(&mockKeyLister{}, &mockFetcher{}, &mockPutter{}, slog.Default(), 1000)

	tests := []struct {
		name        string
		contentType string
		size        int64
		wantCode    string
	}{
		{"valid video", "video/mp4", 500, ""},
		{"valid at limit", "video/webm", 1000, ""},
		{"not a video", "image/png", 500, model.ErrCodeInvalidUpload},
		{"over the limit", "video/mp4", 1001, model.ErrCodeUploadTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ValidateUpload(tt.contentType, tt.size)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			apiErr, ok := err.(*model.APIError)
			if !ok {
				t.Fatalf("error type = %T, want *model.APIError", err)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", apiErr.Code, tt.wantCode)
			}
		})
	}
}

func TestUpload_StoresVideoThenDocument(t *testing.T) {
	putter := &mockPutter{}
	svc := NewService(&mockKeyLister{}, &mockFetcher{}, putter, slog.Default(), 1<<20)

	iv, err := svc.Upload(context.Background(), UploadRequest{
		TituloES:         "Entrevista al ministro",
		TituloEN:         "Interview with the minister",
		Fecha:            "2025-12-07",
		Video:            strings.NewReader("video-bytes"),
		VideoSize:        11,
		VideoContentType: "video/mp4",
		VideoFilename:    "entrevista.mp4",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if len(putter.puts) != 2 {
		t.Fatalf("puts = %v, want video then document", putter.puts)
	}
	if !strings.HasPrefix(putter.puts[0], "entrevistas/videos/") || !strings.HasSuffix(putter.puts[0], ".mp4") {
		t.Errorf("video key = %q, want entrevistas/videos/{id}.mp4", putter.puts[0])
	}
	if !strings.HasSuffix(putter.puts[1], ".json") {
		t.Errorf("document key = %q, want a .json key", putter.puts[1])
	}

	if iv.ID == "" {
		t.Error("ID is empty, want a generated identifier")
	}
	if iv.FechaISO != "2025-12-07" {
		t.Errorf("FechaISO = %q, want %q", iv.FechaISO, "2025-12-07")
	}
	if iv.VideoURL == "" {
		t.Error("VideoURL is empty, want the stored video URL")
	}
}

func TestUpload_InvalidVideo_StoresNothing(t *testing.T) {
	putter := &mockPutter{}
	svc := NewService(&mockKeyLister{}, &mockFetcher{}, putter, slog.Default(), 1000)

	_, err := svc.Upload(context.Background(), UploadRequest{
		Video:            strings.NewReader("x"),
		VideoSize:        1,
		VideoContentType: "text/plain",
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(putter.puts) != 0 {
		t.Errorf("puts = %v, want none after validation failure", putter.puts)
	}
}

func TestUpload_StorageFailure_ReturnsError(t *testing.T) {
	putter := &mockPutter{err: errors.New("bucket rejected write")}
	svc := NewService(&mockKeyLister{}, &mockFetcher{}, putter, slog.Default(), 1000)

	_, err := svc.Upload(context.Background(), UploadRequest{
		Video:            strings.NewReader("x"),
		VideoSize:        1,
		VideoContentType: "video/mp4",
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
