package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gacetapress/gaceta/internal/interview"
	"github.com/gacetapress/gaceta/internal/model"
)

type mockInterviewService struct {
	interviews []model.Interview
	uploaded   []interview.UploadRequest
}

func (m *mockInterviewService) List(ctx context.Context) ([]model.Interview, error) {
	return m.interviews, nil
}

func (m *mockInterviewService) Upload(ctx context.Context, req interview.UploadRequest) (model.Interview, error) {
	if req.VideoContentType != "" && req.VideoContentType[:6] != "video/" {
		return model.Interview{}, model.NewInvalidUploadError(req.VideoContentType)
	}
	m.uploaded = append(m.uploaded, req)
	return model.Interview{
		ID:       "generated-id",
		Titulo:   model.BilingualText{ES: req.TituloES, EN: req.TituloEN},
		FechaISO: req.Fecha,
		VideoURL: "https://bucket/entrevistas/videos/generated-id.mp4",
	}, nil
}

// multipartUpload builds a multipart body with one video part plus the
// metadata fields.
func multipartUpload(t *testing.T, contentType string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="video"; filename="entrevista.mp4"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("failed to create video part: %v", err)
	}
	part.Write([]byte("fake-video-bytes"))

	for name, value := range fields {
		mw.WriteField(name, value)
	}
	mw.Close()

	return &buf, mw.FormDataContentType()
}

func TestListInterviews_ReturnsCatalog(t *testing.T) {
	svc := &mockInterviewService{interviews: []model.Interview{
		{ID: "b", FechaISO: "2025-12-15"},
		{ID: "a", FechaISO: "2025-11-01"},
	}}
	h := NewInterviewHandler(svc, 1<<20)

	req := httptest.NewRequest(http.MethodGet, "/api/entrevistas", nil)
	w := httptest.NewRecorder()
	h.ListInterviews(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp map[string][]model.Interview
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp["entrevistas"]) != 2 {
		t.Errorf("len(entrevistas) = %d, want 2", len(resp["entrevistas"]))
	}
}

func TestUploadInterview_AcceptsVideoWithMetadata(t *testing.T) {
	svc := &mockInterviewService{}
	h := NewInterviewHandler(svc, 1<<20)

	body, contentType := multipartUpload(t, "video/mp4", map[string]string{
		"tituloES": "Entrevista al ministro",
		"tituloEN": "Interview with the minister",
		"fecha":    "2025-12-07",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/admin/entrevistas", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.UploadInterview(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	if len(svc.uploaded) != 1 {
		t.Fatalf("uploaded = %d requests, want 1", len(svc.uploaded))
	}
	if svc.uploaded[0].TituloES != "Entrevista al ministro" {
		t.Errorf("TituloES = %q, want the form value", svc.uploaded[0].TituloES)
	}
	if svc.uploaded[0].VideoContentType != "video/mp4" {
		t.Errorf("VideoContentType = %q, want video/mp4", svc.uploaded[0].VideoContentType)
	}
}

func TestUploadInterview_NonVideo_Returns400(t *testing.T) {
	h := NewInterviewHandler(&mockInterviewService{}, 1<<20)

	body, contentType := multipartUpload(t, "image/png", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/entrevistas", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.UploadInterview(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUploadInterview_MissingVideoField_Returns400(t *testing.T) {
	h := NewInterviewHandler(&mockInterviewService{}, 1<<20)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("tituloES", "sin vídeo")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/admin/entrevistas", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.UploadInterview(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUploadInterview_NotMultipart_Returns400(t *testing.T) {
	h := NewInterviewHandler(&mockInterviewService{}, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/entrevistas", bytes.NewReader([]byte("plain body")))
	w := httptest.NewRecorder()
	h.UploadInterview(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
