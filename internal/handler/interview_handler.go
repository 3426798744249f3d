package handler

import (
	"context"
	"net/http"

	"github.com/gacetapress/gaceta/internal/interview"
	"github.com/gacetapress/gaceta/internal/model"
)

// InterviewServiceInterface is the interview catalog surface the
// handler needs.
type InterviewServiceInterface interface {
	List(ctx context.Context) ([]model.Interview, error)
	Upload(ctx context.Context, req interview.UploadRequest) (model.Interview, error)
}

// InterviewHandler serves the interview catalog and the admin upload.
type InterviewHandler struct {
	service InterviewServiceInterface
	maxSize int64
}

// NewInterviewHandler creates an InterviewHandler. maxSize caps the
// multipart request body.
func NewInterviewHandler(service InterviewServiceInterface, maxSize int64) *InterviewHandler {
	return &InterviewHandler{
		service: service,
		maxSize: maxSize,
	}
}

// ListInterviews returns all published interviews, newest first.
// GET /api/entrevistas
func (h *InterviewHandler) ListInterviews(w http.ResponseWriter, r *http.Request) {
	interviews, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]model.Interview{
		"entrevistas": emptyIfNil(interviews),
	})
}

// multipartMemoryLimit is how much of the multipart body stays in
// memory before spilling to temp files. Videos always spill.
const multipartMemoryLimit = 32 << 20

// UploadInterview accepts one admin interview submission: a multipart
// form with a video file plus bilingual metadata fields.
// POST /api/admin/entrevistas
func (h *InterviewHandler) UploadInterview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxSize+multipartMemoryLimit)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "failed to parse multipart form",
			Category: "validation",
			Action:   "Send the upload as multipart/form-data with a video field.",
		})
		return
	}
	defer r.MultipartForm.RemoveAll()

	video, header, err := r.FormFile("video")
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeInvalidRequest,
			Message:  "missing video field",
			Category: "validation",
			Action:   "Attach the video file under the video form field.",
		})
		return
	}
	defer video.Close()

	iv, err := h.service.Upload(r.Context(), interview.UploadRequest{
		TituloES:         r.FormValue("tituloES"),
		TituloEN:         r.FormValue("tituloEN"),
		DescripcionES:    r.FormValue("descripcionES"),
		DescripcionEN:    r.FormValue("descripcionEN"),
		Fecha:            r.FormValue("fecha"),
		Video:            video,
		VideoSize:        header.Size,
		VideoContentType: header.Header.Get("Content-Type"),
		VideoFilename:    header.Filename,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, iv)
}
