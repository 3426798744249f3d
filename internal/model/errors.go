package model

import "fmt"

// APIError is the unified error format returned by the HTTP layer.
// It carries a cause category and a suggested action for the UI.
// Core-layer failures (listing, fetching, parsing) are never surfaced
// through this type: they degrade to empty or default values instead.
type APIError struct {
	Code     string // machine-readable error code
	Message  string // human-readable message
	Category string // category: auth, validation, content, system
	Action   string // suggested remedy for the caller
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Defined error codes.
const (
	ErrCodeUnknownSection = "UNKNOWN_SECTION"
	ErrCodeInvalidDate    = "INVALID_DATE"
	ErrCodeInvalidSort    = "INVALID_SORT"
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeEmptyOpinion   = "EMPTY_OPINION"
	ErrCodeInvalidUpload  = "INVALID_UPLOAD"
	ErrCodeUploadTooLarge = "UPLOAD_TOO_LARGE"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
)

// NewUnknownSectionError reports a section outside the fixed set.
func NewUnknownSectionError(section string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownSection,
		Message:  fmt.Sprintf("unknown section: %s", section),
		Category: "validation",
		Action:   "Use one of the published sections (empresas, espana, mercados, europa, brexit, estados-unidos, ultima-hora).",
	}
}

// NewInvalidDateError reports a date filter that is not YYYY-MM-DD.
func NewInvalidDateError(date string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDate,
		Message:  fmt.Sprintf("invalid date: %s", date),
		Category: "validation",
		Action:   "Provide the date filter as YYYY-MM-DD.",
	}
}

// NewInvalidSortError reports an unsupported sort order.
func NewInvalidSortError(sort string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSort,
		Message:  fmt.Sprintf("invalid sort order: %s", sort),
		Category: "validation",
		Action:   "Use title-asc or title-desc.",
	}
}

// NewEmptyOpinionError reports an opinion submission without text.
func NewEmptyOpinionError() *APIError {
	return &APIError{
		Code:     ErrCodeEmptyOpinion,
		Message:  "opinion text must not be empty",
		Category: "validation",
		Action:   "Write the opinion text before submitting.",
	}
}

// NewInvalidUploadError reports an upload that is not a video.
func NewInvalidUploadError(mimeType string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidUpload,
		Message:  fmt.Sprintf("unsupported upload content type: %s", mimeType),
		Category: "validation",
		Action:   "Upload a video file (video/*).",
	}
}

// NewUploadTooLargeError reports an upload over the size ceiling.
func NewUploadTooLargeError(size, limit int64) *APIError {
	return &APIError{
		Code:     ErrCodeUploadTooLarge,
		Message:  fmt.Sprintf("upload of %d bytes exceeds the limit of %d bytes", size, limit),
		Category: "validation",
		Action:   "Compress the video or upload a shorter cut.",
	}
}

// NewUnauthorizedError reports missing or wrong admin credentials.
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "authentication required",
		Category: "auth",
		Action:   "Provide valid admin credentials.",
	}
}
