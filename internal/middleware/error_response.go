package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gacetapress/gaceta/internal/model"
)

// ErrorResponseBody is the unified API error response format, carrying
// a cause category and a suggested remedy.
type ErrorResponseBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// WriteErrorResponse writes an HTTP error response in the unified
// error format used by every API endpoint.
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// WriteInternalServerError writes the generic 500 response. Details
// stay in the logs; the caller only sees a generic message.
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "an internal error occurred",
		Category: "system",
		Action:   "Wait a moment and try again.",
	})
}
