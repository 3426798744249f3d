// Package handler implements the HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gacetapress/gaceta/internal/model"
	"github.com/gacetapress/gaceta/internal/query"
)

// AggregatorInterface is the aggregation surface the article handler
// needs.
type AggregatorInterface interface {
	// Load aggregates articles for one date/language/section scope.
	Load(ctx context.Context, year, month, day, lang, section string) error
	// Snapshot returns the loaded articles, the first article per
	// section and the days available in the loaded month.
	Snapshot() ([]model.Article, map[string]model.Article, []string)
	// Loading reports whether a load is in flight.
	Loading() bool
	// Language returns the active display language.
	Language() string
}

// DaysListerInterface lists the days with content for one month.
type DaysListerInterface interface {
	ListAvailableDays(ctx context.Context, year, month string) ([]string, error)
}

// ArticleHandler serves the article, section, search and top-stories
// endpoints.
type ArticleHandler struct {
	aggregator AggregatorInterface
	daysLister DaysListerInterface
}

// NewArticleHandler creates an ArticleHandler.
func NewArticleHandler(aggregator AggregatorInterface, daysLister DaysListerInterface) *ArticleHandler {
	return &ArticleHandler{
		aggregator: aggregator,
		daysLister: daysLister,
	}
}

// articlesResponse is the full aggregation state returned to the
// frontend.
type articlesResponse struct {
	Articles              []model.Article          `json:"articles"`
	MainArticlesBySection map[string]model.Article `json:"mainArticlesBySection"`
	DaysAvailable         []string                 `json:"daysAvailable"`
	Loading               bool                     `json:"loading"`
}

// sectionResponse carries a section page: its main article (null with
// noContent true when the section is empty) and the recommendations.
// loading lets the client tell an in-flight load apart from a section
// that is genuinely empty.
type sectionResponse struct {
	Article         *model.Article  `json:"article"`
	Recommendations []model.Article `json:"recommendations"`
	NoContent       bool            `json:"noContent,omitempty"`
	Loading         bool            `json:"loading"`
}

// searchResponse carries keyword search results.
type searchResponse struct {
	Results []model.Article `json:"results"`
	Count   int             `json:"count"`
}

// recommendationCount is how many secondary articles a section page
// shows next to the main one.
const recommendationCount = 4

// topStoriesCount is how many articles the top-stories endpoint picks.
const topStoriesCount = 4

// isoDateRe matches the YYYY-MM-DD date filter format.
var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// GetArticles triggers an aggregation load and returns the resulting
// state.
// GET /api/articles?year&month&day&language&section
func (h *ArticleHandler) GetArticles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	year, month, day, err := normalizeDateParams(q.Get("year"), q.Get("month"), q.Get("day"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	err = h.aggregator.Load(r.Context(),
		year, month, day,
		q.Get("language"), q.Get("section"),
	)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	articles, main, days := h.aggregator.Snapshot()

	writeJSON(w, http.StatusOK, articlesResponse{
		Articles:              emptyIfNil(articles),
		MainArticlesBySection: main,
		DaysAvailable:         emptyIfNil(days),
		Loading:               h.aggregator.Loading(),
	})
}

// GetDays returns the days with published content in one month.
// GET /api/articles/days?year&month
func (h *ArticleHandler) GetDays(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	year := r.URL.Query().Get("year")
	if year == "" {
		year = now.Format("2006")
	}
	month := r.URL.Query().Get("month")
	if month == "" {
		month = now.Format("01")
	}

	days, err := h.daysLister.ListAvailableDays(r.Context(), year, month)
	if err != nil {
		// The calendar is decoration; an unreachable store reads as an
		// empty month.
		slog.Warn("days listing failed",
			slog.String("year", year),
			slog.String("month", month),
			slog.String("error", err.Error()),
		)
		days = nil
	}

	writeJSON(w, http.StatusOK, map[string][]string{"days": emptyIfNil(days)})
}

// GetSection resolves a section page: the main article plus up to four
// recommendations. An empty section answers 200 with a null article
// and noContent true, never an error.
// GET /api/sections/{section}?article&date&language
func (h *ArticleHandler) GetSection(w http.ResponseWriter, r *http.Request) {
	section := chi.URLParam(r, "section")
	if !model.IsValidSection(section) {
		handleServiceError(w, model.NewUnknownSectionError(section))
		return
	}

	q := r.URL.Query()
	dateFilter := q.Get("date")
	if dateFilter != "" && !isValidISODate(dateFilter) {
		handleServiceError(w, model.NewInvalidDateError(dateFilter))
		return
	}

	// The filtered day must drive the load, not just the resolution:
	// the batch in memory is for one day only, so resolving a past date
	// against today's batch would land on the wrong article.
	var year, month, day string
	if dateFilter != "" {
		year, month, day = dateFilter[:4], dateFilter[5:7], dateFilter[8:10]
	}

	if err := h.aggregator.Load(r.Context(), year, month, day, q.Get("language"), ""); err != nil {
		handleServiceError(w, err)
		return
	}

	articles, _, _ := h.aggregator.Snapshot()

	main, ok := query.ResolveMain(articles, section, q.Get("article"), dateFilter)
	if !ok {
		writeJSON(w, http.StatusOK, sectionResponse{
			Article:         nil,
			Recommendations: []model.Article{},
			NoContent:       true,
			Loading:         h.aggregator.Loading(),
		})
		return
	}

	writeJSON(w, http.StatusOK, sectionResponse{
		Article:         &main,
		Recommendations: emptyIfNil(query.Recommendations(articles, main, recommendationCount)),
		Loading:         h.aggregator.Loading(),
	})
}

// Search answers a bilingual keyword search over the loaded batch.
// GET /api/search?keyword&sort&language
func (h *ArticleHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lang := model.NormalizeLanguage(q.Get("language"))

	if err := h.aggregator.Load(r.Context(), "", "", "", q.Get("language"), ""); err != nil {
		handleServiceError(w, err)
		return
	}

	articles, _, _ := h.aggregator.Snapshot()

	results, err := query.Search(articles, q.Get("keyword"), q.Get("sort"), lang)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Results: emptyIfNil(results),
		Count:   len(results),
	})
}

// TopStories returns up to four random articles from today's batch.
// GET /api/topstories?language
func (h *ArticleHandler) TopStories(w http.ResponseWriter, r *http.Request) {
	if err := h.aggregator.Load(r.Context(), "", "", "", r.URL.Query().Get("language"), ""); err != nil {
		handleServiceError(w, err)
		return
	}

	articles, _, _ := h.aggregator.Snapshot()

	writeJSON(w, http.StatusOK, map[string][]model.Article{
		"articles": emptyIfNil(query.TopStories(articles, topStoriesCount)),
	})
}

// normalizeDateParams validates the year/month/day query values and
// zero-pads them to the widths the storage layout uses, so "1" and
// "01" address the same batch. Empty values pass through; the
// aggregator defaults them to today.
func normalizeDateParams(year, month, day string) (string, string, string, error) {
	var err error
	if year, err = normalizeDatePart(year, 4, 1000, 9999); err != nil {
		return "", "", "", err
	}
	if month, err = normalizeDatePart(month, 2, 1, 12); err != nil {
		return "", "", "", err
	}
	if day, err = normalizeDatePart(day, 2, 1, 31); err != nil {
		return "", "", "", err
	}
	return year, month, day, nil
}

func normalizeDatePart(value string, width, min, max int) (string, error) {
	if value == "" {
		return "", nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < min || n > max {
		return "", model.NewInvalidDateError(value)
	}
	return fmt.Sprintf("%0*d", width, n), nil
}

// isValidISODate reports whether s is a real YYYY-MM-DD calendar date.
func isValidISODate(s string) bool {
	if !isoDateRe.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// emptyIfNil keeps JSON arrays as [] instead of null.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// apiErrorResponse is the unified error response format.
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeAPIErrorResponse writes an error in the unified format.
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	writeJSON(w, statusCode, apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError maps a service-layer error to an HTTP response.
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "an internal error occurred",
		Category: "system",
		Action:   "Wait a moment and try again.",
	})
}

// mapAPIErrorToHTTPStatus maps APIError codes to HTTP status codes.
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnknownSection:
		return http.StatusNotFound
	case model.ErrCodeInvalidDate, model.ErrCodeInvalidSort, model.ErrCodeInvalidRequest, model.ErrCodeEmptyOpinion, model.ErrCodeInvalidUpload:
		return http.StatusBadRequest
	case model.ErrCodeUploadTooLarge:
		return http.StatusRequestEntityTooLarge
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
