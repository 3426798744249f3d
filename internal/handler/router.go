package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/gacetapress/gaceta/internal/metrics"
	"github.com/gacetapress/gaceta/internal/middleware"
)

// RouterDeps bundles the dependencies NewRouter needs.
type RouterDeps struct {
	// Middleware dependencies
	Logger            *slog.Logger
	HTTPMetrics       middleware.HTTPMetrics
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// Admin gate
	AdminUser     string
	AdminPassword string

	// Content
	Aggregator AggregatorInterface
	DaysLister DaysListerInterface

	// Collaborators
	OpinionStore     OpinionStoreInterface
	OpinionListLimit int
	InterviewService InterviewServiceInterface
	UploadMaxSize    int64

	// Prometheus scrape endpoint
	MetricsGatherer prometheus.Gatherer
}

// NewRouter returns a chi.Router with every API endpoint and the full
// middleware chain.
//
// Middleware stack order:
//
//	Recovery → SecurityHeaders → CORS → Logging → RateLimit(General)
//
// /health and /metrics sit outside the rate limit; /api/admin/* adds
// basic auth; POST /api/opinion adds the opinion rate limit.
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger, deps.HTTPMetrics))

	articleHandler := NewArticleHandler(deps.Aggregator, deps.DaysLister)
	opinionHandler := NewOpinionHandler(deps.OpinionStore, deps.OpinionListLimit)
	interviewHandler := NewInterviewHandler(deps.InterviewService, deps.UploadMaxSize)

	// --- routes outside the rate limit ---

	r.Get("/health", Health)

	if deps.MetricsGatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	// --- rate-limited API routes ---

	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/articles", func(r chi.Router) {
			r.Get("/", articleHandler.GetArticles)
			r.Get("/days", articleHandler.GetDays)
		})

		r.Get("/api/sections/{section}", articleHandler.GetSection)
		r.Get("/api/search", articleHandler.Search)
		r.Get("/api/topstories", articleHandler.TopStories)

		r.Route("/api/opinion", func(r chi.Router) {
			r.Get("/", opinionHandler.ListOpinions)
			// Submissions carry their own tighter limit on top of the
			// general one.
			r.With(deps.RateLimiter.OpinionMiddleware()).Post("/", opinionHandler.AddOpinion)
		})

		r.Get("/api/entrevistas", interviewHandler.ListInterviews)

		r.Route("/api/admin", func(r chi.Router) {
			r.Use(middleware.NewBasicAuthMiddleware(deps.AdminUser, deps.AdminPassword))
			r.Post("/entrevistas", interviewHandler.UploadInterview)
		})
	})

	return r
}
