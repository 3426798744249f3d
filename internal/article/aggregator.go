package article

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gacetapress/gaceta/internal/model"
	"github.com/gacetapress/gaceta/internal/storage"
)

// AggregatorMetrics is the metrics interface the aggregator reports to.
type AggregatorMetrics interface {
	RecordListSuccess(section string)
	RecordListFailure(section string)
	RecordParseFailure(section string)
	RecordArticlesLoaded(count int)
	RecordLoadSuppressed(reason string)
	RecordLoadLatency(duration time.Duration)
}

// Aggregator loads one day of articles across the fixed section set
// and keeps the latest batch in memory.
//
// Duplicate and concurrent loads for the same key are suppressed: a
// call whose key matches the last completed load returns immediately,
// and a call issued while a load is in flight returns immediately.
// Each load carries a generation token; a load whose generation is no
// longer current discards its results instead of overwriting a newer
// batch.
type Aggregator struct {
	lister         storage.Lister
	fetcher        TextFetcher
	logger         *slog.Logger
	metrics        AggregatorMetrics
	maxConcurrency int

	mu            sync.Mutex
	loading       bool
	lastKey       string
	generation    uint64
	language      string
	articles      []model.Article
	mainBySection map[string]model.Article
	daysAvailable []string
}

// NewAggregator returns an Aggregator. maxConcurrency bounds the
// parallel section loads; values below 1 fall back to 4.
func NewAggregator(
	lister storage.Lister,
	fetcher TextFetcher,
	logger *slog.Logger,
	metrics AggregatorMetrics,
	maxConcurrency int,
	defaultLanguage string,
) *Aggregator {
	if maxConcurrency < 1 {
		maxConcurrency = 4
	}
	return &Aggregator{
		lister:         lister,
		fetcher:        fetcher,
		logger:         logger,
		metrics:        metrics,
		maxConcurrency: maxConcurrency,
		language:       model.NormalizeLanguage(defaultLanguage),
		mainBySection:  make(map[string]model.Article),
	}
}

// Load aggregates the articles for one (year, month, day, language)
// scope, optionally restricted to a single section. Empty year, month
// and day default to the current calendar date; an empty language
// keeps the active one.
//
// Per-section listing failures degrade to zero articles for that
// section; per-article fetch failures drop the article. Load only
// returns an error for an invalid section argument.
func (a *Aggregator) Load(ctx context.Context, year, month, day, lang, section string) error {
	now := time.Now()
	if year == "" {
		year = now.Format("2006")
	}
	if month == "" {
		month = now.Format("01")
	}
	if day == "" {
		day = now.Format("02")
	}
	if section != "" && !model.IsValidSection(section) {
		return model.NewUnknownSectionError(section)
	}

	a.mu.Lock()
	if lang == "" {
		lang = a.language
	}
	lang = model.NormalizeLanguage(lang)

	key := model.LoadKey{Year: year, Month: month, Day: day, Language: lang, Section: section}.String()

	if a.loading {
		a.mu.Unlock()
		a.metrics.RecordLoadSuppressed("in_flight")
		return nil
	}
	if a.lastKey == key {
		a.mu.Unlock()
		a.metrics.RecordLoadSuppressed("cache_hit")
		return nil
	}

	a.loading = true
	a.lastKey = key
	a.language = lang
	a.generation++
	gen := a.generation
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.loading = false
		a.mu.Unlock()
	}()

	start := time.Now()

	days, err := a.lister.ListAvailableDays(ctx, year, month)
	if err != nil {
		// Degrade to an empty calendar; the day's sections may still load.
		a.logger.Warn("listing available days failed",
			slog.String("year", year),
			slog.String("month", month),
			slog.String("error", err.Error()),
		)
		days = nil
	}

	sections := model.Sections
	if section != "" {
		sections = []string{section}
	}

	// Fan out one goroutine per section under a semaphore, then join
	// before the flatten+group step.
	results := make([][]model.Article, len(sections))
	sem := make(chan struct{}, a.maxConcurrency)
	var wg sync.WaitGroup

	for i, sec := range sections {
		wg.Add(1)
		sem <- struct{}{}

		go func(i int, sec string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = a.loadSection(ctx, year, month, day, lang, sec)
		}(i, sec)
	}

	wg.Wait()

	var all []model.Article
	seen := make(map[string]bool)
	grouped := make(map[string]model.Article)
	for _, sectionArticles := range results {
		for _, art := range sectionArticles {
			if seen[art.URL] {
				continue
			}
			seen[art.URL] = true
			all = append(all, art)
			if _, ok := grouped[art.Section]; !ok {
				grouped[art.Section] = art
			}
		}
	}

	a.mu.Lock()
	if a.generation != gen {
		// A newer load superseded this one while it ran; its results win.
		a.mu.Unlock()
		a.metrics.RecordLoadSuppressed("stale")
		return nil
	}
	a.articles = all
	a.mainBySection = grouped
	a.daysAvailable = days
	a.mu.Unlock()

	duration := time.Since(start)
	a.metrics.RecordArticlesLoaded(len(all))
	a.metrics.RecordLoadLatency(duration)

	a.logger.Info("article load completed",
		slog.String("load_key", key),
		slog.Int("article_count", len(all)),
		slog.Int("section_count", len(grouped)),
		slog.Int("days_available", len(days)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// loadSection lists and parses one section's articles. Failures are
// absorbed: a listing failure yields nil, a per-article fetch failure
// drops that article.
func (a *Aggregator) loadSection(ctx context.Context, year, month, day, lang, sec string) []model.Article {
	items, err := a.lister.ListNews(ctx, year, month, day, lang, sec)
	if err != nil {
		a.logger.Warn("section listing failed",
			slog.String("section", sec),
			slog.String("language", lang),
			slog.String("error", err.Error()),
		)
		a.metrics.RecordListFailure(sec)
		return nil
	}
	a.metrics.RecordListSuccess(sec)

	fallbackDate := fmt.Sprintf("%s-%s-%s", year, month, day)

	var articles []model.Article
	for _, item := range items {
		if item.TxtURL == "" {
			continue
		}

		raw, err := a.fetcher.FetchText(ctx, item.TxtURL)
		if err != nil {
			a.logger.Warn("article fetch failed, dropping article",
				slog.String("section", sec),
				slog.String("txt_url", item.TxtURL),
				slog.String("error", err.Error()),
			)
			a.metrics.RecordParseFailure(sec)
			continue
		}

		content := Parse(raw, lang, fallbackDate)

		articles = append(articles, model.Article{
			Title:       content.Title,
			Subtitle:    content.Subtitle,
			Date:        content.Date,
			Body:        content.Body,
			Attribution: content.Attribution,
			Section:     sec,
			URL:         "/" + sec + "/" + slugFromTxtURL(item.TxtURL),
			TxtURL:      item.TxtURL,
			ImageURL:    item.ImageURL,
		})
	}

	return articles
}

// SetLanguage switches the active display language and reloads today's
// articles when the language actually changes.
func (a *Aggregator) SetLanguage(ctx context.Context, lang string) error {
	lang = model.NormalizeLanguage(lang)

	a.mu.Lock()
	if a.language == lang {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	return a.Load(ctx, "", "", "", lang, "")
}

// Snapshot returns a consistent copy of the current batch: the flat
// article collection, the first-article-per-section index and the days
// available in the loaded month.
func (a *Aggregator) Snapshot() ([]model.Article, map[string]model.Article, []string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	articles := make([]model.Article, len(a.articles))
	copy(articles, a.articles)

	main := make(map[string]model.Article, len(a.mainBySection))
	for k, v := range a.mainBySection {
		main[k] = v
	}

	days := make([]string, len(a.daysAvailable))
	copy(days, a.daysAvailable)

	return articles, main, days
}

// Loading reports whether a load is currently in flight. Exposed so
// the presentation layer can distinguish "loading" from "no content".
func (a *Aggregator) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}

// Language returns the active display language.
func (a *Aggregator) Language() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.language
}

// slugFromTxtURL derives the article slug from the text object URL:
// the final path segment without its .txt extension.
func slugFromTxtURL(txtURL string) string {
	slug := txtURL
	if idx := strings.LastIndex(slug, "/"); idx >= 0 {
		slug = slug[idx+1:]
	}
	return strings.TrimSuffix(slug, ".txt")
}
