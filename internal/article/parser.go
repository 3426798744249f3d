// Package article implements the content core: parsing the
// label-prefixed article text files and aggregating one day of content
// across sections.
package article

import (
	"regexp"
	"strings"
	"time"

	"github.com/gacetapress/gaceta/internal/model"
)

// Label lines are localized and optionally wrapped in ** emphasis
// markers, e.g. "**Título:** ..." or "Date: ...".
var (
	titleRe    = regexp.MustCompile(`(?i)^\**\s*(Título|Title):\**\s*`)
	subtitleRe = regexp.MustCompile(`(?i)^\**\s*(Subtítulo|Subtitle):\**\s*`)
	dateRe     = regexp.MustCompile(`(?i)^\**\s*(Fecha|Date):\**\s*`)
)

// Source attribution phrases filtered out of article bodies.
const (
	attributionES = "Artículo basado en información de El Confidencial"
	attributionEN = "Article based on information from El Confidencial"
)

// Placeholder titles when no title line is found.
const (
	noTitleES = "Sin título"
	noTitleEN = "No title"
)

// Content is the parsed form of one raw article text.
type Content struct {
	Title       string
	Subtitle    string
	Date        string
	Body        string
	Attribution string
}

// Parse splits a raw article text into its labeled fields. Parsing
// never fails: missing labels fall back to a placeholder title, an
// empty subtitle and fallbackDate (or the current date when
// fallbackDate is empty).
//
// The body starts strictly after whichever labeled line appears latest
// in the file, so unlabeled leading lines are never mistaken for a
// title or subtitle. When no label matches at all the whole text
// becomes the body.
func Parse(raw, lang, fallbackDate string) Content {
	var lines []string
	for _, l := range strings.Split(raw, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}

	titleIdx, subtitleIdx, dateIdx := -1, -1, -1
	for i, l := range lines {
		if titleIdx < 0 && titleRe.MatchString(l) {
			titleIdx = i
		}
		if subtitleIdx < 0 && subtitleRe.MatchString(l) {
			subtitleIdx = i
		}
		if dateIdx < 0 && dateRe.MatchString(l) {
			dateIdx = i
		}
	}

	c := Content{Subtitle: ""}

	if titleIdx >= 0 {
		c.Title = stripMarkers(titleRe.ReplaceAllString(lines[titleIdx], ""))
	}
	if c.Title == "" {
		if model.NormalizeLanguage(lang) == model.LanguageEN {
			c.Title = noTitleEN
		} else {
			c.Title = noTitleES
		}
	}

	if subtitleIdx >= 0 {
		c.Subtitle = stripMarkers(subtitleRe.ReplaceAllString(lines[subtitleIdx], ""))
	}

	rawDate := ""
	if dateIdx >= 0 {
		rawDate = stripMarkers(dateRe.ReplaceAllString(lines[dateIdx], ""))
	}
	c.Date = NormalizeDate(rawDate, fallbackDate)

	// Body = everything after the last matched label line.
	bodyStart := 0
	for _, idx := range []int{titleIdx, subtitleIdx, dateIdx} {
		if idx+1 > bodyStart {
			bodyStart = idx + 1
		}
	}

	var bodyLines []string
	for _, l := range lines[bodyStart:] {
		if strings.Contains(l, attributionES) || strings.Contains(l, attributionEN) {
			c.Attribution = strings.ReplaceAll(l, "*", "")
			continue
		}
		bodyLines = append(bodyLines, l)
	}
	c.Body = strings.Join(bodyLines, "\n")

	return c
}

// dateSepRe splits a raw date on dash or slash separators.
var dateSepRe = regexp.MustCompile(`[-/]`)

// NormalizeDate turns a free-form date line into canonical YYYY-MM-DD.
// Three-part dates are read as day-month-year, the convention of the
// upstream content generator, unless the first part has four digits,
// in which case year-month-day is assumed. Anything that does not
// round-trip as a real calendar date yields fallback, or today's date
// when fallback is empty.
func NormalizeDate(raw, fallback string) string {
	if fallback == "" {
		fallback = time.Now().Format("2006-01-02")
	}

	parts := dateSepRe.Split(strings.TrimSpace(raw), -1)
	if len(parts) != 3 {
		return fallback
	}

	var year, month, day string
	if len(parts[0]) == 4 {
		year, month, day = parts[0], parts[1], parts[2]
	} else {
		day, month, year = parts[0], parts[1], parts[2]
	}

	candidate := padLeft(year, 4) + "-" + padLeft(month, 2) + "-" + padLeft(day, 2)
	if _, err := time.Parse("2006-01-02", candidate); err != nil {
		return fallback
	}
	return candidate
}

// stripMarkers drops leftover emphasis markers and trims whitespace.
func stripMarkers(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "*", ""))
}

// padLeft zero-pads s to the given width.
func padLeft(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}
