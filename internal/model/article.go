// Package model defines the domain model shared across the application.
package model

import (
	"fmt"
	"strings"
)

// Article is the canonical unit of content. Articles are ephemeral:
// they are rebuilt on every aggregation pass and never persisted by
// this service. Identity is structural (section + day + language +
// source filename), expressed through URL.
type Article struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	// Date is always a valid calendar date in YYYY-MM-DD form. When the
	// source date line cannot be parsed the requested date (or the
	// current date) is used instead, never an invalid string.
	Date    string `json:"date"`
	Body    string `json:"body"`
	Section string `json:"section"`
	// URL is the derived identifier /{section}/{slug}, where slug is the
	// source filename without its .txt extension. Unique within one load
	// batch, not across days.
	URL    string `json:"url"`
	TxtURL string `json:"txtUrl,omitempty"`
	// ImageURL is the first .jpg/.jpeg found in the same folder as the
	// text file, in storage listing order. Empty when the folder holds
	// no image; the page renders without an image block in that case.
	ImageURL string `json:"imageUrl,omitempty"`
	// Attribution holds the source credit line ("Artículo basado en
	// información de El Confidencial" or its English equivalent) when
	// the body contained one. It is filtered out of Body.
	Attribution string `json:"attribution,omitempty"`
}

// Sections is the fixed set of content categories, lowercase. Each
// value doubles as a storage path segment and a routing key.
var Sections = []string{
	"empresas",
	"espana",
	"mercados",
	"europa",
	"brexit",
	"estados-unidos",
	"ultima-hora",
}

// IsValidSection reports whether s names one of the fixed sections.
func IsValidSection(s string) bool {
	for _, sec := range Sections {
		if sec == s {
			return true
		}
	}
	return false
}

// Supported display languages.
const (
	LanguageES = "es"
	LanguageEN = "en"
)

// NormalizeLanguage lowercases lang and maps anything that is not
// English to Spanish, the default language of the publication.
func NormalizeLanguage(lang string) string {
	if strings.EqualFold(lang, LanguageEN) {
		return LanguageEN
	}
	return LanguageES
}

// LoadKey identifies one aggregation request for dedup purposes.
// Section is empty when all sections are requested.
type LoadKey struct {
	Year     string
	Month    string
	Day      string
	Language string
	Section  string
}

// String renders the key as YYYY-MM-DD-lang-section, with "all"
// standing in for an empty section scope.
func (k LoadKey) String() string {
	section := k.Section
	if section == "" {
		section = "all"
	}
	return fmt.Sprintf("%s-%s-%s-%s-%s", k.Year, k.Month, k.Day, k.Language, section)
}
