// Package query answers read-side questions over a loaded article
// batch: main-article resolution, recommendations, keyword search and
// top stories. All functions are pure over the snapshot they receive.
package query

import (
	_ "embed"
	"math/rand"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/gacetapress/gaceta/internal/model"
)

// Supported sort orders for Search.
const (
	SortTitleAsc  = "title-asc"
	SortTitleDesc = "title-desc"
)

//go:embed synonyms.yml
var synonymsYAML []byte

// synonymGroups holds the bilingual equivalence groups from the
// embedded table. Loaded once at package init; the file ships with the
// binary, so a decode failure is a build defect and panics.
var synonymGroups [][]string

func init() {
	var table struct {
		Synonyms [][]string `yaml:"synonyms"`
	}
	if err := yaml.Unmarshal(synonymsYAML, &table); err != nil {
		panic("query: invalid embedded synonym table: " + err.Error())
	}
	synonymGroups = table.Synonyms
}

// ResolveMain picks the main article for a section page.
//
// An explicit slug wins: the first article whose URL ends in /slug, in
// any section. Otherwise a date filter (YYYY-MM-DD) picks the first
// section article published on that date. Otherwise, and as fallback
// for both filters, the section's first article in collection order.
// ok is false when the section has no articles at all; an empty page
// is a state, not an error.
func ResolveMain(articles []model.Article, section, slug, dateFilter string) (model.Article, bool) {
	if slug != "" {
		for _, art := range articles {
			if strings.HasSuffix(art.URL, "/"+slug) {
				return art, true
			}
		}
	}

	var first model.Article
	found := false
	for _, art := range articles {
		if art.Section != section {
			continue
		}
		if !found {
			first = art
			found = true
		}
		if dateFilter != "" && art.Date == dateFilter {
			return art, true
		}
	}

	return first, found
}

// Recommendations returns up to n articles to show alongside main,
// excluding main itself by URL, in collection order. Any section
// qualifies.
func Recommendations(articles []model.Article, main model.Article, n int) []model.Article {
	recs := make([]model.Article, 0, n)
	for _, art := range articles {
		if len(recs) == n {
			break
		}
		if art.URL == main.URL {
			continue
		}
		recs = append(recs, art)
	}
	return recs
}

// Search filters articles by a case-insensitive substring match of
// keyword against title, subtitle and body. The keyword is expanded
// through the bilingual synonym table, so a Spanish query finds
// English articles and vice versa. An empty keyword matches
// everything.
//
// Results are sorted by cleaned title under Spanish collation. sortBy
// accepts title-asc (the default when empty) and title-desc; anything
// else is an invalid-sort error.
func Search(articles []model.Article, keyword, sortBy, lang string) ([]model.Article, error) {
	switch sortBy {
	case "", SortTitleAsc, SortTitleDesc:
	default:
		return nil, model.NewInvalidSortError(sortBy)
	}

	terms := expandKeyword(keyword)

	var results []model.Article
	for _, art := range articles {
		if matchesAny(art, terms) {
			results = append(results, art)
		}
	}

	c := collate.New(language.Spanish)
	sort.SliceStable(results, func(i, j int) bool {
		cmp := c.CompareString(CleanTitle(lang, results[i].Title), CleanTitle(lang, results[j].Title))
		if sortBy == SortTitleDesc {
			return cmp > 0
		}
		return cmp < 0
	})

	return results, nil
}

// TopStories returns up to n articles drawn at random from the batch,
// without repetition.
func TopStories(articles []model.Article, n int) []model.Article {
	idx := rand.Perm(len(articles))
	if n > len(idx) {
		n = len(idx)
	}

	top := make([]model.Article, 0, n)
	for _, i := range idx[:n] {
		top = append(top, articles[i])
	}
	return top
}

var (
	cleanTitleES = regexp.MustCompile(`(?i)^\s*Título:\s*`)
	cleanTitleEN = regexp.MustCompile(`(?i)^\s*Title:\s*`)
)

// CleanTitle strips leftover emphasis markers and the localized title
// label from a display title.
func CleanTitle(lang, s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "*", ""))
	if model.NormalizeLanguage(lang) == model.LanguageEN {
		return strings.TrimSpace(cleanTitleEN.ReplaceAllString(s, ""))
	}
	return strings.TrimSpace(cleanTitleES.ReplaceAllString(s, ""))
}

// expandKeyword lowercases the keyword and adds every synonym-group
// sibling of any group the keyword belongs to. An empty keyword
// expands to nil, which matchesAny treats as match-all.
func expandKeyword(keyword string) []string {
	keyword = strings.ToLower(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil
	}

	terms := []string{keyword}
	for _, group := range synonymGroups {
		member := false
		for _, term := range group {
			if term == keyword {
				member = true
				break
			}
		}
		if !member {
			continue
		}
		for _, term := range group {
			if term != keyword {
				terms = append(terms, term)
			}
		}
	}
	return terms
}

// matchesAny reports whether any expanded term occurs in the
// article's searchable text. A nil term set matches everything.
func matchesAny(art model.Article, terms []string) bool {
	if terms == nil {
		return true
	}

	haystack := strings.ToLower(art.Title + " " + art.Subtitle + " " + art.Body)
	for _, term := range terms {
		if strings.Contains(haystack, term) {
			return true
		}
	}
	return false
}
