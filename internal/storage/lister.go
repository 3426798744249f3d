// Package storage reads and writes the S3-compatible object store that
// holds the pre-generated newspaper content. Buckets are public; the
// listing endpoint is the plain ListObjectsV2 XML interface.
package storage

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// NewsItem is one listed article: the text object and, when the same
// folder holds one, its first image by listing order.
type NewsItem struct {
	TxtURL   string
	ImageURL string
}

// Lister enumerates available content in the object store.
type Lister interface {
	// ListAvailableDays returns the day segments present under
	// data/news/{year}/{month}/, deduplicated and sorted ascending
	// numerically.
	ListAvailableDays(ctx context.Context, year, month string) ([]string, error)

	// ListNews returns the news items under
	// data/news/{year}/{month}/{day}/{lang}/{section}/. Every .txt key
	// is one item; a missing image leaves ImageURL empty.
	ListNews(ctx context.Context, year, month, day, lang, section string) ([]NewsItem, error)
}

// newsPrefix is the root of the article tree inside the content bucket.
const newsPrefix = "data/news/"

// maxListingResponseSize caps one listing page read. A full 1000-key
// ListObjectsV2 page stays well under this; anything bigger is a
// misbehaving endpoint.
const maxListingResponseSize = 2 << 20

// listBucketResult mirrors the subset of the ListObjectsV2 XML response
// the lister consumes.
type listBucketResult struct {
	IsTruncated           bool     `xml:"IsTruncated"`
	NextContinuationToken string   `xml:"NextContinuationToken"`
	Contents              []object `xml:"Contents"`
}

type object struct {
	Key string `xml:"Key"`
}

// S3Lister lists objects through a bucket's public HTTP endpoint.
type S3Lister struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewS3Lister returns an S3Lister for the bucket at baseURL. A missing
// trailing slash is added so key concatenation stays simple.
func NewS3Lister(baseURL string, client *http.Client, logger *slog.Logger) *S3Lister {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &S3Lister{
		baseURL: baseURL,
		client:  client,
		logger:  logger,
	}
}

// ObjectURL returns the public URL of the object with the given key.
func (l *S3Lister) ObjectURL(key string) string {
	return l.baseURL + key
}

// ListKeys returns every object key under prefix, following
// continuation tokens across truncated pages (ListObjectsV2 caps a
// single page at 1000 keys).
func (l *S3Lister) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	token := ""

	for {
		reqURL, err := l.listURL(prefix, token)
		if err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build listing request: %w", err)
		}

		resp, err := l.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("listing request failed: %w", err)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxListingResponseSize+1))
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read listing response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("listing endpoint returned status %d", resp.StatusCode)
		}
		if int64(len(body)) > maxListingResponseSize {
			return nil, fmt.Errorf("listing response exceeds %d bytes", maxListingResponseSize)
		}

		var result listBucketResult
		if err := xml.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("failed to parse listing XML: %w", err)
		}

		for _, obj := range result.Contents {
			if obj.Key != "" {
				keys = append(keys, obj.Key)
			}
		}

		if !result.IsTruncated || result.NextContinuationToken == "" {
			return keys, nil
		}
		token = result.NextContinuationToken
	}
}

// listURL builds the ListObjectsV2 query URL for one page.
func (l *S3Lister) listURL(prefix, token string) (string, error) {
	u, err := url.Parse(l.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid bucket base URL: %w", err)
	}

	q := u.Query()
	q.Set("list-type", "2")
	q.Set("prefix", prefix)
	if token != "" {
		q.Set("continuation-token", token)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// ListAvailableDays implements Lister.
func (l *S3Lister) ListAvailableDays(ctx context.Context, year, month string) ([]string, error) {
	prefix := fmt.Sprintf("%s%s/%s/", newsPrefix, year, month)

	keys, err := l.ListKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var days []string
	for _, key := range keys {
		rest := strings.TrimPrefix(key, prefix)
		day, _, _ := strings.Cut(rest, "/")
		if day == "" || seen[day] {
			continue
		}
		seen[day] = true
		days = append(days, day)
	}

	sort.Slice(days, func(i, j int) bool {
		a, errA := strconv.Atoi(days[i])
		b, errB := strconv.Atoi(days[j])
		if errA == nil && errB == nil {
			return a < b
		}
		return days[i] < days[j]
	})

	return days, nil
}

// ListNews implements Lister. Items keep the storage listing order of
// their .txt keys; images pair with a text file by sharing its folder.
func (l *S3Lister) ListNews(ctx context.Context, year, month, day, lang, section string) ([]NewsItem, error) {
	prefix := fmt.Sprintf("%s%s/%s/%s/%s/%s/", newsPrefix, year, month, day, lang, section)

	keys, err := l.ListKeys(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var items []NewsItem
	for _, key := range keys {
		if !strings.HasSuffix(key, ".txt") {
			continue
		}

		item := NewsItem{TxtURL: l.ObjectURL(key)}

		// First image in the same folder, by listing order. Order is
		// storage-defined, not content-defined.
		folder := key[:strings.LastIndex(key, "/")+1]
		for _, candidate := range keys {
			if strings.HasPrefix(candidate, folder) && isImageKey(candidate) {
				item.ImageURL = l.ObjectURL(candidate)
				break
			}
		}

		items = append(items, item)
	}

	return items, nil
}

// isImageKey reports whether key names a .jpg/.jpeg object, case
// insensitively.
func isImageKey(key string) bool {
	lower := strings.ToLower(key)
	return strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg")
}
