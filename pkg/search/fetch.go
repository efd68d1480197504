package search

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const maxFetchedChars = 8000

// Fetcher downloads a page and extracts its readable text.
type Fetcher struct {
	httpClient *http.Client
	maxChars   int
}

type FetchOption func(*Fetcher)

// WithFetchHTTPClient replaces the HTTP client.
func WithFetchHTTPClient(httpClient *http.Client) FetchOption {
	return func(f *Fetcher) {
		f.httpClient = httpClient
	}
}

// WithFetchMaxChars caps the extracted text length.
func WithFetchMaxChars(n int) FetchOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxChars = n
		}
	}
}

// NewFetcher creates a page fetcher.
func NewFetcher(opts ...FetchOption) *Fetcher {
	f := &Fetcher{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		maxChars:   maxFetchedChars,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchText downloads the page at url and returns its visible text with
// scripts, styles and navigation chrome removed.
func (f *Fetcher) FetchText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; deepresearch/1.0)")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status code %d", url, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", url, err)
	}

	doc.Find("script, style, noscript, nav, header, footer").Remove()

	var lines []string
	for _, raw := range strings.Split(doc.Find("body").Text(), "\n") {
		line := strings.TrimSpace(raw)
		if line != "" {
			lines = append(lines, line)
		}
	}
	text := strings.Join(lines, "\n")
	if text == "" {
		return "", fmt.Errorf("fetch %s: no text content found", url)
	}
	if len(text) > f.maxChars {
		text = text[:f.maxChars]
	}
	return text, nil
}
