package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/kanjidex/kanjidex/pkg/analyze"
)

// maxBodySize caps fetched HTML to keep untrusted URLs from exhausting
// memory.
const maxBodySize = 10 * 1024 * 1024

// article is the readable content extracted from a fetched page.
type article struct {
	URL      string
	Title    string
	Byline   string
	SiteName string
	Text     string
}

// fetchArticle downloads a page and extracts its readable text. Furigana
// annotations are stripped from the raw HTML first so reading glosses do
// not show up as duplicate kana in the extracted text.
func fetchArticle(ctx context.Context, rawURL string) (*article, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	// Mimic a real browser; plain Go user agents get blocked (403) or
	// challenged by Cloudflare on many news sites.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,ja;q=0.8")
	req.Header.Set("Referer", "https://www.google.com/")
	req.Header.Set("Sec-Ch-Ua", `"Not_A Brand";v="8", "Chromium";v="120", "Google Chrome";v="120"`)
	req.Header.Set("Sec-Ch-Ua-Mobile", "?0")
	req.Header.Set("Sec-Ch-Ua-Platform", `"Windows"`)
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	req.Header.Set("Sec-Fetch-User", "?1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: got status %d", rawURL, resp.StatusCode)
	}

	if resp.ContentLength > int64(maxBodySize) {
		return nil, fmt.Errorf("fetch %s: content length %d exceeds limit of %d bytes", rawURL, resp.ContentLength, maxBodySize)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	// ReadAll over a LimitReader cannot tell "exactly at the limit" from
	// "truncated", so a full buffer is treated as over the limit.
	if int64(len(body)) >= int64(maxBodySize) {
		return nil, fmt.Errorf("fetch %s: response exceeded limit of %d bytes", rawURL, maxBodySize)
	}

	sanitized := analyze.SanitizeRuby(string(body))

	parsedURL, _ := url.Parse(rawURL)
	extracted, err := readability.FromReader(bytes.NewReader([]byte(sanitized)), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("extract article: %w", err)
	}

	return &article{
		URL:      rawURL,
		Title:    extracted.Title,
		Byline:   extracted.Byline,
		SiteName: extracted.SiteName,
		Text:     extracted.TextContent,
	}, nil
}
