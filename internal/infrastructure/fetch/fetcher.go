// Package fetch retrieves source pages with per-host politeness for wiki
// REST endpoints.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	maxBodyBytes = 10 << 20
	maxAttempts  = 4
)

var wikiPath = regexp.MustCompile(`/wiki/(.+)$`)

type Fetcher struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
}

func New(userAgent string, wikiRPS float64, timeout time.Duration) *Fetcher {
	if wikiRPS <= 0 {
		wikiRPS = 1
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(wikiRPS), 1),
		userAgent:  userAgent,
	}
}

// Fetch downloads the page body. Wikipedia article URLs are rewritten to the
// REST HTML endpoint and throttled through the token bucket; 429 responses
// honor Retry-After.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, acceptLang string) (string, error) {
	target := rawURL
	if rewritten, ok := wikiHTMLURL(rawURL); ok {
		target = rewritten
	}

	parsed, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if isWikiHost(parsed.Host) {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	for attempt := 1; ; attempt++ {
		body, retryAfter, err := f.get(ctx, target, acceptLang)
		if err == nil {
			return body, nil
		}
		if retryAfter <= 0 || attempt >= maxAttempts {
			return "", err
		}

		timer := time.NewTimer(retryAfter)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}
}

func (f *Fetcher) get(ctx context.Context, target, acceptLang string) (string, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", 0, fmt.Errorf("create fetch request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "*/*")
	if acceptLang != "" {
		req.Header.Set("Accept-Language", acceptLang)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", retryAfterDelay(resp.Header.Get("Retry-After")), fmt.Errorf("fetch %s: rate limited", target)
	}
	if resp.StatusCode >= 300 {
		return "", 0, fmt.Errorf("fetch %s: status %s", target, resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", 0, fmt.Errorf("read body of %s: %w", target, err)
	}
	return string(raw), 0, nil
}

func retryAfterDelay(header string) time.Duration {
	if secs, err := strconv.ParseFloat(strings.TrimSpace(header), 64); err == nil && secs > 0 {
		if secs > 30 {
			secs = 30
		}
		return time.Duration(secs * float64(time.Second))
	}
	return 2 * time.Second
}

func isWikiHost(host string) bool {
	return strings.HasSuffix(strings.ToLower(host), "wikipedia.org")
}

// wikiHTMLURL rewrites /wiki/<Title> article URLs to the REST HTML endpoint.
func wikiHTMLURL(rawURL string) (string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil || !isWikiHost(parsed.Host) {
		return "", false
	}
	m := wikiPath.FindStringSubmatch(parsed.Path)
	if m == nil {
		return "", false
	}
	return "https://" + parsed.Host + "/api/rest_v1/page/html/" + url.PathEscape(m[1]), true
}
