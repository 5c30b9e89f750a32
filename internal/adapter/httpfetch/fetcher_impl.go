package httpfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/user/dealwatch/internal/repository"
)

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 10 << 20

// Content negotiation headers sent with every page request.
const (
	AcceptHeader         = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	AcceptLanguageHeader = "en-US,en;q=0.5"
)

// FetcherImpl retrieves pages with a plain HTTP GET.
type FetcherImpl struct {
	client    *http.Client
	userAgent func() string
}

// NewFetcher creates a fetcher whose every request is bounded by timeout.
func NewFetcher(timeout time.Duration) *FetcherImpl {
	return &FetcherImpl{
		client:    &http.Client{Timeout: timeout},
		userAgent: RandomUserAgent,
	}
}

// Fetch performs one GET with browser-like headers. There is no retry; the next cycle is the retry.
func (f *FetcherImpl) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", repository.NewNetworkError(url, err)
	}
	req.Header.Set("User-Agent", f.userAgent())
	req.Header.Set("Accept", AcceptHeader)
	req.Header.Set("Accept-Language", AcceptLanguageHeader)
	req.Header.Set("Connection", "keep-alive")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", repository.NewNetworkError(url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return "", repository.NewStatusError(url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", repository.NewNetworkError(url, fmt.Errorf("read body: %w", err))
	}
	return string(body), nil
}

var _ repository.PageFetcher = (*FetcherImpl)(nil)
