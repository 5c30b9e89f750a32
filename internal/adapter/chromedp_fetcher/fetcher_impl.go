package chromedp_fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/dealwatch/internal/adapter/httpfetch"
	"github.com/user/dealwatch/internal/repository"
)

// FetcherImpl renders pages in headless Chrome and returns the resulting DOM.
type FetcherImpl struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	timeout     time.Duration
	logger      *zap.Logger
}

// NewFetcher starts an allocator shared by all fetches. Call Close to release the browser.
func NewFetcher(pageLoadTimeout time.Duration, logger *zap.Logger) *FetcherImpl {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &FetcherImpl{
		allocCtx:    allocCtx,
		cancelAlloc: cancel,
		timeout:     pageLoadTimeout,
		logger:      logger,
	}
}

// Fetch navigates to url and returns the outer HTML of the document.
func (f *FetcherImpl) Fetch(ctx context.Context, url string) (string, error) {
	taskCtx, cancel := chromedp.NewContext(f.allocCtx, chromedp.WithLogf(f.logger.Sugar().Debugf))
	defer cancel()

	// Tie the tab to the caller's context as well as the page load timeout.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	taskCtx, cancelTimeout := context.WithTimeout(taskCtx, f.timeout)
	defer cancelTimeout()

	if err := chromedp.Run(taskCtx, identify(httpfetch.RandomUserAgent())); err != nil {
		return "", repository.NewNetworkError(url, fmt.Errorf("set request headers: %w", f.cause(ctx, err)))
	}

	resp, err := chromedp.RunResponse(taskCtx, chromedp.Navigate(url))
	if err != nil {
		return "", repository.NewNetworkError(url, f.cause(ctx, err))
	}
	if status := responseStatus(resp); status < 200 || status > 299 {
		return "", repository.NewStatusError(url, status)
	}

	var html string
	if err := chromedp.Run(taskCtx,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return "", repository.NewNetworkError(url, fmt.Errorf("read document: %w", f.cause(ctx, err)))
	}

	f.logger.Debug("page rendered", zap.String("url", url), zap.Int("bytes", len(html)))
	return html, nil
}

// Close shuts the browser down.
func (f *FetcherImpl) Close() error {
	f.cancelAlloc()
	return nil
}

// cause prefers the caller's context error so cancellation is visible to errors.Is.
func (f *FetcherImpl) cause(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		return fmt.Errorf("%w: %w", ctxErr, err)
	}
	return err
}

// identify sets the tab's browser identity and content negotiation headers. Each fetch gets a
// fresh tab, so every request carries a newly drawn user agent.
func identify(userAgent string) chromedp.Tasks {
	return chromedp.Tasks{
		network.Enable(),
		emulation.SetUserAgentOverride(userAgent).WithAcceptLanguage(httpfetch.AcceptLanguageHeader),
		network.SetExtraHTTPHeaders(extraHeaders()),
	}
}

func extraHeaders() network.Headers {
	return network.Headers{
		"Accept":          httpfetch.AcceptHeader,
		"Accept-Language": httpfetch.AcceptLanguageHeader,
	}
}

func responseStatus(resp *network.Response) int {
	if resp == nil {
		// Navigations served without a network response (cache, about:blank) count as success.
		return 200
	}
	return int(resp.Status)
}

var _ repository.PageFetcher = (*FetcherImpl)(nil)
