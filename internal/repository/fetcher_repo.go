package repository

import "context"

// PageFetcher retrieves the raw markup of a page.
type PageFetcher interface {
	// Fetch performs a single attempt. Failures are returned as *FetchError.
	Fetch(ctx context.Context, url string) (string, error)
}
