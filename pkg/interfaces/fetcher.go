package interfaces

import "context"

// Fetcher retrieves the body behind a URL. Implementations must report
// non-2xx responses as errors so callers can treat transport and status
// failures the same way.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// FetcherFunc adapts a plain function to the Fetcher contract.
type FetcherFunc func(ctx context.Context, url string) ([]byte, error)

// Get implements Fetcher.
func (f FetcherFunc) Get(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}
