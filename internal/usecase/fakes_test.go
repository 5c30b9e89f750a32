package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/dealwatch/internal/entity"
	"github.com/user/dealwatch/internal/repository"
)

type fakeFetcher struct {
	markup   string
	err      error
	delay    time.Duration
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		old := f.maxSeen.Load()
		if n <= old || f.maxSeen.CompareAndSwap(old, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", repository.NewNetworkError(url, ctx.Err())
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.markup, nil
}

type fakeExtractor struct {
	candidates []entity.RawCandidate
	err        error
}

func (e *fakeExtractor) Extract(string) ([]entity.RawCandidate, error) {
	return e.candidates, e.err
}

// fakeNotifier fails with the context error when its context is done, like a paced sender.
type fakeNotifier struct {
	mu       sync.Mutex
	sent     []entity.Listing
	err      error
	onNotify func()
}

func (n *fakeNotifier) Notify(ctx context.Context, l *entity.Listing) error {
	if n.onNotify != nil {
		n.onNotify()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, *l)
	return n.err
}

func (n *fakeNotifier) ids() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.sent))
	for _, l := range n.sent {
		out = append(out, l.ID)
	}
	return out
}

// brokenStore fails every call with err.
type brokenStore struct {
	err error
}

func (s brokenStore) Exists(context.Context, string) (bool, error)  { return false, s.err }
func (s brokenStore) Insert(context.Context, *entity.Listing) error { return s.err }
func (s brokenStore) Ping(context.Context) error                    { return s.err }
func (s brokenStore) Close() error                                  { return nil }

// memorySeenCache is an in-process repository.SeenCache.
type memorySeenCache struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func newMemorySeenCache() *memorySeenCache {
	return &memorySeenCache{seen: make(map[string]struct{})}
}

func (c *memorySeenCache) IsSeen(_ context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.seen[id]
	return ok, nil
}

func (c *memorySeenCache) MarkSeen(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen[id] = struct{}{}
	return nil
}

func (c *memorySeenCache) Ping(context.Context) error { return nil }
func (c *memorySeenCache) Close() error               { return nil }

var _ repository.SeenCache = (*memorySeenCache)(nil)

// brokenCache fails every call.
type brokenCache struct{}

var errCacheDown = errors.New("connection refused")

func (brokenCache) IsSeen(context.Context, string) (bool, error) { return false, errCacheDown }
func (brokenCache) MarkSeen(context.Context, string) error       { return errCacheDown }
func (brokenCache) Ping(context.Context) error                   { return errCacheDown }
func (brokenCache) Close() error                                 { return nil }
