package feed

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned for a fetch that was overtaken by a newer one.
var ErrSuperseded = errors.New("fetch superseded by a newer request")

// Latest serializes fetches so that only the newest one counts. Starting a
// fetch cancels the one still in flight.
type Latest struct {
	fetcher Fetcher

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewLatest wraps f.
func NewLatest(f Fetcher) *Latest {
	return &Latest{fetcher: f}
}

// FetchTrajectories fetches url, canceling any previous fetch. A fetch that
// is overtaken returns ErrSuperseded whatever its outcome.
func (l *Latest) FetchTrajectories(ctx context.Context, url string) ([]Record, error) {
	var out []Record
	err := l.Fetch(ctx, url, func(records []Record) {
		out = records
	})
	return out, err
}

// Fetch fetches url and hands the records to apply if no newer fetch has
// started in the meantime. apply runs before any newer fetch can be
// applied, so results are never applied out of order.
func (l *Latest) Fetch(ctx context.Context, url string, apply func([]Record)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.seq++
	seq := l.seq
	l.cancel = cancel
	l.mu.Unlock()

	records, err := l.fetcher.FetchTrajectories(ctx, url)

	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.seq {
		return ErrSuperseded
	}
	l.cancel = nil
	if err != nil {
		return err
	}
	apply(records)
	return nil
}

// Cancel aborts the fetch in flight, if any. Its result is discarded.
func (l *Latest) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.seq++
}
