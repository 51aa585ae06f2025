package internal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// minCacheBytes is the smallest cached blob treated as a real table.
const minCacheBytes = 50

// Validator parses raw table text and returns how many items it holds.
type Validator func(raw string) (int, error)

// RecordValidator validates a name/detail table.
func RecordValidator(raw string) (int, error) {
	res, err := ParseRecords(raw)
	if err != nil {
		return 0, err
	}
	return len(res.Records), nil
}

// CategoryValidator validates an encounter input table.
func CategoryValidator(raw string) (int, error) {
	table, err := ParseCategories(raw)
	if err != nil {
		return 0, err
	}
	return table.Total(), nil
}

// Resolution describes where a table's raw text came from.
type Resolution struct {
	Raw       string
	Source    string
	Kind      SourceKind
	Count     int
	FromCache bool
}

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	// Key is the store key the resolver owns.
	Key   string
	Store KVStore
	// Sources in priority order. Remote sources are also used for
	// background refreshes.
	Sources  []Source
	Validate Validator
	// FallbackSize is the item count of the static fallback. Fetched tables
	// must hold more items than this to be accepted.
	FallbackSize int
	FetchTimeout time.Duration
	// OnRefresh is called after a background refresh replaced the cache.
	OnRefresh func(Resolution)
}

// Resolver acquires raw table text from a chain of sources, caching
// successes.
type Resolver struct {
	opts  ResolverOptions
	group singleflight.Group
	wg    sync.WaitGroup
}

// NewResolver creates a resolver.
func NewResolver(opts ResolverOptions) *Resolver {
	return &Resolver{opts: opts}
}

// Resolve returns the best available table text. A valid cached copy is
// returned immediately while remote sources are refreshed in the
// background; otherwise sources are tried in order and the first usable
// one wins.
func (r *Resolver) Resolve(ctx context.Context) (*Resolution, error) {
	if res := r.fromCache(ctx); res != nil {
		r.refreshInBackground(ctx, res.Raw)
		return res, nil
	}

	for _, src := range r.opts.Sources {
		res, err := r.attempt(ctx, src)
		if err != nil {
			LogWarn("Source %s failed: %v", src.Name(), err)
			continue
		}
		r.store(ctx, res)
		LogInfo("Loaded %d item(s) from %s", res.Count, src.Name())
		return res, nil
	}
	return nil, fmt.Errorf("resolve %s: %w", r.opts.Key, ErrNoUsableSource)
}

// Refresh tries only the remote sources and updates the cache on success.
// Concurrent refreshes of the same key share one attempt.
func (r *Resolver) Refresh(ctx context.Context) (*Resolution, error) {
	v, err, _ := r.group.Do(r.opts.Key, func() (interface{}, error) {
		for _, src := range r.opts.Sources {
			if src.Kind() != SourceRemote {
				continue
			}
			res, err := r.attempt(ctx, src)
			if err != nil {
				LogDebug("Refresh via %s failed: %v", src.Name(), err)
				continue
			}
			r.store(ctx, res)
			return res, nil
		}
		return nil, fmt.Errorf("refresh %s: %w", r.opts.Key, ErrNoUsableSource)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Resolution), nil
}

// Wait blocks until background refreshes finish or ctx is done.
func (r *Resolver) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Clear removes the cached copy.
func (r *Resolver) Clear(ctx context.Context) error {
	if r.opts.Store == nil {
		return nil
	}
	return r.opts.Store.Delete(ctx, r.opts.Key)
}

// ProbeResult reports how one source behaved.
type ProbeResult struct {
	Source string
	Kind   SourceKind
	Bytes  int
	Count  int
	Err    error
}

// Probe tries every source without touching the cache.
func (r *Resolver) Probe(ctx context.Context) []ProbeResult {
	results := make([]ProbeResult, 0, len(r.opts.Sources))
	for _, src := range r.opts.Sources {
		pr := ProbeResult{Source: src.Name(), Kind: src.Kind()}
		res, err := r.attempt(ctx, src)
		if err != nil {
			pr.Err = err
		} else {
			pr.Bytes = len(res.Raw)
			pr.Count = res.Count
		}
		results = append(results, pr)
	}
	return results
}

func (r *Resolver) fromCache(ctx context.Context) *Resolution {
	if r.opts.Store == nil {
		return nil
	}
	raw, ok, err := r.opts.Store.Get(ctx, r.opts.Key)
	if err != nil {
		LogWarn("Cache read failed: %v", err)
		return nil
	}
	if !ok || len(raw) < minCacheBytes {
		return nil
	}
	count, err := r.opts.Validate(raw)
	if err != nil {
		LogWarn("Ignoring cached %s: %v", r.opts.Key, err)
		return nil
	}
	LogDebug("Loaded %d item(s) for %s from cache", count, r.opts.Key)
	return &Resolution{Raw: raw, Source: string(SourceCache), Kind: SourceCache, Count: count, FromCache: true}
}

func (r *Resolver) refreshInBackground(ctx context.Context, cached string) {
	if !r.hasRemote() {
		return
	}
	ctx = context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		res, err := r.Refresh(ctx)
		if err != nil {
			LogDebug("Background refresh of %s failed: %v", r.opts.Key, err)
			return
		}
		if res.Raw != cached && r.opts.OnRefresh != nil {
			r.opts.OnRefresh(*res)
		}
	}()
}

// RefreshBudget is the longest a refresh can take: every remote source
// tried in turn, each for up to the fetch timeout. Zero means unbounded.
func (r *Resolver) RefreshBudget() time.Duration {
	if r.opts.FetchTimeout <= 0 {
		return 0
	}
	return time.Duration(r.remoteCount()) * r.opts.FetchTimeout
}

func (r *Resolver) hasRemote() bool {
	return r.remoteCount() > 0
}

func (r *Resolver) remoteCount() int {
	n := 0
	for _, src := range r.opts.Sources {
		if src.Kind() == SourceRemote {
			n++
		}
	}
	return n
}

// attempt fetches from one source and validates the result.
func (r *Resolver) attempt(ctx context.Context, src Source) (*Resolution, error) {
	if r.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.FetchTimeout)
		defer cancel()
	}

	raw, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	count, err := r.opts.Validate(raw)
	if err != nil {
		return nil, err
	}
	if src.Kind() != SourceFallback && count <= r.opts.FallbackSize {
		return nil, fmt.Errorf("%s: only %d item(s), need more than %d", src.Name(), count, r.opts.FallbackSize)
	}
	return &Resolution{Raw: raw, Source: src.Name(), Kind: src.Kind(), Count: count}, nil
}

func (r *Resolver) store(ctx context.Context, res *Resolution) {
	if r.opts.Store == nil || res.Kind == SourceFallback {
		return
	}
	if err := r.opts.Store.Set(ctx, r.opts.Key, res.Raw); err != nil {
		LogWarn("Cache write failed for %s: %v", r.opts.Key, err)
	}
}
