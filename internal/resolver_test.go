package internal

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/iksnae/tropedeck/testutil"
)

type fakeSource struct {
	name  string
	kind  SourceKind
	text  string
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (f *fakeSource) Name() string     { return f.name }
func (f *fakeSource) Kind() SourceKind { return f.kind }

func (f *fakeSource) Fetch(ctx context.Context) (string, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

func newTestResolver(store KVStore, sources ...Source) *Resolver {
	return NewResolver(ResolverOptions{
		Key:          KeyTropesTable,
		Store:        store,
		Sources:      sources,
		Validate:     RecordValidator,
		FallbackSize: 3,
		FetchTimeout: 2 * time.Second,
	})
}

func TestResolver_Chain(t *testing.T) {
	good := testutil.TropesCSV(10)
	degenerate := testutil.TropesCSV(3)
	fallback := testutil.TropesCSV(3)
	boom := errors.New("network down")

	tests := []struct {
		name       string
		sources    func() []Source
		wantSource string
		wantCount  int
		wantCached bool
	}{
		{
			name: "first remote wins",
			sources: func() []Source {
				return []Source{
					&fakeSource{name: "direct", kind: SourceRemote, text: good},
					&fakeSource{name: "bundled", kind: SourceBundled, text: testutil.TropesCSV(5)},
				}
			},
			wantSource: "direct",
			wantCount:  10,
			wantCached: true,
		},
		{
			name: "failing remote falls through to mirror",
			sources: func() []Source {
				return []Source{
					&fakeSource{name: "direct", kind: SourceRemote, err: boom},
					&fakeSource{name: "mirror", kind: SourceRemote, text: good},
				}
			},
			wantSource: "mirror",
			wantCount:  10,
			wantCached: true,
		},
		{
			name: "unparsable and degenerate tables are skipped",
			sources: func() []Source {
				return []Source{
					&fakeSource{name: "html", kind: SourceRemote, text: "<html>rate limited</html>"},
					&fakeSource{name: "tiny", kind: SourceRemote, text: degenerate},
					&fakeSource{name: "bundled", kind: SourceBundled, text: good},
				}
			},
			wantSource: "bundled",
			wantCount:  10,
			wantCached: true,
		},
		{
			name: "static fallback is accepted but not cached",
			sources: func() []Source {
				return []Source{
					&fakeSource{name: "direct", kind: SourceRemote, err: boom},
					&fakeSource{name: "bundled", kind: SourceBundled, err: boom},
					&StaticSource{Label: "fallback", Text: fallback},
				}
			},
			wantSource: "fallback",
			wantCount:  3,
			wantCached: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := NewMemoryStore()
			r := newTestResolver(store, tt.sources()...)

			res, err := r.Resolve(ctx)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if res.Source != tt.wantSource || res.Count != tt.wantCount || res.FromCache {
				t.Errorf("Resolve() = source %q count %d fromCache %v; want %q %d", res.Source, res.Count, res.FromCache, tt.wantSource, tt.wantCount)
			}
			cached, ok, _ := store.Get(ctx, KeyTropesTable)
			if ok != tt.wantCached {
				t.Errorf("cached = %v, want %v", ok, tt.wantCached)
			}
			if ok && cached != res.Raw {
				t.Error("cache holds different text than the resolution")
			}
		})
	}
}

func TestResolver_NoUsableSource(t *testing.T) {
	r := newTestResolver(NewMemoryStore(), &fakeSource{name: "direct", kind: SourceRemote, err: errors.New("down")})
	_, err := r.Resolve(context.Background())
	if !errors.Is(err, ErrNoUsableSource) {
		t.Errorf("Resolve() error = %v, want ErrNoUsableSource", err)
	}
}

func TestResolver_CacheHitDoesNotBlockOnNetwork(t *testing.T) {
	ctx := context.Background()
	cached := testutil.TropesCSV(12)
	store := NewMemoryStore()
	_ = store.Set(ctx, KeyTropesTable, cached)

	release := make(chan struct{})
	srv := testutil.NewHandlerServer(t, func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	r := newTestResolver(store, NewHTTPSource("direct", srv.URL, srv.Client()))

	start := time.Now()
	res, err := r.Resolve(ctx)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Resolve() took %v, should not wait for the network", elapsed)
	}
	if !res.FromCache || res.Raw != cached || res.Count != 12 {
		t.Errorf("Resolve() = %+v, want cached table", res)
	}

	close(release)
	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.Wait(waitCtx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if got, _, _ := store.Get(ctx, KeyTropesTable); got != cached {
		t.Error("failed background refresh must leave the cache untouched")
	}
	if srv.Hits() != 1 {
		t.Errorf("remote hits = %d, want 1 background attempt", srv.Hits())
	}
}

func TestResolver_BackgroundRefreshReplacesCache(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Set(ctx, KeyTropesTable, testutil.TropesCSV(5))
	fresh := testutil.TropesCSV(9)

	var mu sync.Mutex
	var refreshed []Resolution
	r := NewResolver(ResolverOptions{
		Key:          KeyTropesTable,
		Store:        store,
		Sources:      []Source{&fakeSource{name: "direct", kind: SourceRemote, text: fresh}},
		Validate:     RecordValidator,
		FallbackSize: 3,
		OnRefresh: func(res Resolution) {
			mu.Lock()
			defer mu.Unlock()
			refreshed = append(refreshed, res)
		},
	})

	res, err := r.Resolve(ctx)
	if err != nil || !res.FromCache || res.Count != 5 {
		t.Fatalf("Resolve() = %+v, %v; want the cached table", res, err)
	}
	if err := r.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if got, _, _ := store.Get(ctx, KeyTropesTable); got != fresh {
		t.Error("background refresh should replace the cache")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(refreshed) != 1 || refreshed[0].Count != 9 {
		t.Errorf("OnRefresh calls = %+v, want one with 9 items", refreshed)
	}
}

func TestResolver_IgnoresUnusableCache(t *testing.T) {
	tests := []struct {
		name   string
		cached string
	}{
		{"too short", "#,Trope name,Trope detail\n1,A,B\n"},
		{"not a table", strings.Repeat("<html>", 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := NewMemoryStore()
			_ = store.Set(ctx, KeyTropesTable, tt.cached)
			r := newTestResolver(store, &fakeSource{name: "bundled", kind: SourceBundled, text: testutil.TropesCSV(6)})

			res, err := r.Resolve(ctx)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if res.FromCache || res.Source != "bundled" {
				t.Errorf("Resolve() = %+v, want bundled", res)
			}
		})
	}
}

func TestResolver_RefreshIsCollapsed(t *testing.T) {
	src := &fakeSource{name: "direct", kind: SourceRemote, text: testutil.TropesCSV(8), delay: 200 * time.Millisecond}
	r := newTestResolver(NewMemoryStore(), src, &fakeSource{name: "bundled", kind: SourceBundled, text: testutil.TropesCSV(6)})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Refresh(context.Background()); err != nil {
				t.Errorf("Refresh() error = %v", err)
			}
		}()
	}
	wg.Wait()
	if n := src.calls.Load(); n != 1 {
		t.Errorf("remote fetched %d times, want 1", n)
	}
}

func TestResolver_RefreshSkipsLocalSources(t *testing.T) {
	bundled := &fakeSource{name: "bundled", kind: SourceBundled, text: testutil.TropesCSV(6)}
	r := newTestResolver(NewMemoryStore(), bundled)
	if _, err := r.Refresh(context.Background()); !errors.Is(err, ErrNoUsableSource) {
		t.Errorf("Refresh() error = %v, want ErrNoUsableSource", err)
	}
	if bundled.calls.Load() != 0 {
		t.Error("Refresh() must not read bundled sources")
	}
}

func TestResolver_FetchTimeout(t *testing.T) {
	slow := &fakeSource{name: "slow", kind: SourceRemote, text: testutil.TropesCSV(8), delay: time.Minute}
	r := NewResolver(ResolverOptions{
		Key:          KeyTropesTable,
		Sources:      []Source{slow, &StaticSource{Label: "fallback", Text: FallbackTropesCSV()}},
		Validate:     RecordValidator,
		FallbackSize: len(FallbackTropes),
		FetchTimeout: 50 * time.Millisecond,
	})
	res, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Kind != SourceFallback {
		t.Errorf("Resolve() kind = %s, want fallback after timeout", res.Kind)
	}
}

func TestResolver_RefreshBudget(t *testing.T) {
	remote := func(name string) Source { return &fakeSource{name: name, kind: SourceRemote} }
	static := &StaticSource{Label: "fallback", Text: FallbackTropesCSV()}
	tests := []struct {
		name    string
		timeout time.Duration
		sources []Source
		want    time.Duration
	}{
		{"one timeout per remote source", 2 * time.Second, []Source{remote("a"), remote("b"), remote("c"), remote("d"), static}, 8 * time.Second},
		{"no remote sources", 2 * time.Second, []Source{static}, 0},
		{"no timeout", 0, []Source{remote("a")}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(ResolverOptions{Key: KeyTropesTable, Sources: tt.sources, Validate: RecordValidator, FetchTimeout: tt.timeout})
			if got := r.RefreshBudget(); got != tt.want {
				t.Errorf("RefreshBudget() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestResolver_ProbeAndClear(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r := newTestResolver(store,
		&fakeSource{name: "direct", kind: SourceRemote, err: errors.New("down")},
		&BundledSource{Label: "bundled", FS: fstest.MapFS{"t.csv": {Data: []byte(testutil.TropesCSV(7))}}, Path: "t.csv"},
		&BundledSource{Label: "missing", FS: fstest.MapFS{}, Path: "nope.csv"},
	)

	results := r.Probe(ctx)
	if len(results) != 3 {
		t.Fatalf("Probe() returned %d results", len(results))
	}
	if results[0].Err == nil || results[1].Err != nil || results[2].Err == nil {
		t.Errorf("Probe() errors = %v, %v, %v", results[0].Err, results[1].Err, results[2].Err)
	}
	if results[1].Count != 7 || results[1].Bytes == 0 {
		t.Errorf("Probe() bundled = %+v", results[1])
	}
	if _, ok, _ := store.Get(ctx, KeyTropesTable); ok {
		t.Error("Probe() must not write the cache")
	}

	if _, err := r.Resolve(ctx); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if err := r.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, ok, _ := store.Get(ctx, KeyTropesTable); ok {
		t.Error("Clear() should remove the cached table")
	}
}

func TestResolver_EncounterTable(t *testing.T) {
	cfg := &Config{Offline: true, FetchTimeout: time.Second}
	r := NewEncounterResolver(cfg, NewMemoryStore(), nil, nil)
	table, res, err := LoadCategories(context.Background(), r)
	if err != nil {
		t.Fatalf("LoadCategories() error = %v", err)
	}
	if res.Kind != SourceBundled {
		t.Errorf("offline encounter table came from %s, want bundled", res.Kind)
	}
	for _, k := range CategoryKeys {
		if table.Len(k) == 0 {
			t.Errorf("bundled encounter table has no %s values", k)
		}
	}
}

func TestResolver_TropesOfflineUsesBundled(t *testing.T) {
	cfg := &Config{Offline: true}
	pool, res, err := LoadTropes(context.Background(), NewTropesResolver(cfg, NewMemoryStore(), nil, nil))
	if err != nil {
		t.Fatalf("LoadTropes() error = %v", err)
	}
	if res.Kind != SourceBundled || len(pool) <= len(FallbackTropes) {
		t.Errorf("LoadTropes() = %d records from %s", len(pool), res.Kind)
	}
}

func TestFallbackTables(t *testing.T) {
	n, err := RecordValidator(FallbackTropesCSV())
	if err != nil || n != len(FallbackTropes) {
		t.Errorf("fallback tropes validate to %d, %v", n, err)
	}
	n, err = CategoryValidator(FallbackEncounterCSV())
	if err != nil || n != FallbackEncounterSize() {
		t.Errorf("fallback encounter table validates to %d, %v", n, err)
	}
}
