package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukman83/storefront/internal/api"
	"github.com/lukman83/storefront/internal/kvstore"
	"github.com/lukman83/storefront/internal/logger"
	"github.com/lukman83/storefront/internal/models"
	"github.com/lukman83/storefront/internal/progress"
)

type fakeSource struct {
	name     string
	delay    time.Duration
	release  chan struct{}
	products []models.Product
	err      error
	calls    atomic.Int32
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context) ([]models.Product, error) {
	f.calls.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.products, f.err
}

var (
	remoteProducts  = []models.Product{{ID: "r1", Name: "Remote", PriceCents: 100, Currency: "EUR"}}
	bundledProducts = []models.Product{{ID: "b1", Name: "Bundled", PriceCents: 200, Currency: "EUR"}}
)

func newAdapter() *kvstore.Adapter {
	return kvstore.NewAdapter(kvstore.NewMemory(), kvstore.DefaultPrefix, logger.Discard())
}

func newLoader(remote, bundled Source, store *kvstore.Adapter, grace time.Duration) *Loader {
	return NewLoader(Options{
		Remote:  remote,
		Bundled: bundled,
		Store:   store,
		Grace:   grace,
		Logger:  logger.Discard(),
	})
}

func TestLoad_FallbackBeforeGraceDoesNotWaitForRemote(t *testing.T) {
	remote := &fakeSource{name: SourceRemote, release: make(chan struct{}), products: remoteProducts}
	bundled := &fakeSource{name: SourceBundled, products: bundledProducts}
	l := newLoader(remote, bundled, newAdapter(), 200*time.Millisecond)

	start := time.Now()
	got := l.Load(context.Background())
	assert.Less(t, time.Since(start), 200*time.Millisecond)
	assert.Equal(t, bundledProducts, got)
	assert.Equal(t, SourceBundled, l.Source())

	// The remote answer lands later and replaces the cached fallback.
	close(remote.release)
	assert.Eventually(t, func() bool { return l.Source() == SourceRemote }, time.Second, 5*time.Millisecond)

	assert.Equal(t, remoteProducts, l.Load(context.Background()))
	assert.EqualValues(t, 1, remote.calls.Load())
	assert.EqualValues(t, 1, bundled.calls.Load())
}

func TestLoad_PrefersRemoteAfterGrace(t *testing.T) {
	remote := &fakeSource{name: SourceRemote, delay: 80 * time.Millisecond, products: remoteProducts}
	bundled := &fakeSource{name: SourceBundled, delay: 40 * time.Millisecond, products: bundledProducts}
	l := newLoader(remote, bundled, newAdapter(), 10*time.Millisecond)

	assert.Equal(t, remoteProducts, l.Load(context.Background()))
	assert.Equal(t, SourceRemote, l.Source())
}

func TestLoad_RemoteFailureFallsBack(t *testing.T) {
	remote := &fakeSource{name: SourceRemote, err: api.ErrMalformed}
	bundled := &fakeSource{name: SourceBundled, delay: 30 * time.Millisecond, products: bundledProducts}
	l := newLoader(remote, bundled, newAdapter(), 10*time.Millisecond)

	assert.Equal(t, bundledProducts, l.Load(context.Background()))
}

func TestLoad_NothingSucceedsIsEmptyAndUncached(t *testing.T) {
	remote := &fakeSource{name: SourceRemote, err: errors.New("connection refused")}
	bundled := &fakeSource{name: SourceBundled, err: api.ErrMalformed}
	store := newAdapter()
	l := newLoader(remote, bundled, store, 10*time.Millisecond)

	got := l.Load(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, found := store.GetString(context.Background(), storeKey)
	assert.False(t, found)

	l.Load(context.Background())
	assert.EqualValues(t, 2, remote.calls.Load(), "a failed load must not be cached")
}

func TestLoad_CachesInProcessAndDurably(t *testing.T) {
	ctx := context.Background()
	store := newAdapter()
	remote := &fakeSource{name: SourceRemote, products: remoteProducts}
	bundled := &fakeSource{name: SourceBundled, delay: 50 * time.Millisecond, products: bundledProducts}

	first := newLoader(remote, bundled, store, 20*time.Millisecond)
	assert.Equal(t, remoteProducts, first.Load(ctx))
	assert.Equal(t, remoteProducts, first.Load(ctx))
	assert.EqualValues(t, 1, remote.calls.Load())

	// A second process reads the durable cache and skips the network.
	second := newLoader(remote, bundled, store, 20*time.Millisecond)
	assert.Equal(t, remoteProducts, second.Load(ctx))
	assert.EqualValues(t, 1, remote.calls.Load())
	assert.Equal(t, SourceRemote, second.Source())
}

func TestLoad_StaleDurableCacheIsIgnored(t *testing.T) {
	ctx := context.Background()
	store := newAdapter()
	require.NoError(t, store.WriteJSON(ctx, storeKey, snapshot{
		SavedAt:  time.Now().Add(-time.Hour),
		Source:   SourceRemote,
		Products: bundledProducts,
	}))

	remote := &fakeSource{name: SourceRemote, products: remoteProducts}
	l := NewLoader(Options{Remote: remote, Store: store, TTL: time.Minute, Logger: logger.Discard()})
	assert.Equal(t, remoteProducts, l.Load(ctx))
	assert.EqualValues(t, 1, remote.calls.Load())
}

func TestLoad_MalformedDurableCacheIsReset(t *testing.T) {
	ctx := context.Background()
	store := newAdapter()
	require.NoError(t, store.SetString(ctx, storeKey, "not json"))

	bundled := &fakeSource{name: SourceBundled, products: bundledProducts}
	l := newLoader(nil, bundled, store, 10*time.Millisecond)
	assert.Equal(t, bundledProducts, l.Load(ctx))
}

func TestLoad_ConcurrentCallsShareOneRace(t *testing.T) {
	remote := &fakeSource{name: SourceRemote, delay: 30 * time.Millisecond, products: remoteProducts}
	l := newLoader(remote, nil, nil, 100*time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, remoteProducts, l.Load(context.Background()))
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, remote.calls.Load())
}

func TestLoad_LateBundledNeverReplacesRemote(t *testing.T) {
	remote := &fakeSource{name: SourceRemote, products: remoteProducts}
	bundled := &fakeSource{name: SourceBundled, delay: 60 * time.Millisecond, products: bundledProducts}
	l := newLoader(remote, bundled, nil, 200*time.Millisecond)

	assert.Equal(t, remoteProducts, l.Load(context.Background()))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, SourceRemote, l.Source())
}

func TestLoad_ReportsProgress(t *testing.T) {
	bundled := &fakeSource{name: SourceBundled, products: bundledProducts}
	l := newLoader(nil, bundled, nil, 10*time.Millisecond)

	var msgs []string
	ctx := progress.With(context.Background(), func(msg string) { msgs = append(msgs, msg) })
	l.Load(ctx)
	assert.Equal(t, []string{"catalog: 1 products via bundled"}, msgs)
}

func TestInvalidate(t *testing.T) {
	ctx := context.Background()
	store := newAdapter()
	remote := &fakeSource{name: SourceRemote, products: remoteProducts}
	l := newLoader(remote, nil, store, 10*time.Millisecond)

	l.Load(ctx)
	require.NoError(t, l.Invalidate(ctx))
	assert.Empty(t, l.Source())
	_, found := store.GetString(ctx, storeKey)
	assert.False(t, found)

	l.Load(ctx)
	assert.EqualValues(t, 2, remote.calls.Load())
}

func TestInvalidate_DropsLateResultOfEarlierRace(t *testing.T) {
	ctx := context.Background()
	store := newAdapter()
	remote := &fakeSource{name: SourceRemote, release: make(chan struct{}), products: remoteProducts}
	bundled := &fakeSource{name: SourceBundled, products: bundledProducts}
	l := newLoader(remote, bundled, store, time.Second)

	assert.Equal(t, bundledProducts, l.Load(ctx))
	require.NoError(t, l.Invalidate(ctx))

	close(remote.release)
	time.Sleep(100 * time.Millisecond)

	assert.Empty(t, l.Source(), "late remote result must not refill the cache")
	_, found := store.GetString(ctx, storeKey)
	assert.False(t, found)

	bundled.delay = 50 * time.Millisecond
	assert.Equal(t, remoteProducts, l.Load(ctx), "a new race after invalidation is cached")
	assert.Equal(t, SourceRemote, l.Source())
}

func TestRemoteSource_AgainstService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"products":[{"id":"r1","name":"Remote","priceCents":100,"currency":"EUR","stock":1}]}`))
	}))
	defer server.Close()

	client := api.New(api.Options{
		Base:       staticBase(server.URL),
		HTTPClient: server.Client(),
		Breaker:    api.BreakerConfig{Name: t.Name(), Timeout: time.Minute, MinRequests: 100, FailureRatio: 1},
		Logger:     logger.Discard(),
	})
	bundled := &fakeSource{name: SourceBundled, delay: 100 * time.Millisecond, products: bundledProducts}
	l := newLoader(RemoteSource{Client: client}, bundled, nil, 50*time.Millisecond)

	got := l.Load(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].ID)
}

type staticBase string

func (s staticBase) ResolveBase(context.Context) string { return string(s) }

func TestBundledSource(t *testing.T) {
	fsys := fstest.MapFS{
		"array.json":    {Data: []byte(`[{"id":"a","name":"A","priceCents":1,"currency":"EUR"}]`)},
		"envelope.json": {Data: []byte(`{"ok":true,"products":[{"id":"e","name":"E","priceCents":1,"currency":"EUR"}]}`)},
		"object.json":   {Data: []byte(`{"id":"x"}`)},
		"garbage.json":  {Data: []byte(`<html>`)},
	}
	ctx := context.Background()

	got, err := BundledSource{FS: fsys, Path: "array.json"}.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", got[0].ID)

	got, err = BundledSource{FS: fsys, Path: "envelope.json"}.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, "e", got[0].ID)

	for _, path := range []string{"object.json", "garbage.json"} {
		_, err = BundledSource{FS: fsys, Path: path}.Fetch(ctx)
		assert.ErrorIs(t, err, api.ErrMalformed, path)
	}

	_, err = BundledSource{FS: fsys, Path: "missing.json"}.Fetch(ctx)
	assert.Error(t, err)
}

func TestBundled_Embedded(t *testing.T) {
	products, err := Bundled().Fetch(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, products)

	var bulk int
	for _, p := range products {
		assert.True(t, p.Valid(), p.ID)
		if p.Category == "bulk" {
			bulk++
		}
	}
	assert.Positive(t, bulk)
}
