package kvstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukman83/storefront/internal/logger"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	ldb, err := OpenLevelDB(filepath.Join(t.TempDir(), "state"))
	require.NoError(t, err)
	t.Cleanup(func() { ldb.Close() })

	return map[string]Store{
		"memory":  NewMemory(),
		"leveldb": ldb,
		"redis":   NewRedis(client),
	}
}

// ---------------------------------------------------------------------------
// Store contract
// ---------------------------------------------------------------------------

func TestStore_Contract(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(ctx, "k", "v1"))
			v, err := store.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v1", v)

			require.NoError(t, store.Set(ctx, "k", "v2"))
			v, err = store.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v2", v)

			require.NoError(t, store.Remove(ctx, "k"))
			_, err = store.Get(ctx, "k")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.NoError(t, store.Remove(ctx, "never-set"))
		})
	}
}

func TestLevelDB_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "state")

	db, err := OpenLevelDB(dir)
	require.NoError(t, err)
	require.NoError(t, db.Set(ctx, "storefront:currency", "USD"))
	require.NoError(t, db.Close())

	db, err = OpenLevelDB(dir)
	require.NoError(t, err)
	defer db.Close()

	v, err := db.Get(ctx, "storefront:currency")
	require.NoError(t, err)
	assert.Equal(t, "USD", v)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, Options{Backend: BackendLevelDB, Path: filepath.Join(t.TempDir(), "db")})
	require.NoError(t, err)
	assert.IsType(t, &LevelDB{}, s)
	require.NoError(t, s.Close())

	mr := miniredis.RunT(t)
	s, err = Open(ctx, Options{Backend: BackendRedis, RedisAddr: mr.Addr()})
	require.NoError(t, err)
	assert.IsType(t, &Redis{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Options{Backend: "etcd"})
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Adapter
// ---------------------------------------------------------------------------

func TestAdapter_PrefixesKeys(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	a := NewAdapter(mem, DefaultPrefix, logger.Discard())

	require.NoError(t, a.SetString(ctx, "currency", "EUR"))

	raw, err := mem.Get(ctx, "storefront:currency")
	require.NoError(t, err)
	assert.Equal(t, "EUR", raw)

	v, ok := a.GetString(ctx, "currency")
	assert.True(t, ok)
	assert.Equal(t, "EUR", v)

	require.NoError(t, a.Remove(ctx, "currency"))
	_, ok = a.GetString(ctx, "currency")
	assert.False(t, ok)
}

func TestAdapter_JSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(NewMemory(), DefaultPrefix, logger.Discard())

	require.NoError(t, a.WriteJSON(ctx, "favorites", []string{"a", "b"}))

	var got []string
	require.True(t, a.ReadJSON(ctx, "favorites", &got))
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestAdapter_MalformedValueIsResetNotSurfaced(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	a := NewAdapter(mem, DefaultPrefix, logger.Discard())
	require.NoError(t, mem.Set(ctx, "storefront:cart", "not-json-at-all"))

	var items []map[string]any
	assert.False(t, a.ReadJSON(ctx, "cart", &items))
	assert.Empty(t, items)

	_, err := mem.Get(ctx, "storefront:cart")
	assert.ErrorIs(t, err, ErrNotFound, "malformed value must be removed")
}

func TestAdapter_MissingValue(t *testing.T) {
	a := NewAdapter(NewMemory(), DefaultPrefix, nil)
	var v []string
	assert.False(t, a.ReadJSON(context.Background(), "nothing", &v))
}
