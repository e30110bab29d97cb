package favorites

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukman83/storefront/internal/apperrors"
	"github.com/lukman83/storefront/internal/kvstore"
	"github.com/lukman83/storefront/internal/logger"
)

func newFavorites() (*Store, *kvstore.Adapter) {
	store := kvstore.NewAdapter(kvstore.NewMemory(), kvstore.DefaultPrefix, logger.Discard())
	return New(store, logger.Discard()), store
}

func TestToggle_TwiceRestores(t *testing.T) {
	f, _ := newFavorites()
	ctx := context.Background()

	_, err := f.Toggle(ctx, "pen")
	require.NoError(t, err)
	before := f.List(ctx)

	ids, err := f.Toggle(ctx, "tape")
	require.NoError(t, err)
	assert.Equal(t, []string{"pen", "tape"}, ids)
	assert.True(t, f.Has(ctx, "tape"))

	ids, err = f.Toggle(ctx, "tape")
	require.NoError(t, err)
	assert.Equal(t, before, ids)
	assert.False(t, f.Has(ctx, "tape"))
}

func TestToggle_Notifies(t *testing.T) {
	f, _ := newFavorites()
	ctx := context.Background()

	var events []Changed
	f.Subscribe(func(ev Changed) { events = append(events, ev) })

	_, _ = f.Toggle(ctx, "pen")
	_, _ = f.Toggle(ctx, "pen")

	require.Len(t, events, 2)
	assert.Equal(t, []string{"pen"}, events[0].IDs)
	assert.Empty(t, events[1].IDs)
}

func TestToggle_EmptyID(t *testing.T) {
	f, _ := newFavorites()
	_, err := f.Toggle(context.Background(), "  ")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestList_DeduplicatesAndSurvivesMalformedData(t *testing.T) {
	f, store := newFavorites()
	ctx := context.Background()

	require.NoError(t, store.SetString(ctx, storeKey, `["a","b","a",""]`))
	assert.Equal(t, []string{"a", "b"}, f.List(ctx))

	require.NoError(t, store.SetString(ctx, storeKey, `{"a":true}`))
	assert.Equal(t, []string{}, f.List(ctx))
}
