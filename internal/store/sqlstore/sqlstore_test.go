package sqlstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idilsaglam/todolive/internal/model"
)

func openTest(t *testing.T, dsn string) *Store {
	t.Helper()
	s, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreInsertListUpdate(t *testing.T) {
	ctx := context.Background()
	s := openTest(t, "")

	items, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	a, err := s.Insert(ctx, "A")
	require.NoError(t, err)
	b, err := s.Insert(ctx, "B")
	require.NoError(t, err)
	assert.Less(t, a.ID, b.ID)

	ack, err := s.SetCompleted(ctx, b.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.Completion{ID: b.ID, Completed: true}, ack)

	items, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Item{
		{ID: a.ID, Title: "A"},
		{ID: b.ID, Title: "B", Completed: true},
	}, items)
}

func TestStoreSetCompletedMissing(t *testing.T) {
	s := openTest(t, "")
	_, err := s.SetCompleted(context.Background(), 42, true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorePersistsToFile(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "todos.sqlite")

	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	_, err = s.Insert(ctx, "kept")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s = openTest(t, dsn)
	items, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "kept", items[0].Title)
}
