package db

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shawgichan/lucid/internal/models"
)

func TestMemoryStore_UserLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	created, err := s.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)
	assert.Equal(t, "alice", created.Username)
	assert.NotEqual(t, uuid.Nil, created.ID)

	_, err = s.CreateUser(ctx, "alice", "other")
	assert.ErrorIs(t, err, ErrUserExists)

	got, err := s.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	_, err = s.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Credential(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)

	key, err := s.GetCredential(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, key)

	require.NoError(t, s.StoreCredential(ctx, "alice", "k1"))
	require.NoError(t, s.StoreCredential(ctx, "alice", "k2"))

	key, err = s.GetCredential(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "k2", key)

	assert.ErrorIs(t, s.StoreCredential(ctx, "nobody", "k"), ErrNotFound)
}

func TestMemoryStore_HistoryKeepsCallOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, q := range []string{"a", "b", "c"} {
		require.NoError(t, s.AppendHistory(ctx, "alice", q, base.Add(time.Duration(i)*time.Minute)))
	}

	history, err := s.GetHistory(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "a", history[0].Query)
	assert.Equal(t, "c", history[2].Query)
	assert.Equal(t, base.Add(2*time.Minute), history[2].SearchedAt)

	empty, err := s.GetHistory(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.ErrorIs(t, s.AppendHistory(ctx, "nobody", "q", base), ErrNotFound)
}

func TestMemoryStore_FreeSearchCounter(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)

	count, err := s.GetFreeSearchCount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = s.IncrementFreeSearch(ctx, "alice", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = s.IncrementFreeSearch(ctx, "alice", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = s.IncrementFreeSearch(ctx, "alice", 2)
	assert.ErrorIs(t, err, ErrLimitReached)

	count, err = s.GetFreeSearchCount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = s.IncrementFreeSearch(ctx, "nobody", 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_FreeSearchCounterConcurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var granted atomic.Int32
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.IncrementFreeSearch(ctx, "alice", 2); err == nil {
				granted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 2, granted.Load())
	count, err := s.GetFreeSearchCount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMemoryStore_BookmarksAreAMultiset(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.CreateUser(ctx, "alice", "hash")
	require.NoError(t, err)

	b := models.Bookmark{PaperID: "p1", Title: "Attention", Abstract: "abs", CreatedAt: time.Now()}
	require.NoError(t, s.AddBookmark(ctx, "alice", b))
	require.NoError(t, s.AddBookmark(ctx, "alice", b))

	bookmarks, err := s.GetBookmarks(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, bookmarks, 2)
	assert.Equal(t, bookmarks[0], bookmarks[1])

	// The returned slice is a copy.
	bookmarks[0].Title = "changed"
	again, err := s.GetBookmarks(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Attention", again[0].Title)
}
