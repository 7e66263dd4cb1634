package threads

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"karmafeed/internal/models"
)

type fakeFetcher struct {
	mu     sync.Mutex
	calls  int
	forest []models.Comment
	err    error
}

func (f *fakeFetcher) Comments(ctx context.Context, postID string) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.forest, nil
}

func (f *fakeFetcher) set(forest []models.Comment, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forest, f.err = forest, err
}

func comment(id string, replies ...models.Comment) models.Comment {
	if replies == nil {
		replies = []models.Comment{}
	}
	return models.Comment{ID: id, PostID: "1", Replies: replies}
}

func newStore(t *testing.T, f Fetcher) *Store {
	t.Helper()
	s, err := NewStore(f, 10, time.Minute)
	require.NoError(t, err)
	return s
}

func TestLoadReplacesCachedForest(t *testing.T) {
	f := &fakeFetcher{forest: []models.Comment{comment("1"), comment("2")}}
	s := newStore(t, f)
	ctx := context.Background()

	forest, err := s.Load(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, forest, 2)

	f.set([]models.Comment{comment("1", comment("3"))}, nil)
	forest, err = s.AfterMutation(ctx, "1")
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Equal(t, 2, models.Count(forest))

	cached, ok := s.Get("1")
	require.True(t, ok)
	assert.Equal(t, forest, cached)
}

func TestFailedFetchKeepsPreviousForest(t *testing.T) {
	f := &fakeFetcher{forest: []models.Comment{comment("1")}}
	s := newStore(t, f)
	ctx := context.Background()

	_, err := s.Load(ctx, "1")
	require.NoError(t, err)

	boom := errors.New("boom")
	f.set(nil, boom)
	_, err = s.AfterMutation(ctx, "1")
	assert.ErrorIs(t, err, boom)

	cached, ok := s.Get("1")
	require.True(t, ok)
	assert.Len(t, cached, 1)
}

func TestRepeatedLoadsAreNotDeduplicated(t *testing.T) {
	f := &fakeFetcher{forest: []models.Comment{}}
	s := newStore(t, f)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Load(ctx, "1")
		require.NoError(t, err)
	}
	assert.Equal(t, 3, f.calls)
}

func TestEmptyThreadIsNonNil(t *testing.T) {
	s := newStore(t, &fakeFetcher{})
	forest, err := s.Load(context.Background(), "9")
	require.NoError(t, err)
	assert.NotNil(t, forest)
	assert.Empty(t, forest)
}

func TestForget(t *testing.T) {
	s := newStore(t, &fakeFetcher{forest: []models.Comment{comment("1")}})
	_, err := s.Load(context.Background(), "1")
	require.NoError(t, err)

	s.Forget("1")
	_, ok := s.Get("1")
	assert.False(t, ok)
}
