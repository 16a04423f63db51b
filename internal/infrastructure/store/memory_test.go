package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
	Owner string `json:"owner,omitempty"`
}

func TestMemoryStore_InsertAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.Insert(ctx, "things", "t-1", testDoc{ID: "t-1", Name: "monstera", Stock: 5})
	require.NoError(t, err)

	var got testDoc
	require.NoError(t, s.Get(ctx, "things", "t-1", &got))
	assert.Equal(t, "monstera", got.Name)
	assert.Equal(t, 5, got.Stock)
}

func TestMemoryStore_InsertDuplicate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, "things", "t-1", testDoc{ID: "t-1"}))
	err := s.Insert(ctx, "things", "t-1", testDoc{ID: "t-1"})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()

	var got testDoc
	err := s.Get(context.Background(), "things", "nope", &got)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_FindWithFilter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, "things", "t-1", testDoc{ID: "t-1", Owner: "u-1"}))
	require.NoError(t, s.Insert(ctx, "things", "t-2", testDoc{ID: "t-2", Owner: "u-2"}))
	require.NoError(t, s.Insert(ctx, "things", "t-3", testDoc{ID: "t-3", Owner: "u-1"}))

	var got []testDoc
	require.NoError(t, s.Find(ctx, "things", map[string]any{"owner": "u-1"}, &got))
	assert.Len(t, got, 2)

	got = nil
	require.NoError(t, s.Find(ctx, "things", nil, &got))
	assert.Len(t, got, 3)

	got = nil
	require.NoError(t, s.Find(ctx, "things", map[string]any{"owner": "u-9"}, &got))
	assert.Empty(t, got)
}

func TestMemoryStore_Update(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, "things", "t-1", testDoc{ID: "t-1", Name: "fern", Stock: 2}))
	require.NoError(t, s.Update(ctx, "things", "t-1", map[string]any{"name": "bird's nest fern"}))

	var got testDoc
	require.NoError(t, s.Get(ctx, "things", "t-1", &got))
	assert.Equal(t, "bird's nest fern", got.Name)
	assert.Equal(t, 2, got.Stock, "untouched fields survive the update")

	err := s.Update(ctx, "things", "missing", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_IncrementIf(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, "things", "t-1", testDoc{ID: "t-1", Stock: 3}))

	next, err := s.IncrementIf(ctx, "things", "t-1", "stock", -2, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	// Guard fails: only one left, caller wants two.
	_, err = s.IncrementIf(ctx, "things", "t-1", "stock", -2, 2)
	assert.ErrorIs(t, err, ErrConditionFailed)

	var got testDoc
	require.NoError(t, s.Get(ctx, "things", "t-1", &got))
	assert.Equal(t, 1, got.Stock, "failed guard leaves the value untouched")

	_, err = s.IncrementIf(ctx, "things", "missing", "stock", -1, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Increment(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Insert(ctx, "things", "t-1", testDoc{ID: "t-1", Stock: 1}))

	next, err := s.Increment(ctx, "things", "t-1", "stock", 4)
	require.NoError(t, err)
	assert.Equal(t, 5, next)

	_, err = s.Increment(ctx, "things", "missing", "stock", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

// Stock must never go negative no matter how many goroutines race for it: the
// guard and the write are one atomic step.
func TestMemoryStore_ConcurrentConditionalDecrements(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	const initial = 7
	const buyers = 50
	require.NoError(t, s.Insert(ctx, "things", "t-1", testDoc{ID: "t-1", Stock: initial}))

	var wg sync.WaitGroup
	successes := make(chan int, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.IncrementIf(ctx, "things", "t-1", "stock", -1, 1); err == nil {
				successes <- 1
			}
		}()
	}
	wg.Wait()
	close(successes)

	won := 0
	for range successes {
		won++
	}
	assert.Equal(t, initial, won, "exactly the available stock is sold")

	var got testDoc
	require.NoError(t, s.Get(ctx, "things", "t-1", &got))
	assert.Equal(t, 0, got.Stock)
	assert.GreaterOrEqual(t, got.Stock, 0)
}
