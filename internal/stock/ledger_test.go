package stock

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/plantshop/internal/domain"
	"github.com/example/plantshop/internal/infrastructure/store"
)

func newTestLedger(t *testing.T) (*Ledger, *store.MemoryStore) {
	t.Helper()
	s := store.NewMemoryStore()
	return NewLedger(s), s
}

func seedProduct(t *testing.T, s *store.MemoryStore, id string, stock int) {
	t.Helper()
	err := s.Insert(context.Background(), store.CollectionProducts, id, domain.Product{
		ID:    id,
		Title: "Monstera Deliciosa",
		Slug:  "monstera-deliciosa",
		Price: 1200,
		Stock: stock,
	})
	require.NoError(t, err)
}

func productStock(t *testing.T, s *store.MemoryStore, id string) int {
	t.Helper()
	var p domain.Product
	require.NoError(t, s.Get(context.Background(), store.CollectionProducts, id, &p))
	return p.Stock
}

func TestLedger_Decrement(t *testing.T) {
	ledger, s := newTestLedger(t)
	seedProduct(t, s, "prod-1", 10)

	next, err := ledger.Decrement(context.Background(), "prod-1", 3)
	require.NoError(t, err)
	assert.Equal(t, 7, next)
	assert.Equal(t, 7, productStock(t, s, "prod-1"))
}

func TestLedger_Decrement_ExactStock(t *testing.T) {
	ledger, s := newTestLedger(t)
	seedProduct(t, s, "prod-1", 4)

	next, err := ledger.Decrement(context.Background(), "prod-1", 4)
	require.NoError(t, err)
	assert.Equal(t, 0, next)
}

func TestLedger_Decrement_Insufficient(t *testing.T) {
	ledger, s := newTestLedger(t)
	seedProduct(t, s, "prod-1", 2)

	_, err := ledger.Decrement(context.Background(), "prod-1", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 2, productStock(t, s, "prod-1"), "failed decrement changes nothing")
}

func TestLedger_Decrement_ZeroStock(t *testing.T) {
	ledger, s := newTestLedger(t)
	seedProduct(t, s, "prod-1", 0)

	_, err := ledger.Decrement(context.Background(), "prod-1", 1)
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

func TestLedger_Decrement_UnknownProduct(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.Decrement(context.Background(), "ghost", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestLedger_Decrement_InvalidQuantity(t *testing.T) {
	ledger, s := newTestLedger(t)
	seedProduct(t, s, "prod-1", 5)

	for _, qty := range []int{0, -1} {
		_, err := ledger.Decrement(context.Background(), "prod-1", qty)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
	assert.Equal(t, 5, productStock(t, s, "prod-1"))
}

func TestLedger_Restore(t *testing.T) {
	ledger, s := newTestLedger(t)
	seedProduct(t, s, "prod-1", 5)

	_, err := ledger.Decrement(context.Background(), "prod-1", 5)
	require.NoError(t, err)

	next, err := ledger.Restore(context.Background(), "prod-1", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, next)
	assert.Equal(t, 5, productStock(t, s, "prod-1"), "round trip returns stock to original")
}

func TestLedger_Restore_UnknownProduct(t *testing.T) {
	ledger, _ := newTestLedger(t)

	_, err := ledger.Restore(context.Background(), "ghost", 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

// With stock K and N>K concurrent single-unit buyers, exactly K decrements
// succeed and the rest get ErrInsufficientStock. Stock never goes negative.
func TestLedger_ConcurrentBuyers(t *testing.T) {
	ledger, s := newTestLedger(t)

	const k = 5
	const n = 40
	seedProduct(t, s, "prod-1", k)

	var wg sync.WaitGroup
	results := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Decrement(context.Background(), "prod-1", 1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, rejected int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		default:
			require.ErrorIs(t, err, ErrInsufficientStock)
			rejected++
		}
	}

	assert.Equal(t, k, succeeded)
	assert.Equal(t, n-k, rejected)
	assert.Equal(t, 0, productStock(t, s, "prod-1"))
}
