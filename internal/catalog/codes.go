// Package catalog keeps a probabilistic index of product codes already in
// use, so code-availability checks can answer definite negatives without
// a backend round trip.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/arjeninventory/admin-gateway/internal/models"
)

const falsePositiveRate = 0.01

// Backend is the slice of the products backend the index needs.
type Backend interface {
	ListProducts(ctx context.Context, token string, page, limit int) (*models.ProductPage, error)
	CheckCode(ctx context.Context, token, code string) (bool, error)
}

// Index answers "is this product code taken". A bloom filter over known
// codes short-circuits definite negatives; positives are confirmed
// against the backend because the filter may report false positives.
type Index struct {
	backend Backend
	log     *slog.Logger

	mu     sync.RWMutex
	filter *bloom.BloomFilter
	warmed bool
}

// NewIndex creates an unwarmed index. Until Warm succeeds every check
// falls through to the backend.
func NewIndex(backend Backend, log *slog.Logger) *Index {
	return &Index{
		backend: backend,
		log:     log,
	}
}

// Warm loads every existing product code from the backend. Codes created
// outside the gateway after warmup are only caught by the backend
// confirmation path.
func (idx *Index) Warm(ctx context.Context, token string) error {
	const pageSize = 100

	first, err := idx.backend.ListProducts(ctx, token, 1, pageSize)
	if err != nil {
		return fmt.Errorf("load first product page: %w", err)
	}

	capacity := uint(first.Total * 2)
	if capacity < 1000 {
		capacity = 1000
	}
	filter := bloom.NewWithEstimates(capacity, falsePositiveRate)

	addCodes := func(products []models.Product) {
		for _, p := range products {
			if p.Code != "" {
				filter.AddString(p.Code)
			}
		}
	}
	addCodes(first.Products)

	loaded := len(first.Products)
	for page := 2; loaded < first.Total && len(first.Products) > 0; page++ {
		next, err := idx.backend.ListProducts(ctx, token, page, pageSize)
		if err != nil {
			return fmt.Errorf("load product page %d: %w", page, err)
		}
		if len(next.Products) == 0 {
			break
		}
		addCodes(next.Products)
		loaded += len(next.Products)
	}

	idx.mu.Lock()
	idx.filter = filter
	idx.warmed = true
	idx.mu.Unlock()

	idx.log.Info("product code index warmed", "codes_loaded", loaded)
	return nil
}

// Add records a code created through the gateway.
func (idx *Index) Add(code string) {
	if code == "" {
		return
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.filter != nil {
		idx.filter.AddString(code)
	}
}

// CheckCode reports whether the code is taken. Definite negatives from
// the filter are answered locally; everything else asks the backend.
func (idx *Index) CheckCode(ctx context.Context, token, code string) (bool, error) {
	idx.mu.RLock()
	warmed := idx.warmed
	maybe := warmed && idx.filter.TestString(code)
	idx.mu.RUnlock()

	if warmed && !maybe {
		return false, nil
	}

	taken, err := idx.backend.CheckCode(ctx, token, code)
	if err != nil {
		return false, err
	}

	if taken {
		idx.Add(code)
	}

	return taken, nil
}
