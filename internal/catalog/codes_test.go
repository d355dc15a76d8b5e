package catalog

import (
	"context"
	"fmt"
	"testing"

	"github.com/arjeninventory/admin-gateway/internal/models"
	"github.com/arjeninventory/admin-gateway/pkg/logger"
)

type fakeBackend struct {
	codes      []string
	checkCalls int
	taken      map[string]bool
}

func (f *fakeBackend) ListProducts(ctx context.Context, token string, page, limit int) (*models.ProductPage, error) {
	start := (page - 1) * limit
	if start > len(f.codes) {
		start = len(f.codes)
	}
	end := start + limit
	if end > len(f.codes) {
		end = len(f.codes)
	}

	products := make([]models.Product, 0, end-start)
	for _, code := range f.codes[start:end] {
		products = append(products, models.Product{ID: code, Code: code})
	}

	return &models.ProductPage{
		Products: products,
		Total:    len(f.codes),
		Page:     page,
		Limit:    limit,
	}, nil
}

func (f *fakeBackend) CheckCode(ctx context.Context, token, code string) (bool, error) {
	f.checkCalls++
	return f.taken[code], nil
}

func manyCodes(n int) []string {
	codes := make([]string, n)
	for i := range codes {
		codes[i] = fmt.Sprintf("CODE-%04d", i)
	}
	return codes
}

func TestIndex_WarmAndCheck(t *testing.T) {
	backend := &fakeBackend{
		codes: manyCodes(250),
		taken: map[string]bool{"CODE-0000": true, "CODE-0249": true},
	}
	idx := NewIndex(backend, logger.New("error"))

	if err := idx.Warm(context.Background(), "tok"); err != nil {
		t.Fatalf("Warm() unexpected error = %v", err)
	}

	// Known code: filter says maybe, backend confirms.
	taken, err := idx.CheckCode(context.Background(), "tok", "CODE-0000")
	if err != nil {
		t.Fatalf("CheckCode() unexpected error = %v", err)
	}
	if !taken {
		t.Error("CODE-0000 should be taken")
	}
	if backend.checkCalls != 1 {
		t.Errorf("checkCalls = %d, want 1 (positive must be confirmed)", backend.checkCalls)
	}

	// Unknown code: definite negative, no backend call.
	backend.checkCalls = 0
	taken, err = idx.CheckCode(context.Background(), "tok", "NEVER-SEEN-CODE")
	if err != nil {
		t.Fatalf("CheckCode() unexpected error = %v", err)
	}
	if taken {
		t.Error("unknown code should be available")
	}
	if backend.checkCalls != 0 {
		t.Errorf("checkCalls = %d, want 0 (definite negative answers locally)", backend.checkCalls)
	}
}

func TestIndex_UnwarmedAlwaysAsksBackend(t *testing.T) {
	backend := &fakeBackend{taken: map[string]bool{"X1": true}}
	idx := NewIndex(backend, logger.New("error"))

	taken, err := idx.CheckCode(context.Background(), "tok", "X1")
	if err != nil {
		t.Fatalf("CheckCode() unexpected error = %v", err)
	}
	if !taken {
		t.Error("X1 should be taken")
	}
	if backend.checkCalls != 1 {
		t.Errorf("checkCalls = %d, want 1", backend.checkCalls)
	}
}

func TestIndex_AddTracksGatewayCreations(t *testing.T) {
	backend := &fakeBackend{codes: manyCodes(10), taken: map[string]bool{"NEW-1": true}}
	idx := NewIndex(backend, logger.New("error"))

	if err := idx.Warm(context.Background(), "tok"); err != nil {
		t.Fatalf("Warm() unexpected error = %v", err)
	}

	idx.Add("NEW-1")

	taken, err := idx.CheckCode(context.Background(), "tok", "NEW-1")
	if err != nil {
		t.Fatalf("CheckCode() unexpected error = %v", err)
	}
	if !taken {
		t.Error("NEW-1 should be taken after Add")
	}
	if backend.checkCalls != 1 {
		t.Errorf("checkCalls = %d, want 1 (maybe must be confirmed)", backend.checkCalls)
	}
}
