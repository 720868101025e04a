package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/toplivedeals/toplivedeals/internal/docstore"
)

// Service covers the admin catalog operations. Writes go straight to the
// store; the live feed picks them up through its subscription.
type Service struct {
	store      docstore.Store
	collection string
}

// NewService constructs a Service over the given collection.
func NewService(store docstore.Store, collection string) *Service {
	return &Service{store: store, collection: collection}
}

// List returns every product, inactive ones included, newest first.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	docs, err := s.store.List(ctx, s.collection)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	products := NormalizeSnapshot(docs)
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].RecencyKey() > products[j].RecencyKey()
	})
	return products, nil
}

// Create stores a new product and returns the store-assigned id.
func (s *Service) Create(ctx context.Context, req CreateProductRequest) (string, error) {
	id, err := s.store.Create(ctx, s.collection, req.document())
	if err != nil {
		return "", fmt.Errorf("create product: %w", err)
	}
	return id, nil
}

// Update merges the set fields over the stored product.
func (s *Service) Update(ctx context.Context, id string, req UpdateProductRequest) error {
	patch := req.patch()
	if len(patch) == 0 {
		return nil
	}
	if err := s.store.Update(ctx, s.collection, id, patch); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return err
		}
		return fmt.Errorf("update product %s: %w", id, err)
	}
	return nil
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, s.collection, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete product %s: %w", id, err)
	}
	return nil
}
