package service

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"omnicore-pos/internal/client"
	"omnicore-pos/internal/model"
	"omnicore-pos/internal/repository"
)

type CatalogService interface {
	// Reconcile walks the complete ERP product feed and merges it into the
	// authoritative product table, stocking out anything that vanished.
	// Returns the refreshed list.
	Reconcile(ctx context.Context) ([]*model.Product, error)
}

type catalogServiceImpl struct {
	db            *gorm.DB
	erpClient     client.ErpClient
	productRepo   repository.ProductRepository
	syncStateRepo repository.SyncStateRepository

	// at most one reconciliation pass in flight; concurrent passes could
	// zero products against each other's incomplete observed sets
	mu sync.Mutex
}

func NewCatalogService(
	db *gorm.DB,
	erpClient client.ErpClient,
	productRepo repository.ProductRepository,
	syncStateRepo repository.SyncStateRepository,
) CatalogService {
	return &catalogServiceImpl{
		db:            db,
		erpClient:     erpClient,
		productRepo:   productRepo,
		syncStateRepo: syncStateRepo,
	}
}

func (s *catalogServiceImpl) Reconcile(ctx context.Context) ([]*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.syncStateRepo.CatalogGeneration(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog generation: %w", err)
	}
	generation := current + 1

	// the allocation is persisted before the walk: a failed pass burns its
	// generation, so products it tagged can never collide with a later
	// pass's number and dodge the zero-out
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.syncStateRepo.SetCatalogGeneration(ctx, tx, generation)
	})
	if err != nil {
		return nil, fmt.Errorf("allocate catalog generation: %w", err)
	}

	if err := s.walkFeed(ctx, generation); err != nil {
		// pages already applied stay applied; the zero-out below never
		// runs off an incomplete walk
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// disappearance from the feed is a stock-out, not a deletion:
		// historical order lines keep a valid product reference
		if err := s.productRepo.ZeroStockOlderThan(ctx, tx, generation); err != nil {
			return fmt.Errorf("zero out vanished products: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.productRepo.List(ctx)
}

// walkFeed follows the continuation cursor until exhausted, upserting every
// usable record tagged with this pass's generation.
func (s *catalogServiceImpl) walkFeed(ctx context.Context, generation int64) error {
	url := s.erpClient.ProductsURL()

	for url != "" {
		page, err := s.erpClient.FetchProductPage(ctx, url)
		if err != nil {
			return fmt.Errorf("fetch products from ERP: %w", err)
		}

		for _, rec := range page.Data {
			if rec.ID == "" {
				continue
			}

			if err := s.productRepo.Upsert(ctx, s.db, &model.Product{
				ErpID:              rec.ID,
				Name:               rec.Name,
				SKU:                skuFor(rec),
				Price:              rec.Price,
				StockQuantity:      rec.InventoriesSumQuantity + rec.VariantsInventoriesSumQty,
				LastSeenGeneration: generation,
			}); err != nil {
				return fmt.Errorf("upsert product %s: %w", rec.ID, err)
			}
		}

		url = page.Links.Next
	}

	return nil
}

// skuFor falls back from the explicit sku to the feed code and finally to
// the external id itself, so every mirrored product is addressable.
func skuFor(rec client.ErpProduct) string {
	if rec.SKU != "" {
		return rec.SKU
	}
	if rec.Code != "" {
		return rec.Code
	}
	return rec.ID
}
