package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"omnicore-pos/internal/model"
)

type SyncStateRepository interface {
	CatalogGeneration(ctx context.Context) (int64, error)
	SetCatalogGeneration(ctx context.Context, tx *gorm.DB, generation int64) error
}

type syncStateRepoImpl struct {
	db *gorm.DB
}

func NewSyncStateRepository(db *gorm.DB) SyncStateRepository {
	return &syncStateRepoImpl{db: db}
}

func (r *syncStateRepoImpl) CatalogGeneration(ctx context.Context) (int64, error) {
	var state model.SyncState
	err := r.db.WithContext(ctx).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return state.CatalogGeneration, nil
}

// SetCatalogGeneration records the allocation of a pass's generation. It
// runs before the feed walk, so a pass that fails mid-walk still consumes
// its number and generations are never reused.
func (r *syncStateRepoImpl) SetCatalogGeneration(ctx context.Context, tx *gorm.DB, generation int64) error {
	var state model.SyncState
	err := tx.WithContext(ctx).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.WithContext(ctx).Create(&model.SyncState{CatalogGeneration: generation}).Error
	}
	if err != nil {
		return err
	}

	return tx.WithContext(ctx).Model(&state).Update("catalog_generation", generation).Error
}
