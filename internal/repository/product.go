package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"omnicore-pos/internal/model"
)

type ProductRepository interface {
	Upsert(ctx context.Context, tx *gorm.DB, product *model.Product) error
	ZeroStockOlderThan(ctx context.Context, tx *gorm.DB, generation int64) error
	List(ctx context.Context) ([]*model.Product, error)
	FindMany(ctx context.Context, ids []uint) ([]*model.Product, error)
	FindByErpID(ctx context.Context, erpID string) (*model.Product, error)
	Seed(ctx context.Context) error
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

// Upsert writes a product keyed by its external catalog id. Descriptive
// fields, price, stock and the last-seen generation are refreshed on
// conflict; the record itself is never deleted.
func (r *productRepoImpl) Upsert(ctx context.Context, tx *gorm.DB, product *model.Product) error {
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "erp_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "sku", "price", "stock_quantity", "last_seen_generation", "updated_at",
		}),
	}).Create(product).Error
}

// ZeroStockOlderThan stocks out every product not observed by the given
// reconciliation generation. Disappearance from the feed is a stock-out,
// not a deletion.
func (r *productRepoImpl) ZeroStockOlderThan(ctx context.Context, tx *gorm.DB, generation int64) error {
	return tx.WithContext(ctx).Model(&model.Product{}).
		Where("last_seen_generation < ?", generation).
		Update("stock_quantity", 0).Error
}

func (r *productRepoImpl) List(ctx context.Context) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).Order("id").Find(&products).Error
	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) FindMany(ctx context.Context, ids []uint) ([]*model.Product, error) {
	var products []*model.Product
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&products).Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) FindByErpID(ctx context.Context, erpID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("erp_id = ?", erpID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) Seed(ctx context.Context) error {
	products := []model.Product{
		{ErpID: "erp-1001", Name: "Espresso", SKU: "ESP-01", Price: decimal.NewFromFloat(2.50), StockQuantity: 100},
		{ErpID: "erp-1002", Name: "Flat White", SKU: "FLW-01", Price: decimal.NewFromFloat(3.80), StockQuantity: 100},
		{ErpID: "erp-1003", Name: "Croissant", SKU: "CRO-01", Price: decimal.NewFromFloat(2.20), StockQuantity: 40},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
}
