package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"omnicore-pos/internal/model"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	FindByUUID(ctx context.Context, uuid string) (*model.Order, error)
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	MarkSentToGateway(ctx context.Context, tx *gorm.DB, orderID uint) error
	MarkFailed(ctx context.Context, tx *gorm.DB, orderID uint, diagnostic string) error
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *orderRepoImpl) FindByUUID(ctx context.Context, uuid string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("uuid = ?", uuid).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, id).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

// MarkSentToGateway records a successful forward. The synced timestamp is
// set here and only here; status transitions are server-owned.
func (r *orderRepoImpl) MarkSentToGateway(ctx context.Context, tx *gorm.DB, orderID uint) error {
	now := time.Now()
	return tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"status":    model.OrderStatusSentToGateway,
			"synced_at": now,
		}).Error
}

func (r *orderRepoImpl) MarkFailed(ctx context.Context, tx *gorm.DB, orderID uint, diagnostic string) error {
	return tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"status":             model.OrderStatusFailed,
			"last_forward_error": diagnostic,
		}).Error
}
