package repository

import (
	"context"

	"gorm.io/gorm"

	"omnicore-pos/internal/model"
)

type OutboxRepository interface {
	Enqueue(ctx context.Context, tx *gorm.DB, orderID uint) error
	NextPending(ctx context.Context, limit int) ([]*model.OutboxEntry, error)
	MarkDone(ctx context.Context, entryID uint) error
	RecordAttempt(ctx context.Context, entryID uint) error
}

type outboxRepoImpl struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepoImpl{db: db}
}

// Enqueue records the intent to forward an order. The unique index on
// order_id guarantees at most one entry per order.
func (r *outboxRepoImpl) Enqueue(ctx context.Context, tx *gorm.DB, orderID uint) error {
	return tx.WithContext(ctx).Create(&model.OutboxEntry{
		OrderID: orderID,
		Status:  model.OutboxStatusPending,
	}).Error
}

func (r *outboxRepoImpl) NextPending(ctx context.Context, limit int) ([]*model.OutboxEntry, error) {
	var entries []*model.OutboxEntry
	err := r.db.WithContext(ctx).
		Where("status = ?", model.OutboxStatusPending).
		Order("id").
		Limit(limit).
		Find(&entries).Error

	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *outboxRepoImpl) MarkDone(ctx context.Context, entryID uint) error {
	return r.db.WithContext(ctx).Model(&model.OutboxEntry{}).
		Where("id = ?", entryID).
		Update("status", model.OutboxStatusDone).Error
}

func (r *outboxRepoImpl) RecordAttempt(ctx context.Context, entryID uint) error {
	return r.db.WithContext(ctx).Model(&model.OutboxEntry{}).
		Where("id = ?", entryID).
		Update("attempts", gorm.Expr("attempts + 1")).Error
}
