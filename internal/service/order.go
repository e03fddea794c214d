package service

import (
	"context"
	"errors"
	"fmt"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"omnicore-pos/internal/apperr"
	"omnicore-pos/internal/dto"
	"omnicore-pos/internal/model"
	"omnicore-pos/internal/repository"
)

type OrderService interface {
	// Submit persists an order exactly once per uuid. The bool reports
	// whether the order was created by this call (false on duplicate
	// delivery, which returns the existing order unchanged).
	Submit(ctx context.Context, req *dto.CreateOrderRequest) (*model.Order, bool, error)
}

type orderServiceImpl struct {
	db          *gorm.DB
	validate    *validatorv10.Validate
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	outboxRepo  repository.OutboxRepository
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	outboxRepo repository.OutboxRepository,
) OrderService {
	return &orderServiceImpl{
		db:          db,
		validate:    dto.NewValidator(),
		orderRepo:   orderRepo,
		productRepo: productRepo,
		outboxRepo:  outboxRepo,
	}
}

func (s *orderServiceImpl) Submit(ctx context.Context, req *dto.CreateOrderRequest) (*model.Order, bool, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, false, dto.AsValidationError(err)
	}

	if err := s.checkProductRefs(ctx, req.Items); err != nil {
		return nil, false, err
	}

	order := &model.Order{
		UUID:        req.UUID,
		TotalAmount: req.Total(),
		Status:      model.OrderStatusPending,
	}

	items := make([]*model.OrderItem, len(req.Items))

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return err
		}

		for i, item := range req.Items {
			items[i] = &model.OrderItem{
				OrderID:   order.ID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: decimal.NewFromFloat(item.UnitPrice),
			}
		}
		if err := s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
			return fmt.Errorf("store order items: %w", err)
		}

		// forwarding intent rides in the same transaction so every order
		// that reaches pending is handed off exactly once
		if err := s.outboxRepo.Enqueue(ctx, tx, order.ID); err != nil {
			return fmt.Errorf("enqueue outbox entry: %w", err)
		}

		return nil
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// the uuid uniqueness constraint is the idempotency check; two
		// racing deliveries cannot both insert, the loser reads back the
		// winner's row
		existing, ferr := s.orderRepo.FindByUUID(ctx, req.UUID)
		if ferr != nil {
			return nil, false, fmt.Errorf("load existing order: %w", ferr)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store order: %w", err)
	}

	order.Items = make([]model.OrderItem, len(items))
	for i, item := range items {
		order.Items[i] = *item
	}

	return order, true, nil
}

// checkProductRefs rejects items referencing unknown products before any
// state is written.
func (s *orderServiceImpl) checkProductRefs(ctx context.Context, items []dto.OrderItemInput) error {
	ids := make([]uint, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	products, err := s.productRepo.FindMany(ctx, ids)
	if err != nil {
		return fmt.Errorf("load referenced products: %w", err)
	}

	known := make(map[uint]struct{}, len(products))
	for _, p := range products {
		known[p.ID] = struct{}{}
	}

	var fields []apperr.FieldError
	for i, item := range items {
		if _, ok := known[item.ProductID]; !ok {
			fields = append(fields, apperr.FieldError{
				Field:   fmt.Sprintf("items[%d].product_id", i),
				Message: "references an unknown product",
			})
		}
	}
	if len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}

	return nil
}
