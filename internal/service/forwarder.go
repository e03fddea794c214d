package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"omnicore-pos/internal/apperr"
	"omnicore-pos/internal/client"
	"omnicore-pos/internal/model"
	"omnicore-pos/internal/repository"
)

type ForwarderService interface {
	// Forward submits one accepted order to the ERP. The outcome lands on
	// the order as a terminal status, never as a returned gateway error;
	// only infrastructure failures (db, config) are returned.
	Forward(ctx context.Context, orderID uint) error

	// RunOutboxWorker consumes pending forwarding intents until the context
	// is cancelled. At-least-once toward the gateway; the gateway keys on
	// external_id.
	RunOutboxWorker(ctx context.Context, interval time.Duration, batchSize int)
}

type forwarderServiceImpl struct {
	db          *gorm.DB
	erpClient   client.ErpClient
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	outboxRepo  repository.OutboxRepository
}

func NewForwarderService(
	db *gorm.DB,
	erpClient client.ErpClient,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	outboxRepo repository.OutboxRepository,
) ForwarderService {
	return &forwarderServiceImpl{
		db:          db,
		erpClient:   erpClient,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		outboxRepo:  outboxRepo,
	}
}

func (s *forwarderServiceImpl) Forward(ctx context.Context, orderID uint) error {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("load order %d: %w", orderID, err)
	}

	payload, err := s.buildPayload(ctx, order)
	if err != nil {
		return err
	}

	err = s.erpClient.SubmitOrder(ctx, payload)
	if err == nil {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.orderRepo.MarkSentToGateway(ctx, tx, order.ID)
		})
	}

	var gwErr *apperr.GatewayError
	if errors.As(err, &gwErr) {
		diagnostic := fmt.Sprintf("status=%d body=%s", gwErr.StatusCode, gwErr.Body)
		log.Printf("failed to submit POS order to ERP: order_id=%d %s", order.ID, diagnostic)
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.orderRepo.MarkFailed(ctx, tx, order.ID, diagnostic)
		})
	}

	// transient network or configuration failure: the order keeps its
	// current status and the outbox entry stays pending for the next sweep
	return err
}

// buildPayload maps each line's internal product reference to the ERP
// catalog key, null when the product was never mirrored from the feed.
func (s *forwarderServiceImpl) buildPayload(ctx context.Context, order *model.Order) (*client.ErpOrderPayload, error) {
	ids := make([]uint, len(order.Items))
	for i, item := range order.Items {
		ids[i] = item.ProductID
	}

	products, err := s.productRepo.FindMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products for order %d: %w", order.ID, err)
	}

	erpIDs := make(map[uint]string, len(products))
	for _, p := range products {
		if p.ErpID != "" {
			erpIDs[p.ID] = p.ErpID
		}
	}

	items := make([]client.ErpOrderItem, len(order.Items))
	for i, item := range order.Items {
		var productID *string
		if erpID, ok := erpIDs[item.ProductID]; ok {
			productID = &erpID
		}
		items[i] = client.ErpOrderItem{
			ProductID: productID,
			Quantity:  item.Quantity,
			Price:     item.UnitPrice,
		}
	}

	return &client.ErpOrderPayload{
		ExternalID:  order.UUID,
		TotalAmount: order.TotalAmount,
		Items:       items,
	}, nil
}

func (s *forwarderServiceImpl) RunOutboxWorker(ctx context.Context, interval time.Duration, batchSize int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sweepOutbox(ctx, batchSize); err != nil {
				log.Printf("outbox sweep: %v", err)
			}
		}
	}
}

func (s *forwarderServiceImpl) sweepOutbox(ctx context.Context, batchSize int) error {
	entries, err := s.outboxRepo.NextPending(ctx, batchSize)
	if err != nil {
		return fmt.Errorf("load pending outbox entries: %w", err)
	}

	for _, entry := range entries {
		if err := s.outboxRepo.RecordAttempt(ctx, entry.ID); err != nil {
			return fmt.Errorf("record outbox attempt: %w", err)
		}

		if err := s.Forward(ctx, entry.OrderID); err != nil {
			log.Printf("forward order %d: %v", entry.OrderID, err)
			continue
		}

		// the order reached a terminal status, the intent is spent
		if err := s.outboxRepo.MarkDone(ctx, entry.ID); err != nil {
			return fmt.Errorf("mark outbox entry done: %w", err)
		}
	}

	return nil
}
