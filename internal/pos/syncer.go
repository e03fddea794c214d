package pos

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"omnicore-pos/internal/client"
	"omnicore-pos/internal/dto"
)

// CartLine is an in-memory cart entry, merged per product.
type CartLine struct {
	ProductID uint
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Syncer coordinates the terminal: cart, local queue, product mirror and
// the drive logic that reconciles them with the server when connected.
type Syncer struct {
	store   *Store
	api     client.PosAPIClient
	monitor Monitor

	mu    sync.Mutex
	cart  []CartLine
	stats Summary
}

func NewSyncer(store *Store, api client.PosAPIClient, monitor Monitor) *Syncer {
	return &Syncer{
		store:   store,
		api:     api,
		monitor: monitor,
		stats:   Summary{TotalRevenue: decimal.Zero, AllSynced: true},
	}
}

// Run drives the orchestrator: a sync at startup when already connected,
// then one per offline-to-online transition, until the context ends.
func (s *Syncer) Run(ctx context.Context) error {
	if err := s.refreshSummary(ctx); err != nil {
		return err
	}

	if s.monitor.Online() {
		s.Sync(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case online := <-s.monitor.Events():
			if online {
				s.Sync(ctx)
			}
		}
	}
}

// AddToCart merges the product into the cart, bumping quantity when it is
// already present.
func (s *Syncer) AddToCart(p LocalProduct) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.cart {
		if s.cart[i].ProductID == p.ID {
			s.cart[i].Quantity++
			return
		}
	}
	s.cart = append(s.cart, CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		Quantity:  1,
		UnitPrice: p.Price,
	})
}

func (s *Syncer) Cart() []CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]CartLine, len(s.cart))
	copy(out, s.cart)
	return out
}

// Checkout turns the cart into a queued order. The uuid is assigned here,
// before any network attempt, so the order is fully formed and replayable
// offline. Always succeeds locally; delivery is opportunistic.
func (s *Syncer) Checkout(ctx context.Context) (string, error) {
	s.mu.Lock()
	if len(s.cart) == 0 {
		s.mu.Unlock()
		return "", fmt.Errorf("cart is empty")
	}

	lines := make([]LocalOrderLine, len(s.cart))
	total := decimal.Zero
	for i, cl := range s.cart {
		lines[i] = LocalOrderLine{
			ProductID: cl.ProductID,
			Quantity:  cl.Quantity,
			UnitPrice: cl.UnitPrice,
		}
		total = total.Add(cl.UnitPrice.Mul(decimal.NewFromInt(int64(cl.Quantity))))
	}
	s.mu.Unlock()

	id := uuid.NewString()
	if err := s.store.AddOrder(ctx, id, total, lines); err != nil {
		return "", fmt.Errorf("queue order: %w", err)
	}

	s.mu.Lock()
	s.cart = nil
	s.mu.Unlock()

	if s.monitor.Online() {
		s.FlushOrders(ctx)
	}

	if err := s.refreshSummary(ctx); err != nil {
		log.Printf("refresh summary: %v", err)
	}

	return id, nil
}

// Sync is one full pass: catalog pull, order flush, summary recompute. A
// failed catalog pull keeps the last known mirror and still flushes orders.
func (s *Syncer) Sync(ctx context.Context) {
	if err := s.SyncCatalog(ctx); err != nil {
		log.Printf("failed to sync products: %v", err)
	}
	s.FlushOrders(ctx)
	if err := s.refreshSummary(ctx); err != nil {
		log.Printf("refresh summary: %v", err)
	}
}

// SyncCatalog asks the server for a reconciled catalog and replaces the
// local mirror with the result.
func (s *Syncer) SyncCatalog(ctx context.Context) error {
	products, err := s.api.SyncProducts(ctx)
	if err != nil {
		return err
	}

	mirror := make([]LocalProduct, len(products))
	for i, p := range products {
		mirror[i] = LocalProduct{
			ID:            p.ID,
			ErpID:         p.ErpID,
			Name:          p.Name,
			SKU:           p.SKU,
			Price:         p.Price,
			StockQuantity: p.StockQuantity,
		}
	}

	return s.store.ReplaceProducts(ctx, mirror)
}

// FlushOrders submits unsynced orders sequentially, one in flight at a
// time. A failed submission leaves its record unsynced and moves on, so
// independent orders never block each other.
func (s *Syncer) FlushOrders(ctx context.Context) {
	unsynced, err := s.store.UnsyncedOrders(ctx)
	if err != nil {
		log.Printf("load unsynced orders: %v", err)
		return
	}

	for _, order := range unsynced {
		if err := s.submitOne(ctx, order); err != nil {
			log.Printf("sync failed for order %s: %v", order.UUID, err)
			continue
		}
		if err := s.store.MarkSynced(ctx, order.UUID); err != nil {
			log.Printf("mark order %s synced: %v", order.UUID, err)
		}
	}
}

func (s *Syncer) submitOne(ctx context.Context, order LocalOrder) error {
	lines, err := order.OrderLines()
	if err != nil {
		return err
	}

	items := make([]dto.OrderItemInput, len(lines))
	for i, line := range lines {
		items[i] = dto.OrderItemInput{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.InexactFloat64(),
		}
	}

	return s.api.SubmitOrder(ctx, &dto.CreateOrderRequest{
		UUID:        order.UUID,
		TotalAmount: order.TotalAmount.InexactFloat64(),
		Items:       items,
		CreatedAt:   &order.CreatedAt,
	})
}

func (s *Syncer) refreshSummary(ctx context.Context) error {
	sum, err := s.store.Summary(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.stats = sum
	s.mu.Unlock()
	return nil
}

// Stats returns the summary as of the last recompute.
func (s *Syncer) Stats() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
