package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID                 uint            `gorm:"primaryKey" json:"id"`
	ErpID              string          `gorm:"size:64;uniqueIndex;not null" json:"erp_id"` // stable external catalog key
	Name               string          `gorm:"size:255;not null" json:"name"`
	SKU                string          `gorm:"size:64;uniqueIndex;not null" json:"sku"`
	Price              decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	StockQuantity      int             `gorm:"not null;default:0" json:"stock_quantity"` // never negative
	LastSeenGeneration int64           `gorm:"index;not null;default:0" json:"-"`        // last reconciliation pass that observed it
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

const (
	OrderStatusPending       = "pending"
	OrderStatusSentToGateway = "sent_to_gateway"
	OrderStatusFailed        = "failed"
)

type Order struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	UUID             string          `gorm:"size:36;uniqueIndex;not null" json:"uuid"` // client-assigned idempotency key
	TotalAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Status           string          `gorm:"size:32;index;not null" json:"status"` // pending, sent_to_gateway, failed
	SyncedAt         *time.Time      `json:"synced_at"`
	LastForwardError string          `gorm:"type:text" json:"-"` // diagnostic from the last failed forward
	CreatedAt        time.Time       `json:"created_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
}

type OrderItem struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	OrderID   uint            `gorm:"index;not null" json:"-"`
	ProductID uint            `gorm:"index;not null" json:"product_id"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	CreatedAt time.Time       `json:"-"`
}

const (
	OutboxStatusPending = "pending"
	OutboxStatusDone    = "done"
)

// OutboxEntry records the intent to forward an accepted order to the ERP.
// One entry per order; a worker consumes entries for at-least-once delivery.
type OutboxEntry struct {
	ID        uint   `gorm:"primaryKey"`
	OrderID   uint   `gorm:"uniqueIndex;not null"`
	Status    string `gorm:"size:16;index;not null"`
	Attempts  int    `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SyncState is a single row tracking the monotonically increasing catalog
// reconciliation generation.
type SyncState struct {
	ID                uint  `gorm:"primaryKey"`
	CatalogGeneration int64 `gorm:"not null;default:0"`
	UpdatedAt         time.Time
}
