package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"omnicore-pos/internal/model"
)

type OrderItemInput struct {
	ProductID uint    `json:"product_id" validate:"required"`
	Quantity  int     `json:"quantity" validate:"required,min=1"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

// CreateOrderRequest is the payload for POST /api/orders. The uuid is the
// client-assigned idempotency key. A zero total is valid (a fully comped
// cart), so the amount carries no required tag.
type CreateOrderRequest struct {
	UUID        string           `json:"uuid" validate:"required,uuid"`
	TotalAmount float64          `json:"total_amount" validate:"gte=0"`
	Items       []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	// CreatedAt is the terminal's local creation time. The server records
	// its own timestamp and ignores this; it rides along for queue
	// diagnostics only.
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

func (r *CreateOrderRequest) Total() decimal.Decimal {
	return decimal.NewFromFloat(r.TotalAmount)
}

type DuplicateOrderResponse struct {
	Message string       `json:"message"`
	Order   *model.Order `json:"order"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Errors  any    `json:"errors,omitempty"`
}
