package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"omnicore-pos/internal/dto"
	"omnicore-pos/internal/service"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// Create answers 201 with the new order on first delivery and 200 with the
// existing order on any repeat of the same uuid.
func (h *OrderHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	order, created, err := h.orderService.Submit(ctx, &req)
	if err != nil {
		return err
	}

	if !created {
		return c.JSON(http.StatusOK, dto.DuplicateOrderResponse{
			Message: "Order already processed",
			Order:   order,
		})
	}

	return c.JSON(http.StatusCreated, order)
}
