package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"omnicore-pos/internal/repository"
	"omnicore-pos/internal/service"
)

type ProductHandler struct {
	catalogService service.CatalogService
	productRepo    repository.ProductRepository
}

func NewProductHandler(catalogService service.CatalogService, productRepo repository.ProductRepository) *ProductHandler {
	return &ProductHandler{
		catalogService: catalogService,
		productRepo:    productRepo,
	}
}

func (h *ProductHandler) List(c echo.Context) error {
	products, err := h.productRepo.List(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, products)
}

// Sync runs a reconciliation pass synchronously and returns the refreshed
// product list.
func (h *ProductHandler) Sync(c echo.Context) error {
	products, err := h.catalogService.Reconcile(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, products)
}
