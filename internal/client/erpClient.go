package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"omnicore-pos/internal/apperr"
	"omnicore-pos/internal/config"
)

// ErpClient talks to the upstream inventory system: the paginated product
// feed and the order-forwarding endpoint.
type ErpClient interface {
	FetchProductPage(ctx context.Context, pageURL string) (*ErpProductPage, error)
	SubmitOrder(ctx context.Context, payload *ErpOrderPayload) error
	ProductsURL() string
}

type erpClientImpl struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

type ErpProduct struct {
	ID                        string          `json:"id"`
	Name                      string          `json:"name"`
	SKU                       string          `json:"sku"`
	Code                      string          `json:"code"`
	Price                     decimal.Decimal `json:"price"`
	InventoriesSumQuantity    int             `json:"inventories_sum_quantity"`
	VariantsInventoriesSumQty int             `json:"variants_inventories_sum_quantity"`
}

type ErpProductPage struct {
	Data  []ErpProduct `json:"data"`
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

type ErpOrderItem struct {
	ProductID *string         `json:"product_id"` // external catalog key, null if unmapped
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type ErpOrderPayload struct {
	ExternalID  string          `json:"external_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []ErpOrderItem  `json:"items"`
}

func NewErpClient(erpCfg *config.Erp) ErpClient {
	return &erpClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: erpCfg.BaseURL,
		apiKey:  erpCfg.APIKey,
	}
}

func (c *erpClientImpl) ProductsURL() string {
	return strings.TrimRight(c.baseURL, "/") + "/products"
}

// FetchProductPage retrieves one page of the product feed. Callers follow
// the returned links.next cursor until it is empty.
func (c *erpClientImpl) FetchProductPage(ctx context.Context, pageURL string) (*ErpProductPage, error) {
	if c.baseURL == "" {
		return nil, &apperr.ConfigurationError{Reason: "ERP base URL is not configured"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperr.TransientNetworkError{Op: "fetch product page", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, &apperr.GatewayError{Op: "fetch product page", StatusCode: resp.StatusCode, Body: string(b)}
	}

	var page ErpProductPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode product page: %w", err)
	}

	return &page, nil
}

// SubmitOrder posts a confirmed order to the ERP. A non-2xx response comes
// back as a GatewayError carrying the status code and body for diagnostics.
func (c *erpClientImpl) SubmitOrder(ctx context.Context, payload *ErpOrderPayload) error {
	if c.baseURL == "" {
		return &apperr.ConfigurationError{Reason: "ERP base URL is not configured"}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal order payload: %w", err)
	}

	url := strings.TrimRight(c.baseURL, "/") + "/orders"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apperr.TransientNetworkError{Op: "submit order", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &apperr.GatewayError{Op: "submit order", StatusCode: resp.StatusCode, Body: string(b)}
	}

	return nil
}
