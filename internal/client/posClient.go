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

	"omnicore-pos/internal/apperr"
	"omnicore-pos/internal/config"
	"omnicore-pos/internal/dto"
	"omnicore-pos/internal/model"
)

// PosAPIClient is the terminal's view of the server of record.
type PosAPIClient interface {
	SubmitOrder(ctx context.Context, req *dto.CreateOrderRequest) error
	SyncProducts(ctx context.Context) ([]*model.Product, error)
	HealthURL() string
}

type posAPIClientImpl struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
}

func NewPosAPIClient(cfg *config.Terminal) PosAPIClient {
	return &posAPIClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:  strings.TrimRight(cfg.APIBaseURL, "/"),
		apiToken: cfg.APIToken,
	}
}

func (c *posAPIClientImpl) HealthURL() string {
	return c.baseURL + "/api/health"
}

func (c *posAPIClientImpl) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}
}

// SubmitOrder delivers one queued order. Both 201 (first delivery) and 200
// (duplicate delivery) count as server acknowledgment.
func (c *posAPIClientImpl) SubmitOrder(ctx context.Context, order *dto.CreateOrderRequest) error {
	body, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/orders", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &apperr.TransientNetworkError{Op: "submit order", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return &apperr.GatewayError{Op: "submit order", StatusCode: resp.StatusCode, Body: string(b)}
	}

	return nil
}

// SyncProducts triggers a catalog reconciliation and returns the refreshed
// authoritative list.
func (c *posAPIClientImpl) SyncProducts(ctx context.Context) ([]*model.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/products/sync", nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &apperr.TransientNetworkError{Op: "sync products", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, &apperr.GatewayError{Op: "sync products", StatusCode: resp.StatusCode, Body: string(b)}
	}

	var products []*model.Product
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}

	return products, nil
}
