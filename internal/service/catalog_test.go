package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"omnicore-pos/internal/apperr"
	"omnicore-pos/internal/client"
	"omnicore-pos/internal/config"
	"omnicore-pos/internal/model"
	"omnicore-pos/internal/repository"
)

// erpFeed serves a paginated product feed the way the ERP does: a data
// array plus a links.next cursor. failAt > 0 makes that page answer 500.
type erpFeed struct {
	pages  [][]client.ErpProduct
	failAt int
	server *httptest.Server
}

func newErpFeed(t *testing.T, pages [][]client.ErpProduct) *erpFeed {
	t.Helper()

	f := &erpFeed{pages: pages}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := 1
		if v := r.URL.Query().Get("page"); v != "" {
			page, _ = strconv.Atoi(v)
		}

		if f.failAt == page {
			http.Error(w, "upstream exploded", http.StatusInternalServerError)
			return
		}
		if page < 1 || page > len(f.pages) {
			http.Error(w, "no such page", http.StatusNotFound)
			return
		}

		var body client.ErpProductPage
		body.Data = f.pages[page-1]
		if page < len(f.pages) {
			body.Links.Next = fmt.Sprintf("%s/products?page=%d", f.server.URL, page+1)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(f.server.Close)

	return f
}

func newCatalogService(t *testing.T, db *gorm.DB, feedURL string) CatalogService {
	t.Helper()
	return NewCatalogService(
		db,
		client.NewErpClient(&config.Erp{BaseURL: feedURL, APIKey: "test-key"}),
		repository.NewProductRepository(db),
		repository.NewSyncStateRepository(db),
	)
}

func feedProduct(id, name string, price float64, base, variant int) client.ErpProduct {
	return client.ErpProduct{
		ID:                        id,
		Name:                      name,
		SKU:                       "SKU-" + id,
		Price:                     decimal.NewFromFloat(price),
		InventoriesSumQuantity:    base,
		VariantsInventoriesSumQty: variant,
	}
}

func productsByErpID(t *testing.T, db *gorm.DB) map[string]model.Product {
	t.Helper()

	var products []model.Product
	require.NoError(t, db.Find(&products).Error)

	out := make(map[string]model.Product, len(products))
	for _, p := range products {
		out[p.ErpID] = p
	}
	return out
}

func TestReconcilePaginationEquivalence(t *testing.T) {
	const n = 30
	all := make([]client.ErpProduct, n)
	for i := range all {
		all[i] = feedProduct(fmt.Sprintf("erp-%02d", i), fmt.Sprintf("Product %02d", i), float64(i)+0.5, i, i%3)
	}

	singleDB := newTestDB(t)
	singleFeed := newErpFeed(t, [][]client.ErpProduct{all})
	_, err := newCatalogService(t, singleDB, singleFeed.server.URL).Reconcile(context.Background())
	require.NoError(t, err)

	pagedDB := newTestDB(t)
	pagedFeed := newErpFeed(t, [][]client.ErpProduct{all[:10], all[10:20], all[20:]})
	_, err = newCatalogService(t, pagedDB, pagedFeed.server.URL).Reconcile(context.Background())
	require.NoError(t, err)

	single := productsByErpID(t, singleDB)
	paged := productsByErpID(t, pagedDB)
	require.Len(t, paged, n)

	for erpID, want := range single {
		got, ok := paged[erpID]
		require.True(t, ok, "missing %s", erpID)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.SKU, got.SKU)
		assert.Equal(t, want.StockQuantity, got.StockQuantity)
		assert.True(t, want.Price.Equal(got.Price))
	}
}

func TestReconcileIsStable(t *testing.T) {
	db := newTestDB(t)
	feed := newErpFeed(t, [][]client.ErpProduct{{
		feedProduct("erp-1", "Espresso", 2.50, 7, 3),
		feedProduct("erp-2", "Croissant", 2.20, 4, 0),
	}})
	svc := newCatalogService(t, db, feed.server.URL)
	ctx := context.Background()

	_, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	before := productsByErpID(t, db)

	_, err = svc.Reconcile(ctx)
	require.NoError(t, err)
	after := productsByErpID(t, db)

	require.Len(t, after, 2)
	for erpID, want := range before {
		assert.Equal(t, want.StockQuantity, after[erpID].StockQuantity)
	}
	assert.Equal(t, 10, after["erp-1"].StockQuantity, "base plus variant inventory")
}

func TestReconcileStocksOutVanishedProducts(t *testing.T) {
	db := newTestDB(t)
	feed := newErpFeed(t, [][]client.ErpProduct{{
		feedProduct("erp-1", "Espresso", 2.50, 5, 0),
		feedProduct("erp-2", "Croissant", 2.20, 4, 0),
	}})
	svc := newCatalogService(t, db, feed.server.URL)
	ctx := context.Background()

	_, err := svc.Reconcile(ctx)
	require.NoError(t, err)

	// erp-2 disappears from the next pass
	feed.pages = [][]client.ErpProduct{{
		feedProduct("erp-1", "Espresso", 2.50, 5, 0),
	}}

	refreshed, err := svc.Reconcile(ctx)
	require.NoError(t, err)
	assert.Len(t, refreshed, 2, "vanished products are kept, not deleted")

	after := productsByErpID(t, db)
	assert.Equal(t, 5, after["erp-1"].StockQuantity)
	assert.Equal(t, 0, after["erp-2"].StockQuantity, "absence means stock-out")
	assert.Equal(t, "Croissant", after["erp-2"].Name)
}

func TestReconcileMidWalkFailureSkipsZeroOut(t *testing.T) {
	db := newTestDB(t)
	feed := newErpFeed(t, [][]client.ErpProduct{
		{feedProduct("erp-1", "Espresso", 2.50, 5, 0)},
		{feedProduct("erp-2", "Croissant", 2.20, 4, 0)},
	})
	svc := newCatalogService(t, db, feed.server.URL)
	ctx := context.Background()

	_, err := svc.Reconcile(ctx)
	require.NoError(t, err)

	// second pass dies on page 2, after page 1 has been applied with a
	// bumped stock figure
	feed.pages = [][]client.ErpProduct{
		{feedProduct("erp-1", "Espresso", 2.50, 9, 0)},
		{feedProduct("erp-2", "Croissant", 2.20, 4, 0)},
	}
	feed.failAt = 2

	_, err = svc.Reconcile(ctx)
	require.Error(t, err)
	var gwErr *apperr.GatewayError
	assert.ErrorAs(t, err, &gwErr)

	after := productsByErpID(t, db)
	assert.Equal(t, 9, after["erp-1"].StockQuantity, "applied pages stay applied")
	assert.Equal(t, 4, after["erp-2"].StockQuantity, "unreached products are never zeroed")

	// a later complete pass recovers
	feed.failAt = 0
	_, err = svc.Reconcile(ctx)
	require.NoError(t, err)
	after = productsByErpID(t, db)
	assert.Equal(t, 9, after["erp-1"].StockQuantity)
	assert.Equal(t, 4, after["erp-2"].StockQuantity)
}

func TestReconcileFailedPassDoesNotShieldVanishedProducts(t *testing.T) {
	db := newTestDB(t)
	feed := newErpFeed(t, [][]client.ErpProduct{{
		feedProduct("erp-1", "Espresso", 2.50, 5, 0),
	}})
	svc := newCatalogService(t, db, feed.server.URL)
	ctx := context.Background()

	_, err := svc.Reconcile(ctx)
	require.NoError(t, err)

	// next pass re-observes erp-1 on page 1, then dies on page 2
	feed.pages = [][]client.ErpProduct{
		{feedProduct("erp-1", "Espresso", 2.50, 5, 0)},
		{feedProduct("erp-2", "Croissant", 2.20, 4, 0)},
	}
	feed.failAt = 2
	_, err = svc.Reconcile(ctx)
	require.Error(t, err)

	// the following complete pass no longer carries erp-1; the tag left
	// by the failed pass must not shield it from the stock-out
	feed.pages = [][]client.ErpProduct{
		{feedProduct("erp-2", "Croissant", 2.20, 4, 0)},
	}
	feed.failAt = 0
	_, err = svc.Reconcile(ctx)
	require.NoError(t, err)

	after := productsByErpID(t, db)
	assert.Equal(t, 0, after["erp-1"].StockQuantity,
		"absent from the complete pass means stocked out")
	assert.Equal(t, "Espresso", after["erp-1"].Name, "the record itself survives")
	assert.Equal(t, 4, after["erp-2"].StockQuantity)
}

func TestReconcileSkipsRecordsWithoutExternalKey(t *testing.T) {
	db := newTestDB(t)
	feed := newErpFeed(t, [][]client.ErpProduct{{
		feedProduct("", "Ghost", 1.00, 1, 0),
		feedProduct("erp-1", "Espresso", 2.50, 5, 0),
	}})
	svc := newCatalogService(t, db, feed.server.URL)

	refreshed, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	require.Len(t, refreshed, 1)
	assert.Equal(t, "erp-1", refreshed[0].ErpID)
}

func TestReconcileSKUFallback(t *testing.T) {
	db := newTestDB(t)

	withCode := feedProduct("erp-1", "Espresso", 2.50, 5, 0)
	withCode.SKU = ""
	withCode.Code = "CODE-1"
	bare := feedProduct("erp-2", "Croissant", 2.20, 4, 0)
	bare.SKU = ""

	feed := newErpFeed(t, [][]client.ErpProduct{{withCode, bare}})
	_, err := newCatalogService(t, db, feed.server.URL).Reconcile(context.Background())
	require.NoError(t, err)

	after := productsByErpID(t, db)
	assert.Equal(t, "CODE-1", after["erp-1"].SKU, "feed code fills a missing sku")
	assert.Equal(t, "erp-2", after["erp-2"].SKU, "external key is the last resort")
}

func TestReconcileWithoutBaseURLIsConfigurationError(t *testing.T) {
	db := newTestDB(t)
	svc := newCatalogService(t, db, "")

	_, err := svc.Reconcile(context.Background())
	require.Error(t, err)

	var cfgErr *apperr.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)

	var count int64
	require.NoError(t, db.Model(&model.Product{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}
