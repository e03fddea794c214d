package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"omnicore-pos/internal/client"
	"omnicore-pos/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, client.Migrate(db))

	return db
}

func seedProduct(t *testing.T, db *gorm.DB, erpID, name, sku string, price float64, stock int) *model.Product {
	t.Helper()

	p := &model.Product{
		ErpID:         erpID,
		Name:          name,
		SKU:           sku,
		Price:         decimal.NewFromFloat(price),
		StockQuantity: stock,
	}
	require.NoError(t, db.WithContext(context.Background()).Create(p).Error)
	return p
}
