package pos

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// LocalProduct is the terminal's read-optimized copy of a catalog product,
// wholesale-replaced on each successful catalog pull.
type LocalProduct struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	ErpID         string          `json:"erp_id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2)" json:"price"`
	StockQuantity int             `json:"stock_quantity"`
}

// LocalOrderLine is one line of a locally created order, serialized into the
// order record.
type LocalOrderLine struct {
	ProductID uint            `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// LocalOrder is a queued point-of-sale order. Synced flips false -> true
// exactly once, on server acknowledgment only.
type LocalOrder struct {
	UUID        string          `gorm:"primaryKey;size:36"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2)"`
	Lines       []byte
	Synced      bool
	CreatedAt   time.Time
}

func (o *LocalOrder) OrderLines() ([]LocalOrderLine, error) {
	var lines []LocalOrderLine
	if err := json.Unmarshal(o.Lines, &lines); err != nil {
		return nil, fmt.Errorf("decode order lines: %w", err)
	}
	return lines, nil
}

// Summary is the UI-facing digest of the local queue.
type Summary struct {
	TotalOrders  int
	TotalRevenue decimal.Decimal
	AllSynced    bool
}

// Store is the terminal's durable state: the product mirror and the order
// queue, in a local SQLite file.
type Store struct {
	db *gorm.DB
}

func OpenStore(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate local store: %w", err)
	}

	return &Store{db: db}, nil
}

type schemaMeta struct {
	ID      uint `gorm:"primaryKey"`
	Version int
}

const schemaVersion = 2

// migrations run in order from the recorded version up to schemaVersion,
// the upgrade path for when the mirror's indexing requirements change.
var migrations = []func(*gorm.DB) error{
	// v1: base object stores, products keyed by id, orders keyed by uuid
	func(db *gorm.DB) error {
		return db.AutoMigrate(&LocalProduct{}, &LocalOrder{})
	},
	// v2: secondary lookups by sku and name, unsynced-order scan by flag
	func(db *gorm.DB) error {
		stmts := []string{
			"CREATE UNIQUE INDEX IF NOT EXISTS idx_local_products_sku ON local_products(sku)",
			"CREATE INDEX IF NOT EXISTS idx_local_products_name ON local_products(name)",
			"CREATE INDEX IF NOT EXISTS idx_local_orders_synced ON local_orders(synced)",
		}
		for _, stmt := range stmts {
			if err := db.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	},
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&schemaMeta{}); err != nil {
		return err
	}

	var meta schemaMeta
	if err := db.FirstOrCreate(&meta, schemaMeta{ID: 1}).Error; err != nil {
		return err
	}

	for v := meta.Version; v < schemaVersion; v++ {
		if err := migrations[v](db); err != nil {
			return fmt.Errorf("migration to v%d: %w", v+1, err)
		}
		if err := db.Model(&meta).Update("version", v+1).Error; err != nil {
			return err
		}
	}

	return nil
}

// ReplaceProducts swaps the mirror for the refreshed catalog in one
// transaction: vanished products are deleted, everything incoming is
// upserted. Readers never observe a half-merged mirror.
func (s *Store) ReplaceProducts(ctx context.Context, products []LocalProduct) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		incoming := make([]uint, len(products))
		for i, p := range products {
			incoming[i] = p.ID
		}

		del := tx.Where("1 = 1")
		if len(incoming) > 0 {
			del = tx.Where("id NOT IN ?", incoming)
		}
		if err := del.Delete(&LocalProduct{}).Error; err != nil {
			return err
		}

		if len(products) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&products).Error
	})
}

func (s *Store) Products(ctx context.Context) ([]LocalProduct, error) {
	var products []LocalProduct
	err := s.db.WithContext(ctx).Order("id").Find(&products).Error
	return products, err
}

func (s *Store) FindBySKU(ctx context.Context, sku string) (*LocalProduct, error) {
	var product LocalProduct
	err := s.db.WithContext(ctx).Where("sku = ?", sku).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (s *Store) SearchByName(ctx context.Context, name string) ([]LocalProduct, error) {
	var products []LocalProduct
	err := s.db.WithContext(ctx).
		Where("name LIKE ?", "%"+name+"%").
		Order("name").
		Find(&products).Error
	return products, err
}

// AddOrder appends to the queue with synced=false. Purely local, never
// touches the network.
func (s *Store) AddOrder(ctx context.Context, uuid string, total decimal.Decimal, lines []LocalOrderLine) error {
	raw, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode order lines: %w", err)
	}

	return s.db.WithContext(ctx).Create(&LocalOrder{
		UUID:        uuid,
		TotalAmount: total,
		Lines:       raw,
		Synced:      false,
	}).Error
}

func (s *Store) UnsyncedOrders(ctx context.Context) ([]LocalOrder, error) {
	var orders []LocalOrder
	err := s.db.WithContext(ctx).
		Where("synced = ?", false).
		Order("created_at, rowid").
		Find(&orders).Error
	return orders, err
}

// MarkSynced records server acknowledgment. The flag is monotonic; a row
// already synced is left untouched.
func (s *Store) MarkSynced(ctx context.Context, uuid string) error {
	return s.db.WithContext(ctx).Model(&LocalOrder{}).
		Where("uuid = ? AND synced = ?", uuid, false).
		Update("synced", true).Error
}

// Summary derives the order count, total revenue and the all-synced flag
// purely from queue contents.
func (s *Store) Summary(ctx context.Context) (Summary, error) {
	var orders []LocalOrder
	if err := s.db.WithContext(ctx).Find(&orders).Error; err != nil {
		return Summary{}, err
	}

	sum := Summary{
		TotalRevenue: decimal.Zero,
		AllSynced:    true,
	}
	for _, o := range orders {
		sum.TotalOrders++
		sum.TotalRevenue = sum.TotalRevenue.Add(o.TotalAmount)
		if !o.Synced {
			sum.AllSynced = false
		}
	}

	return sum, nil
}
