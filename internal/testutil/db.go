// Package testutil opens migrated in-memory databases and inserts fixtures for service tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	catalogdomain "github.com/smallbiznis/marketplace/internal/catalog/domain"
	loyaltydomain "github.com/smallbiznis/marketplace/internal/loyalty/domain"
	"github.com/smallbiznis/marketplace/internal/migration"
	userdomain "github.com/smallbiznis/marketplace/internal/user/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// OpenDB returns a fresh migrated database. A single connection serializes
// concurrent transactions the way row locks would on a server database.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migration.AutoMigrate(db))
	return db
}

func Node(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

// Fixtures inserts catalog and account rows with generated ids.
type Fixtures struct {
	t    *testing.T
	db   *gorm.DB
	node *snowflake.Node
}

func NewFixtures(t *testing.T, db *gorm.DB, node *snowflake.Node) *Fixtures {
	return &Fixtures{t: t, db: db, node: node}
}

func (f *Fixtures) Tier(id string, rate int, minAmount int64) loyaltydomain.Tier {
	f.t.Helper()
	tier := loyaltydomain.Tier{ID: id, Name: id, Rate: rate, MinAmount: minAmount, CreatedAt: time.Now().UTC()}
	require.NoError(f.t, f.db.Create(&tier).Error)
	return tier
}

func (f *Fixtures) User(userType userdomain.UserType, points int64, tierID string) userdomain.User {
	f.t.Helper()
	now := time.Now().UTC()
	id := f.node.Generate()
	user := userdomain.User{
		ID:        id,
		Name:      "user-" + id.String(),
		Email:     id.String() + "@example.com",
		Type:      userType,
		Points:    points,
		TierID:    tierID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(f.t, f.db.Create(&user).Error)
	return user
}

func (f *Fixtures) Store(ownerID snowflake.ID) catalogdomain.Store {
	f.t.Helper()
	now := time.Now().UTC()
	store := catalogdomain.Store{
		ID:          f.node.Generate(),
		UserID:      ownerID,
		Name:        "store",
		Address:     "1 Market Street",
		PhoneNumber: "010-1234-5678",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(f.t, f.db.Create(&store).Error)
	return store
}

func (f *Fixtures) Size(name string) catalogdomain.Size {
	f.t.Helper()
	size := catalogdomain.Size{
		ID:    f.node.Generate(),
		Name:  name,
		Label: datatypes.JSONMap{"en": name, "ko": name},
	}
	require.NoError(f.t, f.db.Create(&size).Error)
	return size
}

func (f *Fixtures) Product(storeID snowflake.ID, price int64) catalogdomain.Product {
	f.t.Helper()
	now := time.Now().UTC()
	product := catalogdomain.Product{
		ID:        f.node.Generate(),
		StoreID:   storeID,
		Name:      "product",
		Price:     price,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(f.t, f.db.Omit(clause.Associations).Create(&product).Error)
	return product
}

func (f *Fixtures) Stock(productID, sizeID snowflake.ID, quantity int64) catalogdomain.Stock {
	f.t.Helper()
	stock := catalogdomain.Stock{
		ID:        f.node.Generate(),
		ProductID: productID,
		SizeID:    sizeID,
		Quantity:  quantity,
	}
	require.NoError(f.t, f.db.Omit(clause.Associations).Create(&stock).Error)
	return stock
}

func StockQuantity(t *testing.T, db *gorm.DB, productID, sizeID snowflake.ID) int64 {
	t.Helper()
	var quantity int64
	require.NoError(t, db.Raw(`SELECT quantity FROM stocks WHERE product_id = ? AND size_id = ?`, productID, sizeID).Scan(&quantity).Error)
	return quantity
}

func UserPoints(t *testing.T, db *gorm.DB, userID snowflake.ID) int64 {
	t.Helper()
	var points int64
	require.NoError(t, db.Raw(`SELECT points FROM users WHERE id = ?`, userID).Scan(&points).Error)
	return points
}

func UserTier(t *testing.T, db *gorm.DB, userID snowflake.ID) string {
	t.Helper()
	var tierID string
	require.NoError(t, db.Raw(`SELECT tier_id FROM users WHERE id = ?`, userID).Scan(&tierID).Error)
	return tierID
}
