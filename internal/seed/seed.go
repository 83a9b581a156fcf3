package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/marketplace/internal/catalog/domain"
	userdomain "github.com/smallbiznis/marketplace/internal/user/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	demoBuyerEmail  = "buyer@marketplace.local"
	demoSellerEmail = "seller@marketplace.local"
	demoStockLevel  = 100
)

// DemoData identifies the rows created by EnsureDemoCatalog.
type DemoData struct {
	BuyerID  snowflake.ID
	SellerID snowflake.ID
	StoreID  snowflake.ID
	Products []snowflake.ID
	Sizes    []snowflake.ID
}

// EnsureDemoCatalog seeds a buyer, a seller with one store, three sizes and two
// stocked products for local environments. It is a no-op when the buyer exists.
func EnsureDemoCatalog(db *gorm.DB, node *snowflake.Node, tierID string) (*DemoData, error) {
	if db == nil {
		return nil, errors.New("seed database handle is required")
	}
	if node == nil {
		return nil, errors.New("seed id generator is required")
	}

	ctx := context.Background()
	var data *DemoData
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing userdomain.User
		err := tx.Where("email = ?", demoBuyerEmail).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := time.Now().UTC()
		buyer := userdomain.User{
			ID:        node.Generate(),
			Name:      "Demo Buyer",
			Email:     demoBuyerEmail,
			Type:      userdomain.UserTypeBuyer,
			Points:    10_000,
			TierID:    tierID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		seller := userdomain.User{
			ID:        node.Generate(),
			Name:      "Demo Seller",
			Email:     demoSellerEmail,
			Type:      userdomain.UserTypeSeller,
			TierID:    tierID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&[]userdomain.User{buyer, seller}).Error; err != nil {
			return err
		}

		store := catalogdomain.Store{
			ID:          node.Generate(),
			UserID:      seller.ID,
			Name:        "Demo Store",
			Address:     "1 Market Street",
			PhoneNumber: "010-0000-0000",
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.Create(&store).Error; err != nil {
			return err
		}

		sizes := []catalogdomain.Size{
			{ID: node.Generate(), Name: "S", Label: datatypes.JSONMap{"en": "Small", "ko": "소"}},
			{ID: node.Generate(), Name: "M", Label: datatypes.JSONMap{"en": "Medium", "ko": "중"}},
			{ID: node.Generate(), Name: "L", Label: datatypes.JSONMap{"en": "Large", "ko": "대"}},
		}
		if err := tx.Create(&sizes).Error; err != nil {
			return err
		}

		products := []catalogdomain.Product{
			{ID: node.Generate(), StoreID: store.ID, Name: "Linen Shirt", Price: 39_000, CreatedAt: now, UpdatedAt: now},
			{ID: node.Generate(), StoreID: store.ID, Name: "Wool Coat", Price: 189_000, CreatedAt: now, UpdatedAt: now},
		}
		if err := tx.Omit(clause.Associations).Create(&products).Error; err != nil {
			return err
		}

		stocks := make([]catalogdomain.Stock, 0, len(products)*len(sizes))
		for _, product := range products {
			for _, size := range sizes {
				stocks = append(stocks, catalogdomain.Stock{
					ID:        node.Generate(),
					ProductID: product.ID,
					SizeID:    size.ID,
					Quantity:  demoStockLevel,
				})
			}
		}
		if err := tx.Omit(clause.Associations).Create(&stocks).Error; err != nil {
			return err
		}

		data = &DemoData{
			BuyerID:  buyer.ID,
			SellerID: seller.ID,
			StoreID:  store.ID,
		}
		for _, product := range products {
			data.Products = append(data.Products, product.ID)
		}
		for _, size := range sizes {
			data.Sizes = append(data.Sizes, size.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
