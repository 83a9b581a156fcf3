package migration

import (
	"context"
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketplace/internal/config"
	loyaltydomain "github.com/smallbiznis/marketplace/internal/loyalty/domain"
	"github.com/smallbiznis/marketplace/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Conn     *gorm.DB
	Config   config.Config
	Checkout *config.CheckoutConfigHolder
	Loyalty  loyaltydomain.Service
	GenID    *snowflake.Node
	Log      *zap.Logger
}

var Module = fx.Module("migrations",
	fx.Invoke(Run),
)

// Run brings the schema up to date, seeds the tier table and optionally the demo catalog.
func Run(p Params) error {
	if err := Migrate(p.Conn, p.Config.DBType); err != nil {
		return err
	}

	tiers := p.Checkout.Get().Tiers
	if err := p.Loyalty.SeedTiers(context.Background(), tiers); err != nil {
		return err
	}
	p.Log.Info("schema ready", zap.String("db_type", p.Config.DBType), zap.Int("tiers", len(tiers)))

	if !p.Config.SeedDemoData || p.Config.IsProduction() {
		return nil
	}
	data, err := seed.EnsureDemoCatalog(p.Conn, p.GenID, entryTierID(tiers))
	if err != nil {
		return err
	}
	if data != nil {
		p.Log.Info("demo catalog seeded",
			zap.String("buyer_id", data.BuyerID.String()),
			zap.String("store_id", data.StoreID.String()),
		)
	}
	return nil
}

func entryTierID(tiers []config.TierSeed) string {
	if len(tiers) == 0 {
		return ""
	}
	sorted := make([]config.TierSeed, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinAmount < sorted[j].MinAmount })
	return sorted[0].ID
}
