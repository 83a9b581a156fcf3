package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketplace/internal/authorization"
	"github.com/smallbiznis/marketplace/internal/catalog"
	"github.com/smallbiznis/marketplace/internal/clock"
	"github.com/smallbiznis/marketplace/internal/config"
	"github.com/smallbiznis/marketplace/internal/inventory"
	"github.com/smallbiznis/marketplace/internal/loyalty"
	"github.com/smallbiznis/marketplace/internal/migration"
	"github.com/smallbiznis/marketplace/internal/observability"
	"github.com/smallbiznis/marketplace/internal/order"
	"github.com/smallbiznis/marketplace/internal/pointledger"
	"github.com/smallbiznis/marketplace/internal/providers"
	"github.com/smallbiznis/marketplace/internal/ratelimit"
	"github.com/smallbiznis/marketplace/internal/server"
	"github.com/smallbiznis/marketplace/internal/user"
	"github.com/smallbiznis/marketplace/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),

		// Domains
		user.Module,
		catalog.Module,
		inventory.Module,
		pointledger.Module,
		loyalty.Module,
		order.Module,
		authorization.Module,
		ratelimit.Module,
		providers.Module,

		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
