package inventory

import (
	"github.com/smallbiznis/marketplace/internal/inventory/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("inventory.guard",
	fx.Provide(repository.Provide),
)
