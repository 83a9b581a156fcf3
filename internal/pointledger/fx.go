package pointledger

import (
	"github.com/smallbiznis/marketplace/internal/pointledger/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("pointledger",
	fx.Provide(repository.Provide),
)
