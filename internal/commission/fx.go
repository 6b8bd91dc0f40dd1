package commission

import (
	"go.uber.org/fx"

	"github.com/clustersystems/commission-tracker/internal/commission/repository"
	"github.com/clustersystems/commission-tracker/internal/commission/service"
)

var Module = fx.Module("commission.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
