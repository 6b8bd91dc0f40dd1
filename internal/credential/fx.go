package credential

import (
	"go.uber.org/fx"

	"github.com/clustersystems/commission-tracker/internal/credential/repository"
	"github.com/clustersystems/commission-tracker/internal/credential/service"
)

var Module = fx.Module("credential.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
