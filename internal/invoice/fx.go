package invoice

import (
	"go.uber.org/fx"

	"github.com/clustersystems/commission-tracker/internal/invoice/service"
)

var Module = fx.Module("invoice.fetcher",
	fx.Provide(service.New),
)
