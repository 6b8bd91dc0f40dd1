package salesperson

import "go.uber.org/fx"

var Module = fx.Module("salesperson.resolver",
	fx.Provide(New),
)
