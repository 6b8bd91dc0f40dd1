package zoho

import "go.uber.org/fx"

var Module = fx.Module("zoho",
	fx.Provide(New),
)
