package scheduler

import (
	"context"

	"go.uber.org/fx"

	"github.com/clustersystems/commission-tracker/internal/config"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(NewLocker),
	fx.Provide(New),
	fx.Invoke(StartLoop),
)

func ProvideConfig(cfg config.Config) Config {
	return Config{Interval: cfg.SyncInterval}.withDefaults()
}

// StartLoop runs the scheduled sync loop for the lifetime of the app.
func StartLoop(lc fx.Lifecycle, sched *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go sched.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})
			return nil
		},
	})
}
