// syncd runs the scheduled sync loop without the HTTP API, for deployments
// that separate serving from background work.
package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/clustersystems/commission-tracker/internal/cache"
	"github.com/clustersystems/commission-tracker/internal/clock"
	"github.com/clustersystems/commission-tracker/internal/commission"
	"github.com/clustersystems/commission-tracker/internal/config"
	"github.com/clustersystems/commission-tracker/internal/credential"
	"github.com/clustersystems/commission-tracker/internal/invoice"
	"github.com/clustersystems/commission-tracker/internal/observability"
	"github.com/clustersystems/commission-tracker/internal/salesperson"
	"github.com/clustersystems/commission-tracker/internal/scheduler"
	"github.com/clustersystems/commission-tracker/internal/zoho"
	"github.com/clustersystems/commission-tracker/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		cache.Module,

		zoho.Module,
		credential.Module,
		invoice.Module,
		salesperson.Module,
		commission.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
