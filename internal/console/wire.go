//go:build wireinject
// +build wireinject

package console

import (
	"github.com/google/wire"

	"github.com/tair/catalog-console/internal/config"
)

// Wire sets
var InfraSet = wire.NewSet(
	ProvideInstanceID,
	ProvideRegisterer,
	ProvideGatherer,
	ProvideRedisClient,
	ProvideStorage,
)

var CatalogSet = wire.NewSet(
	ProvideGatewayClient,
	ProvideCache,
	ProvideChangePublisher,
	ProvideProducts,
	ProvideConsumer,
)

var PresentationSet = wire.NewSet(
	ProvideRegistry,
	ProvideHandler,
	ProvideApp,
	ProvideHealthChecker,
	ProvideOpsServer,
)

// InitializeConsole builds the console with all dependencies
func InitializeConsole(cfg *config.ConsoleConfig) (*Console, func(), error) {
	wire.Build(
		InfraSet,
		CatalogSet,
		PresentationSet,
		NewConsole,
	)
	return nil, nil, nil
}
