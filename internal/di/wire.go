//go:build wireinject
// +build wireinject

package di

import (
	"StockDash/internal/usecase"
	"StockDash/pkg/config"
	"StockDash/pkg/server"

	"github.com/google/wire"
)

var dashboardSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideCache,
	ProvideHTTPClient,
	ProvideYahooClient,
	ProvideMarketData,
	ProvideSnapshotPublisher,
	ProvideDashboardUseCase,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		dashboardSet,

		// Archive and background jobs
		ProvideBarStore,
		ProvidePrefetcher,

		// HTTP surface
		ProvideTemplates,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeDashboard wires the dashboard use case alone, for the CLI.
func InitializeDashboard(cfg *config.Config) (*usecase.DashboardUseCase, func(), error) {
	wire.Build(dashboardSet)
	return nil, nil, nil
}
