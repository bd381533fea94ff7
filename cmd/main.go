package main

import (
	"context"
	"os"

	"github.com/cristianortiz/thriftbid/internal/auction/application"
	"github.com/cristianortiz/thriftbid/internal/auction/infra/httpapi"
	auctionpg "github.com/cristianortiz/thriftbid/internal/auction/infra/repository/postgres"
	auctionws "github.com/cristianortiz/thriftbid/internal/auction/infra/websocket"
	profilepg "github.com/cristianortiz/thriftbid/internal/profile/infra/repository/postgres"
	"github.com/cristianortiz/thriftbid/internal/shared/db"
	"github.com/cristianortiz/thriftbid/internal/shared/db/migrations"
	"github.com/cristianortiz/thriftbid/internal/shared/httpserver"
	"github.com/cristianortiz/thriftbid/internal/shared/logger"
	"github.com/cristianortiz/thriftbid/internal/shared/websocket"
	"go.uber.org/zap"
)

func main() {
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting thriftbid auction service...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("Running database migrations...")
	if err := migrations.RunMigrations(); err != nil {
		log.Fatal("Database migration failed", zap.Error(err))
	}

	pool, err := db.GetPostgresDBPool(ctx)
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}
	defer pool.Close()

	// persistence gateways
	products := auctionpg.NewProductRepository(pool)
	ledger := auctionpg.NewBidLedger(pool)
	profiles := profilepg.NewProfileRepository(pool)

	// change notification channel
	hub := websocket.NewHub()
	go hub.Run(ctx)
	notifier := auctionws.NewHubNotifier(hub)

	// auction engine
	service := application.NewAuctionService(
		application.NewPlaceBidUseCase(products, ledger, notifier),
		application.NewGetProductStateUseCase(products, ledger),
		application.NewTopBidsUseCase(ledger, profiles),
		application.NewCheckWinnerUseCase(products, ledger),
	)

	// transports
	server := httpserver.NewServer()
	httpapi.NewAuctionHandler(service, products).RegisterRoutes(server.App())

	wsHandler := auctionws.NewAuctionWSHandler(service, hub)
	wsHandler.RegisterRoutes(ctx, server.App())
	go wsHandler.ListenForMessages(ctx)

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":9000"
	}
	if err := server.Start(addr); err != nil {
		log.Fatal("HTTP server failed", zap.Error(err))
	}
}
