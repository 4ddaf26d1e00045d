package main

import (
	"log"

	"github.com/halvorsen/ecom-order-core/internal/config"
	"github.com/halvorsen/ecom-order-core/internal/logging"
	"github.com/halvorsen/ecom-order-core/internal/models"
	"github.com/halvorsen/ecom-order-core/internal/processor"
	"github.com/halvorsen/ecom-order-core/internal/repository/postgres"
	"github.com/halvorsen/ecom-order-core/internal/rpc"
	"github.com/halvorsen/ecom-order-core/internal/server"
	"github.com/halvorsen/ecom-order-core/internal/services"
	"github.com/halvorsen/ecom-order-core/internal/synccache"
	"github.com/halvorsen/ecom-order-core/internal/workers/discardunpaid"
	"github.com/halvorsen/ecom-order-core/internal/workers/refundsync"
	"github.com/halvorsen/ecom-order-core/pkg/clock"
	"github.com/halvorsen/ecom-order-core/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logging.Init(cfg.LogLevel, cfg.IsDevelopment())
	appLog := logging.For("server")

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	sysClock := clock.System{}

	stockRepo := postgres.NewStockRepository(db)
	orderRepo := postgres.NewOrderRepository(db, stockRepo)
	chargeRepo := postgres.NewChargeRepository(db)
	refundRepo := postgres.NewRefundRepository(db)
	merchantRepo := postgres.NewMerchantRepository(db, cfg.MerchantSecretPassphrase)
	catalogRepo := postgres.NewCatalogRepository(db)

	proc := processor.NewHTTPProcessor(map[models.Charge3partyKind]string{
		models.Charge3partyStripe: cfg.StripeEndpoint,
		models.Charge3partyPaypal: cfg.PaypalEndpoint,
	})

	orderSyncLocks, err := synccache.New(cfg.OrderSyncLockTTL)
	if err != nil {
		log.Fatalf("Failed to initialize order-sync lock cache: %v", err)
	}

	createOrderService := services.NewCreateOrderService(orderRepo, sysClock)
	finalizeRefundService := services.NewFinalizeRefundService(merchantRepo, refundRepo, chargeRepo, proc, sysClock, orderSyncLocks)
	discardUnpaidService := services.NewDiscardUnpaidService(orderRepo, sysClock)

	rpcClient := rpc.NewClient(cfg.RPCBaseURL, cfg.RPCUsrID, nil)
	syncRefundService := services.NewSyncRefundService(refundRepo, rpcClient, sysClock)

	discardWorker := discardunpaid.NewWorker(discardUnpaidService, discardunpaid.Config{
		Interval:   cfg.DiscardUnpaidInterval,
		BatchLimit: cfg.DiscardUnpaidBatchLimit,
	}, logging.For("discard-unpaid-worker"))
	if err := discardWorker.Start(); err != nil {
		log.Fatalf("Failed to start discard-unpaid worker: %v", err)
	}
	defer discardWorker.Stop()

	refundSyncWorker := refundsync.NewWorker(syncRefundService, refundsync.Config{
		Interval: cfg.RefundSyncInterval,
	}, logging.For("refund-sync-worker"))
	if err := refundSyncWorker.Start(); err != nil {
		log.Fatalf("Failed to start refund-sync worker: %v", err)
	}
	defer refundSyncWorker.Stop()

	svcs := &server.Services{
		CreateOrderService:    createOrderService,
		FinalizeRefundService: finalizeRefundService,
		CatalogRepo:           catalogRepo,
	}

	srv := server.NewServer(cfg, svcs)

	appLog.Info().Str("port", cfg.Port).Msg("server ready")

	if err := srv.Start(); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
