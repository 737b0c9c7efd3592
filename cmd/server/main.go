package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/imagify/imagify/internal/api"
	"github.com/imagify/imagify/internal/auth"
	"github.com/imagify/imagify/internal/clipdrop"
	"github.com/imagify/imagify/internal/config"
	"github.com/imagify/imagify/internal/database"
	"github.com/imagify/imagify/internal/razorpay"
	"github.com/imagify/imagify/internal/repository"
	"github.com/imagify/imagify/internal/service"
	"github.com/imagify/imagify/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	clipdropClient := clipdrop.NewClient(cfg, logr)
	razorpayClient := razorpay.NewClient(cfg)
	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL)

	accountRepo := repository.NewAccountRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	generationRepo := repository.NewGenerationRepository(db)

	ledgerService := service.NewLedgerService(accountRepo)
	accountService := service.NewAccountService(accountRepo, tokens, cfg.StartingCredits)
	generationService := service.NewGenerationService(logr, ledgerService, clipdropClient, generationRepo)
	orderService := service.NewOrderService(logr, service.DefaultPlans(), cfg.PaymentCurrency, ledgerService, transactionRepo, razorpayClient)
	paymentService := service.NewPaymentService(logr, razorpayClient, transactionRepo)

	server := api.NewServer(cfg.ListenAddr, logr, tokens, accountService, generationService, orderService, paymentService)
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Error("server stopped", "err", err)
	}
}
