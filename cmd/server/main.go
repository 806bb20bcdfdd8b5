package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"greenriot/internal/config"
	"greenriot/internal/db"
	"greenriot/internal/handlers"
	"greenriot/internal/ledger"
	"greenriot/internal/logger"
	"greenriot/internal/payout"
	"greenriot/internal/selftest"
	"greenriot/internal/services"
	"greenriot/internal/store"
	"greenriot/internal/websocket"
)

func main() {
	cfg := config.Load()
	log, cleanup := logger.New(cfg.AppEnv)
	defer cleanup()

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}
	defer database.Close()

	feeRate, err := decimal.NewFromString(cfg.PlatformFeeRate)
	if err != nil {
		log.Fatal("invalid PLATFORM_FEE_RATE", zap.Error(err))
	}
	commissionRate, err := decimal.NewFromString(cfg.CommissionRate)
	if err != nil {
		log.Fatal("invalid AFFILIATE_COMMISSION_RATE", zap.Error(err))
	}

	users := store.NewUserStore(database)
	wallets := store.NewWalletStore(database)
	transactions := store.NewTransactionStore(database)
	company := store.NewCompanyWalletStore(database)
	listings := store.NewListingStore(database)
	referrals := store.NewReferralStore(database)
	accounts := store.NewConnectedAccountStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()

	walletLedger := ledger.New(wallets, transactions, company, log)
	provider := payout.NewClient(cfg.PayoutAPIBase, cfg.PayoutAPIKey)

	purchaseService := services.NewPurchaseService(txRunner, walletLedger, listings, hub, feeRate, cfg.SupportedCurrencies, log)
	affiliateService := services.NewAffiliateService(txRunner, walletLedger, referrals, provider, hub, commissionRate, cfg.FlatFeeMinor,
		time.Duration(cfg.ReferralWindowDays)*24*time.Hour, cfg.SupportedCurrencies[0], log)
	payoutService := services.NewPayoutService(accounts, users, provider, cfg.PayoutReturnURL, cfg.PayoutRefreshURL, log)
	harness := selftest.New(provider, wallets, referrals, log)

	handler := handlers.New(txRunner, cfg, users, wallets, transactions, listings, referrals,
		purchaseService, affiliateService, payoutService, harness, hub, log)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("greenriot API listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("shutdown error", zap.Error(err))
	}
}
