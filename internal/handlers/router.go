package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	metricsprometheus "github.com/slok/go-http-metrics/metrics/prometheus"
	metricsmiddleware "github.com/slok/go-http-metrics/middleware"
	metricsstd "github.com/slok/go-http-metrics/middleware/std"
	"go.uber.org/zap"

	"greenriot/internal/config"
	"greenriot/internal/db"
	"greenriot/internal/middleware"
	"greenriot/internal/websocket"
)

type Handler struct {
	txRunner  db.TxRunner
	cfg       config.Config
	users     UserStore
	wallets   WalletStore
	txs       TransactionStore
	listings  ListingStore
	referrals ReferralStore
	purchases PurchaseService
	affiliate AffiliateService
	payouts   PayoutService
	selfTest  SelfTestHarness
	hub       *websocket.Hub
	log       *zap.Logger
}

func New(txRunner db.TxRunner, cfg config.Config, users UserStore, wallets WalletStore, txs TransactionStore, listings ListingStore, referrals ReferralStore, purchases PurchaseService, affiliate AffiliateService, payouts PayoutService, selfTest SelfTestHarness, hub *websocket.Hub, log *zap.Logger) *Handler {
	return &Handler{
		txRunner:  txRunner,
		cfg:       cfg,
		users:     users,
		wallets:   wallets,
		txs:       txs,
		listings:  listings,
		referrals: referrals,
		purchases: purchases,
		affiliate: affiliate,
		payouts:   payouts,
		selfTest:  selfTest,
		hub:       hub,
		log:       log,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	metrics := metricsmiddleware.New(metricsmiddleware.Config{
		Recorder: metricsprometheus.NewRecorder(metricsprometheus.Config{}),
	})
	router.Use(func(next http.Handler) http.Handler {
		return metricsstd.Handler("", metrics, next)
	})

	authRequired := middleware.Auth(h.cfg.JWTSecret)

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(authRequired).Get("/me", h.Me)
	})

	router.With(authRequired).Get("/wallets", h.ListWallets)
	router.With(authRequired).Get("/wallets/transactions", h.ListTransactions)

	router.With(authRequired).Post("/listings", h.CreateListing)
	router.With(authRequired).Get("/listings", h.ListListings)
	router.With(authRequired).Get("/listings/{id}", h.GetListing)

	router.Route("/payments", func(r chi.Router) {
		r.Use(authRequired)
		r.Post("/coordinate", h.CreateCoordinatePayment)
		r.Post("/express-account", h.CreateExpressAccount)
		r.Get("/account-status", h.CheckAccountStatus)
		r.Post("/account-status", h.CheckAccountStatus)
		r.Post("/self-test", h.SelfTest)
	})

	router.Route("/affiliate", func(r chi.Router) {
		r.Use(authRequired)
		r.Post("/commissions/manual", h.ManualCommission)
		r.Post("/commissions/process", h.ProcessCommission)
	})

	router.Get("/ws/balances", h.WSBalances)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
