package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"greenriot/internal/auth"
	"greenriot/internal/config"
	"greenriot/internal/middleware"
	"greenriot/internal/models"
	"greenriot/internal/selftest"
	"greenriot/internal/services"
	"greenriot/internal/store"
	"greenriot/internal/websocket"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn             func(ctx context.Context, tx store.Execer, id, username, email, passwordHash, affiliateCode string) error
	getByEmailFn         func(ctx context.Context, email string) (models.User, error)
	getByIDFn            func(ctx context.Context, userID string) (models.User, error)
	getByAffiliateCodeFn func(ctx context.Context, code string) (models.User, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash, affiliateCode string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, username, email, passwordHash, affiliateCode)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) GetByAffiliateCode(ctx context.Context, code string) (models.User, error) {
	return s.getByAffiliateCodeFn(ctx, code)
}

type stubWalletStore struct {
	getByUserFn func(ctx context.Context, userID string) ([]store.WalletBalanceSummary, error)
}

func (s stubWalletStore) GetByUser(ctx context.Context, userID string) ([]store.WalletBalanceSummary, error) {
	return s.getByUserFn(ctx, userID)
}

type stubTransactionStore struct {
	listFn func(ctx context.Context, userID, txType string, limit, offset int) ([]models.Transaction, error)
}

func (s stubTransactionStore) ListByUser(ctx context.Context, userID, txType string, limit, offset int) ([]models.Transaction, error) {
	return s.listFn(ctx, userID, txType, limit, offset)
}

type stubListingStore struct {
	createFn  func(ctx context.Context, input store.ListingInput) error
	getByIDFn func(ctx context.Context, listingID string) (models.Listing, error)
	listFn    func(ctx context.Context, kind string, limit, offset int) ([]models.Listing, error)
}

func (s stubListingStore) Create(ctx context.Context, input store.ListingInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, input)
}

func (s stubListingStore) GetByID(ctx context.Context, listingID string) (models.Listing, error) {
	return s.getByIDFn(ctx, listingID)
}

func (s stubListingStore) List(ctx context.Context, kind string, limit, offset int) ([]models.Listing, error) {
	return s.listFn(ctx, kind, limit, offset)
}

type stubReferralStore struct {
	createFn func(ctx context.Context, tx store.Execer, id, affiliateUserID, referredUserID, affiliateCode string) error
}

func (s stubReferralStore) Create(ctx context.Context, tx store.Execer, id, affiliateUserID, referredUserID, affiliateCode string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, affiliateUserID, referredUserID, affiliateCode)
}

type stubPurchaseService struct {
	purchaseFn func(ctx context.Context, req services.PurchaseRequest) (services.PurchaseResult, error)
}

func (s stubPurchaseService) Purchase(ctx context.Context, req services.PurchaseRequest) (services.PurchaseResult, error) {
	return s.purchaseFn(ctx, req)
}

type stubAffiliateService struct {
	sessionFn func(ctx context.Context, sessionID string) (services.CommissionResult, error)
	manualFn  func(ctx context.Context, referralID string) (services.CommissionResult, error)
}

func (s stubAffiliateService) ProcessSession(ctx context.Context, sessionID string) (services.CommissionResult, error) {
	return s.sessionFn(ctx, sessionID)
}

func (s stubAffiliateService) ProcessManual(ctx context.Context, referralID string) (services.CommissionResult, error) {
	return s.manualFn(ctx, referralID)
}

type stubPayoutService struct {
	createFn func(ctx context.Context, userID string) (services.AccountInfo, error)
	checkFn  func(ctx context.Context, userID string) (services.StatusInfo, error)
}

func (s stubPayoutService) CreateOrRetrieve(ctx context.Context, userID string) (services.AccountInfo, error) {
	return s.createFn(ctx, userID)
}

func (s stubPayoutService) CheckStatus(ctx context.Context, userID string) (services.StatusInfo, error) {
	return s.checkFn(ctx, userID)
}

type stubSelfTest struct {
	runFn func(ctx context.Context) (selftest.Results, selftest.Summary)
}

func (s stubSelfTest) Run(ctx context.Context) (selftest.Results, selftest.Summary) {
	return s.runFn(ctx)
}

type testDeps struct {
	txRunner  fakeTxRunner
	users     stubUserStore
	wallets   stubWalletStore
	txs       stubTransactionStore
	listings  stubListingStore
	referrals stubReferralStore
	purchases stubPurchaseService
	affiliate stubAffiliateService
	payouts   stubPayoutService
	selfTest  stubSelfTest
}

func newTestHandler(deps testDeps) *Handler {
	cfg := config.Config{
		JWTSecret:           "secret",
		TokenTTL:            time.Minute,
		AllowedOrigins:      "*",
		SupportedCurrencies: []string{"USD", "EUR"},
	}
	return New(deps.txRunner, cfg, deps.users, deps.wallets, deps.txs, deps.listings, deps.referrals,
		deps.purchases, deps.affiliate, deps.payouts, deps.selfTest, websocket.NewHub(), zap.NewNop())
}

// authedRequest runs the request through the auth middleware with a real
// token so handlers see the same context a production request would.
func authedRequest(t *testing.T, handler http.HandlerFunc, req *http.Request, userID string) *httptest.ResponseRecorder {
	t.Helper()
	token, err := auth.GenerateToken("secret", userID, time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	middleware.Auth("secret")(handler).ServeHTTP(rr, req)
	return rr
}
