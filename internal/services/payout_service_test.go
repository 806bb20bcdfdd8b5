package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"go.uber.org/zap"

	"greenriot/internal/models"
	"greenriot/internal/payout"
)

type stubConnectedAccounts struct {
	getFn    func(ctx context.Context, userID string) (models.ConnectedAccount, error)
	upserted []models.ConnectedAccount
}

func (s *stubConnectedAccounts) Get(ctx context.Context, userID string) (models.ConnectedAccount, error) {
	return s.getFn(ctx, userID)
}

func (s *stubConnectedAccounts) Upsert(_ context.Context, account models.ConnectedAccount) error {
	s.upserted = append(s.upserted, account)
	return nil
}

type stubUsers struct {
	getByIDFn func(ctx context.Context, userID string) (models.User, error)
}

func (s stubUsers) GetByID(ctx context.Context, userID string) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{ID: userID, Email: userID + "@example.com"}, nil
	}
	return s.getByIDFn(ctx, userID)
}

type fakeProvider struct {
	createAccountFn        func(ctx context.Context, email string) (payout.Account, error)
	getAccountFn           func(ctx context.Context, accountID string) (payout.Account, error)
	createOnboardingLinkFn func(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
	createDashboardLinkFn  func(ctx context.Context, accountID string) (string, error)
	getCheckoutSessionFn   func(ctx context.Context, sessionID string) (payout.CheckoutSession, error)
}

func (f fakeProvider) CreateAccount(ctx context.Context, email string) (payout.Account, error) {
	if f.createAccountFn == nil {
		return payout.Account{ID: "acct_new", Email: email}, nil
	}
	return f.createAccountFn(ctx, email)
}

func (f fakeProvider) GetAccount(ctx context.Context, accountID string) (payout.Account, error) {
	return f.getAccountFn(ctx, accountID)
}

func (f fakeProvider) CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	if f.createOnboardingLinkFn == nil {
		return "https://onboard.example.com/" + accountID, nil
	}
	return f.createOnboardingLinkFn(ctx, accountID, refreshURL, returnURL)
}

func (f fakeProvider) CreateDashboardLink(ctx context.Context, accountID string) (string, error) {
	if f.createDashboardLinkFn == nil {
		return "https://dashboard.example.com/" + accountID, nil
	}
	return f.createDashboardLinkFn(ctx, accountID)
}

func (f fakeProvider) GetCheckoutSession(ctx context.Context, sessionID string) (payout.CheckoutSession, error) {
	return f.getCheckoutSessionFn(ctx, sessionID)
}

func newPayoutService(accounts *stubConnectedAccounts, users stubUsers, provider fakeProvider) *PayoutService {
	return NewPayoutService(accounts, users, provider,
		"https://app.example.com/return", "https://app.example.com/refresh", zap.NewNop())
}

func TestCheckStatusNotConnected(t *testing.T) {
	accounts := &stubConnectedAccounts{
		getFn: func(context.Context, string) (models.ConnectedAccount, error) {
			return models.ConnectedAccount{}, sql.ErrNoRows
		},
	}
	service := newPayoutService(accounts, stubUsers{}, fakeProvider{
		getAccountFn: func(context.Context, string) (payout.Account, error) {
			t.Fatalf("unexpected processor call")
			return payout.Account{}, nil
		},
	})

	info, err := service.CheckStatus(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Status != payout.StatusNotConnected || info.CanWithdraw || !info.NeedsOnboarding {
		t.Fatalf("unexpected info: %#v", info)
	}
	if info.Requirements == nil {
		t.Fatalf("requirements should be an empty slice")
	}
	if len(accounts.upserted) != 0 {
		t.Fatalf("no cache row should be written for a missing account")
	}
}

func TestCreateOrRetrieveActiveShortCircuits(t *testing.T) {
	accounts := &stubConnectedAccounts{
		getFn: func(context.Context, string) (models.ConnectedAccount, error) {
			return models.ConnectedAccount{
				UserID:       "user-1",
				AccountID:    "acct_1",
				Status:       string(payout.StatusActive),
				DashboardURL: "https://dashboard.example.com/acct_1",
			}, nil
		},
	}
	service := newPayoutService(accounts, stubUsers{}, fakeProvider{
		createAccountFn: func(context.Context, string) (payout.Account, error) {
			t.Fatalf("unexpected account creation")
			return payout.Account{}, nil
		},
		createOnboardingLinkFn: func(context.Context, string, string, string) (string, error) {
			t.Fatalf("unexpected onboarding link for active account")
			return "", nil
		},
	})

	info, err := service.CreateOrRetrieve(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Status != payout.StatusActive || info.NeedsOnboarding {
		t.Fatalf("unexpected info: %#v", info)
	}
	if info.DashboardURL == "" {
		t.Fatalf("active account should include its dashboard link")
	}
}

func TestCreateOrRetrieveFirstUseCreatesAccount(t *testing.T) {
	accounts := &stubConnectedAccounts{
		getFn: func(context.Context, string) (models.ConnectedAccount, error) {
			return models.ConnectedAccount{}, sql.ErrNoRows
		},
	}
	var createdEmail string
	service := newPayoutService(accounts, stubUsers{
		getByIDFn: func(_ context.Context, userID string) (models.User, error) {
			return models.User{ID: userID, Email: "seller@example.com"}, nil
		},
	}, fakeProvider{
		createAccountFn: func(_ context.Context, email string) (payout.Account, error) {
			createdEmail = email
			return payout.Account{ID: "acct_new", Email: email}, nil
		},
	})

	info, err := service.CreateOrRetrieve(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if createdEmail != "seller@example.com" {
		t.Fatalf("account created with wrong email: %q", createdEmail)
	}
	if info.AccountID != "acct_new" || !info.NeedsOnboarding {
		t.Fatalf("unexpected info: %#v", info)
	}
	if info.Status != payout.StatusPending {
		t.Fatalf("fresh account should be pending: %s", info.Status)
	}
	if info.OnboardingURL == "" {
		t.Fatalf("missing onboarding link")
	}
	if len(accounts.upserted) != 1 || accounts.upserted[0].AccountID != "acct_new" {
		t.Fatalf("cache row not written: %#v", accounts.upserted)
	}
}

func TestCreateOrRetrieveReusesExistingAccountID(t *testing.T) {
	accounts := &stubConnectedAccounts{
		getFn: func(context.Context, string) (models.ConnectedAccount, error) {
			return models.ConnectedAccount{UserID: "user-1", AccountID: "acct_1", Status: string(payout.StatusPending)}, nil
		},
	}
	service := newPayoutService(accounts, stubUsers{}, fakeProvider{
		createAccountFn: func(context.Context, string) (payout.Account, error) {
			t.Fatalf("existing account must not be recreated")
			return payout.Account{}, nil
		},
	})

	info, err := service.CreateOrRetrieve(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.AccountID != "acct_1" || !info.NeedsOnboarding {
		t.Fatalf("unexpected info: %#v", info)
	}
}

func TestCheckStatusActive(t *testing.T) {
	accounts := &stubConnectedAccounts{
		getFn: func(context.Context, string) (models.ConnectedAccount, error) {
			return models.ConnectedAccount{UserID: "user-1", AccountID: "acct_1", Status: string(payout.StatusPending)}, nil
		},
	}
	service := newPayoutService(accounts, stubUsers{}, fakeProvider{
		getAccountFn: func(context.Context, string) (payout.Account, error) {
			return payout.Account{ID: "acct_1", DetailsSubmitted: true, ChargesEnabled: true, PayoutsEnabled: true}, nil
		},
		createOnboardingLinkFn: func(context.Context, string, string, string) (string, error) {
			t.Fatalf("active account should not regenerate onboarding")
			return "", nil
		},
	})

	info, err := service.CheckStatus(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Status != payout.StatusActive || !info.CanWithdraw || info.NeedsOnboarding {
		t.Fatalf("unexpected info: %#v", info)
	}
	if info.DashboardURL == "" {
		t.Fatalf("missing dashboard link")
	}
	if len(accounts.upserted) != 1 || accounts.upserted[0].Status != string(payout.StatusActive) {
		t.Fatalf("cache not refreshed: %#v", accounts.upserted)
	}
}

func TestCheckStatusRestrictedRegeneratesOnboarding(t *testing.T) {
	accounts := &stubConnectedAccounts{
		getFn: func(context.Context, string) (models.ConnectedAccount, error) {
			return models.ConnectedAccount{UserID: "user-1", AccountID: "acct_1", Status: string(payout.StatusActive)}, nil
		},
	}
	service := newPayoutService(accounts, stubUsers{}, fakeProvider{
		getAccountFn: func(context.Context, string) (payout.Account, error) {
			return payout.Account{
				ID:               "acct_1",
				DetailsSubmitted: true,
				Requirements:     []string{"individual.id_number"},
			}, nil
		},
	})

	info, err := service.CheckStatus(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The processor snapshot wins over the stale active cache.
	if info.Status != payout.StatusRestricted || info.CanWithdraw {
		t.Fatalf("unexpected info: %#v", info)
	}
	if !info.NeedsOnboarding || info.OnboardingURL == "" {
		t.Fatalf("restricted account needs a fresh onboarding link: %#v", info)
	}
	if len(info.Requirements) != 1 || info.Requirements[0] != "individual.id_number" {
		t.Fatalf("requirements not surfaced: %#v", info.Requirements)
	}
}

func TestCheckStatusToleratesDashboardFailure(t *testing.T) {
	accounts := &stubConnectedAccounts{
		getFn: func(context.Context, string) (models.ConnectedAccount, error) {
			return models.ConnectedAccount{UserID: "user-1", AccountID: "acct_1", DashboardURL: "https://old.example.com"}, nil
		},
	}
	service := newPayoutService(accounts, stubUsers{}, fakeProvider{
		getAccountFn: func(context.Context, string) (payout.Account, error) {
			return payout.Account{ID: "acct_1", DetailsSubmitted: true, ChargesEnabled: true, PayoutsEnabled: true}, nil
		},
		createDashboardLinkFn: func(context.Context, string) (string, error) {
			return "", errors.New("temporarily unavailable")
		},
	})

	info, err := service.CheckStatus(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("dashboard failure must not fail the status check: %v", err)
	}
	if info.DashboardURL != "https://old.example.com" {
		t.Fatalf("expected cached dashboard link, got %q", info.DashboardURL)
	}
}
