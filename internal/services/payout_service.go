package services

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"greenriot/internal/models"
	"greenriot/internal/payout"
)

type ConnectedAccountStore interface {
	Get(ctx context.Context, userID string) (models.ConnectedAccount, error)
	Upsert(ctx context.Context, account models.ConnectedAccount) error
}

type UserStore interface {
	GetByID(ctx context.Context, userID string) (models.User, error)
}

// PayoutService manages the connected-account lifecycle. Every transition
// is a re-derivation from the processor's account object; the local row is
// only a cache that short-circuits the already-active case.
type PayoutService struct {
	accounts   ConnectedAccountStore
	users      UserStore
	provider   payout.Provider
	returnURL  string
	refreshURL string
	log        *zap.Logger
}

func NewPayoutService(accounts ConnectedAccountStore, users UserStore, provider payout.Provider, returnURL, refreshURL string, log *zap.Logger) *PayoutService {
	return &PayoutService{
		accounts:   accounts,
		users:      users,
		provider:   provider,
		returnURL:  returnURL,
		refreshURL: refreshURL,
		log:        log,
	}
}

type AccountInfo struct {
	AccountID       string
	Status          payout.Status
	OnboardingURL   string
	DashboardURL    string
	NeedsOnboarding bool
}

// CreateOrRetrieve returns the user's connected account, creating the
// external account on first use. An already-active account returns
// immediately with its dashboard link; anything else gets a fresh
// onboarding link.
func (s *PayoutService) CreateOrRetrieve(ctx context.Context, userID string) (AccountInfo, error) {
	existing, err := s.accounts.Get(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return AccountInfo{}, err
	}
	if err == nil && existing.Status == string(payout.StatusActive) {
		return AccountInfo{
			AccountID:       existing.AccountID,
			Status:          payout.StatusActive,
			DashboardURL:    existing.DashboardURL,
			NeedsOnboarding: false,
		}, nil
	}

	accountID := existing.AccountID
	if accountID == "" {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return AccountInfo{}, err
		}
		account, err := s.provider.CreateAccount(ctx, user.Email)
		if err != nil {
			return AccountInfo{}, err
		}
		accountID = account.ID
	}

	onboardingURL, err := s.provider.CreateOnboardingLink(ctx, accountID, s.refreshURL, s.returnURL)
	if err != nil {
		return AccountInfo{}, err
	}

	status := existing.Status
	if status == "" {
		status = string(payout.StatusPending)
	}
	if err := s.accounts.Upsert(ctx, models.ConnectedAccount{
		UserID:           userID,
		AccountID:        accountID,
		Status:           status,
		OnboardingURL:    onboardingURL,
		DashboardURL:     existing.DashboardURL,
		DetailsSubmitted: existing.DetailsSubmitted,
		ChargesEnabled:   existing.ChargesEnabled,
		PayoutsEnabled:   existing.PayoutsEnabled,
		Requirements:     existing.Requirements,
	}); err != nil {
		return AccountInfo{}, err
	}
	return AccountInfo{
		AccountID:       accountID,
		Status:          payout.Status(status),
		OnboardingURL:   onboardingURL,
		DashboardURL:    existing.DashboardURL,
		NeedsOnboarding: true,
	}, nil
}

type StatusInfo struct {
	Status          payout.Status
	CanWithdraw     bool
	StatusMessage   string
	OnboardingURL   string
	DashboardURL    string
	NeedsOnboarding bool
	Requirements    []string
}

// CheckStatus re-fetches the processor account and reclassifies it. The
// onboarding link is regenerated whenever the account is not active; the
// dashboard link is best-effort and its absence is not an error.
func (s *PayoutService) CheckStatus(ctx context.Context, userID string) (StatusInfo, error) {
	existing, err := s.accounts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StatusInfo{
				Status:          payout.StatusNotConnected,
				StatusMessage:   payout.StatusMessage(payout.StatusNotConnected),
				NeedsOnboarding: true,
				Requirements:    []string{},
			}, nil
		}
		return StatusInfo{}, err
	}

	account, err := s.provider.GetAccount(ctx, existing.AccountID)
	if err != nil {
		return StatusInfo{}, err
	}
	status := payout.DeriveStatus(account)

	onboardingURL := existing.OnboardingURL
	if status != payout.StatusActive {
		url, err := s.provider.CreateOnboardingLink(ctx, existing.AccountID, s.refreshURL, s.returnURL)
		if err != nil {
			return StatusInfo{}, err
		}
		onboardingURL = url
	}
	dashboardURL := existing.DashboardURL
	if url, err := s.provider.CreateDashboardLink(ctx, existing.AccountID); err == nil {
		dashboardURL = url
	} else {
		s.log.Debug("dashboard link unavailable",
			zap.String("account_id", existing.AccountID),
			zap.Error(err))
	}

	requirements := account.Requirements
	if requirements == nil {
		requirements = []string{}
	}
	if err := s.accounts.Upsert(ctx, models.ConnectedAccount{
		UserID:           userID,
		AccountID:        existing.AccountID,
		Status:           string(status),
		OnboardingURL:    onboardingURL,
		DashboardURL:     dashboardURL,
		DetailsSubmitted: account.DetailsSubmitted,
		ChargesEnabled:   account.ChargesEnabled,
		PayoutsEnabled:   account.PayoutsEnabled,
		Requirements:     requirements,
	}); err != nil {
		return StatusInfo{}, err
	}

	return StatusInfo{
		Status:          status,
		CanWithdraw:     payout.CanWithdraw(status),
		StatusMessage:   payout.StatusMessage(status),
		OnboardingURL:   onboardingURL,
		DashboardURL:    dashboardURL,
		NeedsOnboarding: status != payout.StatusActive,
		Requirements:    requirements,
	}, nil
}
