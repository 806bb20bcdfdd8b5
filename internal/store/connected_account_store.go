package store

import (
	"context"

	"github.com/lib/pq"

	"greenriot/internal/models"
)

type ConnectedAccountStore struct {
	db DB
}

func NewConnectedAccountStore(db DB) *ConnectedAccountStore {
	return &ConnectedAccountStore{db: db}
}

type connectedAccountRow struct {
	UserID           string         `db:"user_id"`
	AccountID        string         `db:"account_id"`
	Status           string         `db:"status"`
	OnboardingURL    string         `db:"onboarding_url"`
	DashboardURL     string         `db:"dashboard_url"`
	DetailsSubmitted bool           `db:"details_submitted"`
	ChargesEnabled   bool           `db:"charges_enabled"`
	PayoutsEnabled   bool           `db:"payouts_enabled"`
	Requirements     pq.StringArray `db:"requirements"`
}

func (s *ConnectedAccountStore) Get(ctx context.Context, userID string) (models.ConnectedAccount, error) {
	var row connectedAccountRow
	err := s.db.GetContext(ctx, &row, `
		SELECT user_id, account_id, status, onboarding_url, dashboard_url, details_submitted, charges_enabled, payouts_enabled, requirements
		FROM connected_accounts
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return models.ConnectedAccount{}, err
	}
	return models.ConnectedAccount{
		UserID:           row.UserID,
		AccountID:        row.AccountID,
		Status:           row.Status,
		OnboardingURL:    row.OnboardingURL,
		DashboardURL:     row.DashboardURL,
		DetailsSubmitted: row.DetailsSubmitted,
		ChargesEnabled:   row.ChargesEnabled,
		PayoutsEnabled:   row.PayoutsEnabled,
		Requirements:     row.Requirements,
	}, nil
}

// Upsert refreshes the cached snapshot. The processor remains authoritative;
// this row only saves a round trip when the account is already active.
func (s *ConnectedAccountStore) Upsert(ctx context.Context, account models.ConnectedAccount) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO connected_accounts (user_id, account_id, status, onboarding_url, dashboard_url, details_submitted, charges_enabled, payouts_enabled, requirements)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			account_id = EXCLUDED.account_id,
			status = EXCLUDED.status,
			onboarding_url = EXCLUDED.onboarding_url,
			dashboard_url = EXCLUDED.dashboard_url,
			details_submitted = EXCLUDED.details_submitted,
			charges_enabled = EXCLUDED.charges_enabled,
			payouts_enabled = EXCLUDED.payouts_enabled,
			requirements = EXCLUDED.requirements,
			updated_at = NOW()
	`, account.UserID, account.AccountID, account.Status, account.OnboardingURL, account.DashboardURL,
		account.DetailsSubmitted, account.ChargesEnabled, account.PayoutsEnabled, pq.StringArray(account.Requirements))
	return err
}
