package store

import (
	"context"
	"time"

	"greenriot/internal/models"
)

type ReferralStore struct {
	db DB
}

func NewReferralStore(db DB) *ReferralStore {
	return &ReferralStore{db: db}
}

func (s *ReferralStore) Create(ctx context.Context, tx Execer, id, affiliateUserID, referredUserID, affiliateCode string) error {
	query := `
		INSERT INTO referrals (id, affiliate_user_id, referred_user_id, affiliate_code)
		VALUES ($1, $2, $3, $4)
	`
	_, err := tx.ExecContext(ctx, query, id, affiliateUserID, referredUserID, affiliateCode)
	return err
}

func (s *ReferralStore) GetByID(ctx context.Context, referralID string) (models.Referral, error) {
	var row models.Referral
	err := s.db.GetContext(ctx, &row, `
		SELECT id, affiliate_user_id, referred_user_id, affiliate_code, referred_at, commission_paid, commission_amount, subscription_date
		FROM referrals
		WHERE id = $1
	`, referralID)
	return row, err
}

// FindUnpaidByReferredUser returns the unpaid referral for a purchaser
// whose referred_at falls inside the attribution window. sql.ErrNoRows
// means the purchaser has no eligible referrer, which is the common case.
func (s *ReferralStore) FindUnpaidByReferredUser(ctx context.Context, referredUserID string, window time.Duration) (models.Referral, error) {
	var row models.Referral
	err := s.db.GetContext(ctx, &row, `
		SELECT id, affiliate_user_id, referred_user_id, affiliate_code, referred_at, commission_paid, commission_amount, subscription_date
		FROM referrals
		WHERE referred_user_id = $1
		  AND commission_paid = FALSE
		  AND referred_at > NOW() - $2::interval
		ORDER BY referred_at DESC
		LIMIT 1
	`, referredUserID, window.String())
	return row, err
}

// MarkPaid flips commission_paid exactly once. The WHERE clause is the
// idempotency guard: a concurrent or repeated processing attempt sees zero
// rows affected and must not credit the affiliate again.
func (s *ReferralStore) MarkPaid(ctx context.Context, tx Execer, referralID string, amount int64) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE referrals
		SET commission_paid = TRUE, commission_amount = $1, subscription_date = NOW()
		WHERE id = $2 AND commission_paid = FALSE
	`, amount, referralID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type CommissionInput struct {
	ID              string
	AffiliateUserID string
	ReferralID      string
	Amount          int64
	Status          string
	ExternalSession *string
}

func (s *ReferralStore) InsertCommission(ctx context.Context, tx Execer, input CommissionInput) error {
	query := `
		INSERT INTO affiliate_commissions (id, affiliate_user_id, referral_id, amount, status, external_session, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`
	_, err := tx.ExecContext(ctx, query, input.ID, input.AffiliateUserID, input.ReferralID, input.Amount, input.Status, input.ExternalSession)
	return err
}

func (s *ReferralStore) GetCommissionByReferral(ctx context.Context, referralID string) (models.AffiliateCommission, error) {
	var row models.AffiliateCommission
	err := s.db.GetContext(ctx, &row, `
		SELECT id, affiliate_user_id, referral_id, amount, status, external_session, processed_at
		FROM affiliate_commissions
		WHERE referral_id = $1
		ORDER BY processed_at DESC
		LIMIT 1
	`, referralID)
	return row, err
}

func (s *ReferralStore) CountReferrals(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM referrals`)
	return count, err
}
