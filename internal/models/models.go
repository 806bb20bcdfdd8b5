package models

import "time"

type User struct {
	ID            string    `db:"id" json:"id"`
	Username      string    `db:"username" json:"username"`
	Email         string    `db:"email" json:"email"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	AffiliateCode string    `db:"affiliate_code" json:"affiliate_code"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Wallet is a per-user, per-currency balance. Balances are int64 minor
// units and only change through the ledger primitive.
type Wallet struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Currency  string    `db:"currency" json:"currency"`
	Balance   int64     `db:"balance" json:"balance"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction is the append-only audit record. Exactly one row exists per
// ledger application; amount is the positive magnitude, type carries the
// sign. Company-fee rows have nil wallet and user ids.
type Transaction struct {
	ID          string    `db:"id" json:"id"`
	WalletID    *string   `db:"wallet_id" json:"wallet_id,omitempty"`
	UserID      *string   `db:"user_id" json:"user_id,omitempty"`
	Type        string    `db:"type" json:"type"`
	Status      string    `db:"status" json:"status"`
	Amount      int64     `db:"amount" json:"amount"`
	Currency    string    `db:"currency" json:"currency"`
	Description string    `db:"description" json:"description"`
	ObjectType  string    `db:"object_type" json:"object_type"`
	ExternalRef *string   `db:"external_ref" json:"external_ref,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CompanyWallet is the singleton platform-fee accumulator.
type CompanyWallet struct {
	ID        int       `db:"id" json:"id"`
	Balance   int64     `db:"balance" json:"balance"`
	Currency  string    `db:"currency" json:"currency"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Listing struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Kind        string    `db:"kind" json:"kind"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	ImageURL    string    `db:"image_url" json:"image_url"`
	Latitude    float64   `db:"latitude" json:"latitude"`
	Longitude   float64   `db:"longitude" json:"longitude"`
	Price       int64     `db:"price" json:"price"`
	Sold        bool      `db:"sold" json:"sold"`
	MarketID    *string   `db:"market_id" json:"market_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Referral struct {
	ID               string     `db:"id" json:"id"`
	AffiliateUserID  string     `db:"affiliate_user_id" json:"affiliate_user_id"`
	ReferredUserID   string     `db:"referred_user_id" json:"referred_user_id"`
	AffiliateCode    string     `db:"affiliate_code" json:"affiliate_code"`
	ReferredAt       time.Time  `db:"referred_at" json:"referred_at"`
	CommissionPaid   bool       `db:"commission_paid" json:"commission_paid"`
	CommissionAmount int64      `db:"commission_amount" json:"commission_amount"`
	SubscriptionDate *time.Time `db:"subscription_date" json:"subscription_date,omitempty"`
}

type AffiliateCommission struct {
	ID              string    `db:"id" json:"id"`
	AffiliateUserID string    `db:"affiliate_user_id" json:"affiliate_user_id"`
	ReferralID      string    `db:"referral_id" json:"referral_id"`
	Amount          int64     `db:"amount" json:"amount"`
	Status          string    `db:"status" json:"status"`
	ExternalSession *string   `db:"external_session" json:"external_session,omitempty"`
	ProcessedAt     time.Time `db:"processed_at" json:"processed_at"`
}

// ConnectedAccount caches the external processor's view of a user's payout
// account. The processor is authoritative; this row is re-derived on every
// status check.
type ConnectedAccount struct {
	UserID           string    `db:"user_id" json:"user_id"`
	AccountID        string    `db:"account_id" json:"account_id"`
	Status           string    `db:"status" json:"status"`
	OnboardingURL    string    `db:"onboarding_url" json:"onboarding_url"`
	DashboardURL     string    `db:"dashboard_url" json:"dashboard_url"`
	DetailsSubmitted bool      `db:"details_submitted" json:"details_submitted"`
	ChargesEnabled   bool      `db:"charges_enabled" json:"charges_enabled"`
	PayoutsEnabled   bool      `db:"payouts_enabled" json:"payouts_enabled"`
	Requirements     []string  `db:"-" json:"requirements"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
