package payout

import "context"

// Status of a connected payout account, derived from the external
// processor's snapshot on every check. The stored status is a cache, never
// ground truth.
type Status string

const (
	StatusNotConnected Status = "not_connected"
	StatusPending      Status = "pending"
	StatusRestricted   Status = "restricted"
	StatusUnderReview  Status = "under_review"
	StatusActive       Status = "active"
)

// Account is the processor's view of a connected account, reduced to the
// fields the status derivation needs.
type Account struct {
	ID               string
	Email            string
	DetailsSubmitted bool
	ChargesEnabled   bool
	PayoutsEnabled   bool
	Requirements     []string
}

// CheckoutSession is a completed subscription purchase reported by the
// processor. ClientReferenceID carries the purchasing user id.
type CheckoutSession struct {
	ID                string
	ClientReferenceID string
	AmountTotal       int64
	Currency          string
	Paid              bool
}

// Provider abstracts the external payment processor. The payout lifecycle
// depends only on this interface so tests can substitute a fake.
type Provider interface {
	CreateAccount(ctx context.Context, email string) (Account, error)
	GetAccount(ctx context.Context, accountID string) (Account, error)
	CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
	CreateDashboardLink(ctx context.Context, accountID string) (string, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (CheckoutSession, error)
}

// DeriveStatus classifies an account snapshot:
//   - active: details submitted, both capabilities enabled, nothing due
//   - restricted: details submitted but requirements outstanding
//   - under_review: details submitted, nothing due, capabilities pending
//   - pending: everything else
func DeriveStatus(account Account) Status {
	switch {
	case account.DetailsSubmitted && account.ChargesEnabled && account.PayoutsEnabled && len(account.Requirements) == 0:
		return StatusActive
	case account.DetailsSubmitted && len(account.Requirements) > 0:
		return StatusRestricted
	case account.DetailsSubmitted:
		return StatusUnderReview
	default:
		return StatusPending
	}
}

// CanWithdraw gates real-money withdrawal on a fully verified account.
func CanWithdraw(status Status) bool {
	return status == StatusActive
}

func StatusMessage(status Status) string {
	switch status {
	case StatusActive:
		return "account verified, withdrawals enabled"
	case StatusRestricted:
		return "additional information required before withdrawals"
	case StatusUnderReview:
		return "account under review by the payment processor"
	case StatusPending:
		return "onboarding not finished"
	default:
		return "no payout account connected"
	}
}
