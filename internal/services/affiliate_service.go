package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"greenriot/internal/db"
	"greenriot/internal/ledger"
	"greenriot/internal/models"
	"greenriot/internal/money"
	"greenriot/internal/payout"
	"greenriot/internal/store"
	"greenriot/internal/websocket"
)

var (
	ErrReferralNotFound = errors.New("referral not found")
	ErrSessionNotPaid   = errors.New("session not paid")

	// errAlreadyPaid is internal to the commission flow; callers receive an
	// already-paid result rather than an error.
	errAlreadyPaid = errors.New("commission already paid")
)

type ReferralStore interface {
	GetByID(ctx context.Context, referralID string) (models.Referral, error)
	FindUnpaidByReferredUser(ctx context.Context, referredUserID string, window time.Duration) (models.Referral, error)
	MarkPaid(ctx context.Context, tx store.Execer, referralID string, amount int64) (int64, error)
	InsertCommission(ctx context.Context, tx store.Execer, input store.CommissionInput) error
}

type SessionResolver interface {
	GetCheckoutSession(ctx context.Context, sessionID string) (payout.CheckoutSession, error)
}

// AffiliateService pays referral commissions. The canonical rule is a
// percentage of the subscription price; the manual path keeps the legacy
// flat fee for operator-triggered payouts. Both paths share the same
// exactly-once guard: the conditional commission_paid update.
type AffiliateService struct {
	txRunner        db.TxRunner
	ledger          *ledger.Ledger
	referrals       ReferralStore
	sessions        SessionResolver
	hub             BalanceHub
	rate            decimal.Decimal
	flatFeeMinor    int64
	window          time.Duration
	defaultCurrency string
	log             *zap.Logger
}

func NewAffiliateService(txRunner db.TxRunner, lgr *ledger.Ledger, referrals ReferralStore, sessions SessionResolver, hub BalanceHub, rate decimal.Decimal, flatFeeMinor int64, window time.Duration, defaultCurrency string, log *zap.Logger) *AffiliateService {
	return &AffiliateService{
		txRunner:        txRunner,
		ledger:          lgr,
		referrals:       referrals,
		sessions:        sessions,
		hub:             hub,
		rate:            rate,
		flatFeeMinor:    flatFeeMinor,
		window:          window,
		defaultCurrency: defaultCurrency,
		log:             log,
	}
}

type CommissionResult struct {
	Processed       bool
	AlreadyPaid     bool
	Commission      int64
	AffiliateUserID string
	NewBalance      int64
	PaidAt          *time.Time
	Message         string
}

// ProcessSession handles a subscription-purchase completion event. A
// purchaser without an eligible referral is a no-op success, not an error.
func (s *AffiliateService) ProcessSession(ctx context.Context, sessionID string) (CommissionResult, error) {
	session, err := s.sessions.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return CommissionResult{}, err
	}
	if !session.Paid {
		return CommissionResult{}, ErrSessionNotPaid
	}
	referral, err := s.referrals.FindUnpaidByReferredUser(ctx, session.ClientReferenceID, s.window)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CommissionResult{Message: "no eligible referral"}, nil
		}
		return CommissionResult{}, err
	}
	currency := session.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}
	commission := ledger.CommissionFor(session.AmountTotal, s.rate)
	if commission <= 0 {
		return CommissionResult{Message: "commission rounds to zero"}, nil
	}
	return s.pay(ctx, referral, commission, currency, &session.ID)
}

// ProcessManual pays the legacy flat fee for a specific referral. Replaying
// an already-paid referral returns the prior outcome, never a second
// credit.
func (s *AffiliateService) ProcessManual(ctx context.Context, referralID string) (CommissionResult, error) {
	referral, err := s.referrals.GetByID(ctx, referralID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CommissionResult{}, ErrReferralNotFound
		}
		return CommissionResult{}, err
	}
	if referral.CommissionPaid {
		return s.alreadyPaid(referral), nil
	}
	return s.pay(ctx, referral, s.flatFeeMinor, s.defaultCurrency, nil)
}

func (s *AffiliateService) pay(ctx context.Context, referral models.Referral, commission int64, currency string, sessionID *string) (CommissionResult, error) {
	var result CommissionResult
	var walletID string
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		updated, err := s.referrals.MarkPaid(ctx, tx, referral.ID, commission)
		if err != nil {
			return err
		}
		if updated == 0 {
			return errAlreadyPaid
		}
		if err := s.referrals.InsertCommission(ctx, tx, store.CommissionInput{
			ID:              uuid.NewString(),
			AffiliateUserID: referral.AffiliateUserID,
			ReferralID:      referral.ID,
			Amount:          commission,
			Status:          "paid",
			ExternalSession: sessionID,
		}); err != nil {
			return err
		}
		walletID, err = s.ledger.Resolve(ctx, tx, referral.AffiliateUserID, currency)
		if err != nil {
			return err
		}
		credit, err := s.ledger.Apply(ctx, tx, ledger.Entry{
			WalletID:    walletID,
			UserID:      referral.AffiliateUserID,
			Type:        ledger.TypeCredit,
			Amount:      commission,
			Currency:    currency,
			Description: "Affiliate commission for referral " + referral.ID,
			ObjectType:  ledger.ObjectAffiliateCommission,
			ExternalRef: sessionID,
		})
		if err != nil {
			return err
		}
		result = CommissionResult{
			Processed:       true,
			Commission:      commission,
			AffiliateUserID: referral.AffiliateUserID,
			NewBalance:      credit.NewBalance,
			Message:         "commission paid",
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, errAlreadyPaid) {
			// Lost the race to another processor invocation; report the
			// committed outcome.
			current, lookupErr := s.referrals.GetByID(ctx, referral.ID)
			if lookupErr != nil {
				return CommissionResult{}, lookupErr
			}
			return s.alreadyPaid(current), nil
		}
		return CommissionResult{}, err
	}
	s.log.Info("affiliate commission paid",
		zap.String("referral_id", referral.ID),
		zap.String("affiliate_user_id", referral.AffiliateUserID),
		zap.Int64("commission", commission))
	s.hub.BroadcastBalance(referral.AffiliateUserID, websocket.BalanceUpdate{
		WalletID: walletID,
		Balance:  money.FormatMinor(result.NewBalance),
		Currency: currency,
	})
	return result, nil
}

func (s *AffiliateService) alreadyPaid(referral models.Referral) CommissionResult {
	return CommissionResult{
		AlreadyPaid:     true,
		Commission:      referral.CommissionAmount,
		AffiliateUserID: referral.AffiliateUserID,
		PaidAt:          referral.SubscriptionDate,
		Message:         "commission already paid",
	}
}
