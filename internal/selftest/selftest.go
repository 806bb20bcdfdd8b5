package selftest

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Processor is the slice of the payment-processor client the harness
// exercises. Every object it creates is deleted or cancelled before Run
// returns; nothing persists.
type Processor interface {
	Ping(ctx context.Context) error
	CreateCustomer(ctx context.Context, email, description string) (string, error)
	DeleteCustomer(ctx context.Context, customerID string) error
	CreatePaymentIntent(ctx context.Context, amount int64, currency string) (string, error)
	CancelPaymentIntent(ctx context.Context, intentID string) error
}

type WalletCounter interface {
	Count(ctx context.Context) (int64, error)
}

type ReferralCounter interface {
	CountReferrals(ctx context.Context) (int64, error)
}

// Harness runs the diagnostic checks. It is informational only and is
// never invoked by a money-moving path.
type Harness struct {
	processor Processor
	wallets   WalletCounter
	referrals ReferralCounter
	log       *zap.Logger
}

func New(processor Processor, wallets WalletCounter, referrals ReferralCounter, log *zap.Logger) *Harness {
	return &Harness{
		processor: processor,
		wallets:   wallets,
		referrals: referrals,
		log:       log,
	}
}

type Results struct {
	Connectivity           bool     `json:"connectivity"`
	CustomerLifecycle      bool     `json:"customer_lifecycle"`
	PaymentIntentLifecycle bool     `json:"payment_intent_lifecycle"`
	WalletRead             bool     `json:"wallet_read"`
	ReferralRead           bool     `json:"referral_read"`
	Errors                 []string `json:"errors"`
}

type Summary struct {
	PassedTests int    `json:"passedTests"`
	TotalTests  int    `json:"totalTests"`
	SuccessRate string `json:"successRate"`
}

func (h *Harness) Run(ctx context.Context) (Results, Summary) {
	results := Results{Errors: []string{}}

	if err := h.processor.Ping(ctx); err != nil {
		results.Errors = append(results.Errors, fmt.Sprintf("connectivity: %v", err))
	} else {
		results.Connectivity = true
	}

	if err := h.customerLifecycle(ctx); err != nil {
		results.Errors = append(results.Errors, fmt.Sprintf("customer lifecycle: %v", err))
	} else {
		results.CustomerLifecycle = true
	}

	if err := h.paymentIntentLifecycle(ctx); err != nil {
		results.Errors = append(results.Errors, fmt.Sprintf("payment intent lifecycle: %v", err))
	} else {
		results.PaymentIntentLifecycle = true
	}

	if _, err := h.wallets.Count(ctx); err != nil {
		results.Errors = append(results.Errors, fmt.Sprintf("wallet read: %v", err))
	} else {
		results.WalletRead = true
	}

	if _, err := h.referrals.CountReferrals(ctx); err != nil {
		results.Errors = append(results.Errors, fmt.Sprintf("referral read: %v", err))
	} else {
		results.ReferralRead = true
	}

	passed := 0
	for _, ok := range []bool{results.Connectivity, results.CustomerLifecycle, results.PaymentIntentLifecycle, results.WalletRead, results.ReferralRead} {
		if ok {
			passed++
		}
	}
	summary := Summary{
		PassedTests: passed,
		TotalTests:  5,
		SuccessRate: fmt.Sprintf("%d%%", passed*100/5),
	}
	h.log.Info("self-test finished",
		zap.Int("passed", summary.PassedTests),
		zap.Int("total", summary.TotalTests),
		zap.Strings("errors", results.Errors))
	return results, summary
}

func (h *Harness) customerLifecycle(ctx context.Context) error {
	customerID, err := h.processor.CreateCustomer(ctx, "selftest@greenriot.local", "self-test throwaway customer")
	if err != nil {
		return err
	}
	return h.processor.DeleteCustomer(ctx, customerID)
}

func (h *Harness) paymentIntentLifecycle(ctx context.Context) error {
	intentID, err := h.processor.CreatePaymentIntent(ctx, 100, "USD")
	if err != nil {
		return err
	}
	return h.processor.CancelPaymentIntent(ctx, intentID)
}
