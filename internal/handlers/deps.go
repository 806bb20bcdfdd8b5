package handlers

import (
	"context"

	"greenriot/internal/models"
	"greenriot/internal/selftest"
	"greenriot/internal/services"
	"greenriot/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash, affiliateCode string) error
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, userID string) (models.User, error)
	GetByAffiliateCode(ctx context.Context, code string) (models.User, error)
}

type WalletStore interface {
	GetByUser(ctx context.Context, userID string) ([]store.WalletBalanceSummary, error)
}

type TransactionStore interface {
	ListByUser(ctx context.Context, userID, txType string, limit, offset int) ([]models.Transaction, error)
}

type ListingStore interface {
	Create(ctx context.Context, input store.ListingInput) error
	GetByID(ctx context.Context, listingID string) (models.Listing, error)
	List(ctx context.Context, kind string, limit, offset int) ([]models.Listing, error)
}

type ReferralStore interface {
	Create(ctx context.Context, tx store.Execer, id, affiliateUserID, referredUserID, affiliateCode string) error
}

type PurchaseService interface {
	Purchase(ctx context.Context, req services.PurchaseRequest) (services.PurchaseResult, error)
}

type AffiliateService interface {
	ProcessSession(ctx context.Context, sessionID string) (services.CommissionResult, error)
	ProcessManual(ctx context.Context, referralID string) (services.CommissionResult, error)
}

type PayoutService interface {
	CreateOrRetrieve(ctx context.Context, userID string) (services.AccountInfo, error)
	CheckStatus(ctx context.Context, userID string) (services.StatusInfo, error)
}

type SelfTestHarness interface {
	Run(ctx context.Context) (selftest.Results, selftest.Summary)
}
