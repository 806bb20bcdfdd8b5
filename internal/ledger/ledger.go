package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"greenriot/internal/models"
	"greenriot/internal/store"
)

// Entry types. Debits and withdrawals subtract from the balance, credits
// and deposits add to it. Amounts are always positive magnitudes.
const (
	TypeDebit      = "debit"
	TypeCredit     = "credit"
	TypeDeposit    = "deposit"
	TypeWithdrawal = "withdrawal"
)

const (
	StatusCompleted = "completed"
	StatusPending   = "pending"
	StatusFailed    = "failed"
)

// Object-type tags recorded on transaction rows.
const (
	ObjectCoordinate          = "coordinate"
	ObjectCoordinateSale      = "coordinate_sale"
	ObjectAffiliateCommission = "affiliate_commission"
	ObjectPlatformFee         = "platform_fee"
)

var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInvalidEntryType  = errors.New("invalid entry type")
	ErrWalletNotFound    = errors.New("wallet not found")
	ErrCurrencyMismatch  = errors.New("currency mismatch")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

type WalletStore interface {
	GetOrCreate(ctx context.Context, tx store.Getter, userID, currency string) (string, error)
	GetForUpdate(ctx context.Context, tx store.Getter, walletID string) (models.Wallet, error)
	UpdateBalance(ctx context.Context, tx store.Execer, walletID string, balance int64) error
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error
}

type CompanyWalletStore interface {
	GetForUpdate(ctx context.Context, tx store.Getter) (models.CompanyWallet, error)
	UpdateBalance(ctx context.Context, tx store.Execer, balance int64) error
}

// Ledger is the single mutation path for wallet balances. Every successful
// application updates exactly one balance and inserts exactly one
// transaction row, inside the transaction supplied by the caller, so a flow
// spanning several wallets commits or rolls back as a unit.
type Ledger struct {
	wallets      WalletStore
	transactions TransactionStore
	company      CompanyWalletStore
	log          *zap.Logger
}

func New(wallets WalletStore, transactions TransactionStore, company CompanyWalletStore, log *zap.Logger) *Ledger {
	return &Ledger{
		wallets:      wallets,
		transactions: transactions,
		company:      company,
		log:          log,
	}
}

type Entry struct {
	WalletID    string
	UserID      string
	Type        string
	Amount      int64
	Currency    string
	Description string
	ObjectType  string
	ExternalRef *string
}

type Result struct {
	TransactionID   string
	PreviousBalance int64
	NewBalance      int64
}

// Apply executes one ledger entry against a wallet. The wallet row is
// locked for the remainder of tx, which is what serializes concurrent
// mutations: two simultaneous debits against a balance that covers only one
// of them yield one success and one ErrInsufficientFunds.
func (l *Ledger) Apply(ctx context.Context, tx store.Tx, entry Entry) (Result, error) {
	if entry.Amount <= 0 {
		return Result{}, ErrInvalidAmount
	}
	sign, err := signFor(entry.Type)
	if err != nil {
		return Result{}, err
	}
	wallet, err := l.wallets.GetForUpdate(ctx, tx, entry.WalletID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Result{}, ErrWalletNotFound
		}
		return Result{}, err
	}
	if entry.Currency != "" && wallet.Currency != entry.Currency {
		return Result{}, ErrCurrencyMismatch
	}
	newBalance := wallet.Balance + sign*entry.Amount
	if newBalance < 0 {
		l.log.Warn("debit rejected",
			zap.String("wallet_id", entry.WalletID),
			zap.Int64("balance", wallet.Balance),
			zap.Int64("requested", entry.Amount))
		return Result{}, ErrInsufficientFunds
	}
	if err := l.wallets.UpdateBalance(ctx, tx, entry.WalletID, newBalance); err != nil {
		return Result{}, err
	}
	transactionID := uuid.NewString()
	userID := entry.UserID
	if err := l.transactions.Create(ctx, tx, store.TransactionInput{
		ID:          transactionID,
		WalletID:    &entry.WalletID,
		UserID:      &userID,
		Type:        entry.Type,
		Status:      StatusCompleted,
		Amount:      entry.Amount,
		Currency:    wallet.Currency,
		Description: entry.Description,
		ObjectType:  entry.ObjectType,
		ExternalRef: entry.ExternalRef,
	}); err != nil {
		return Result{}, err
	}
	return Result{
		TransactionID:   transactionID,
		PreviousBalance: wallet.Balance,
		NewBalance:      newBalance,
	}, nil
}

// CreditCompany adds a platform fee to the singleton company wallet and
// records the matching transaction row with no owning wallet or user.
func (l *Ledger) CreditCompany(ctx context.Context, tx store.Tx, amount int64, currency, description string) (Result, error) {
	if amount <= 0 {
		return Result{}, ErrInvalidAmount
	}
	company, err := l.company.GetForUpdate(ctx, tx)
	if err != nil {
		return Result{}, err
	}
	newBalance := company.Balance + amount
	if err := l.company.UpdateBalance(ctx, tx, newBalance); err != nil {
		return Result{}, err
	}
	transactionID := uuid.NewString()
	if err := l.transactions.Create(ctx, tx, store.TransactionInput{
		ID:          transactionID,
		Type:        TypeCredit,
		Status:      StatusCompleted,
		Amount:      amount,
		Currency:    currency,
		Description: description,
		ObjectType:  ObjectPlatformFee,
	}); err != nil {
		return Result{}, err
	}
	return Result{
		TransactionID:   transactionID,
		PreviousBalance: company.Balance,
		NewBalance:      newBalance,
	}, nil
}

// Resolve finds or creates the wallet for a (user, currency) pair inside
// the caller's transaction.
func (l *Ledger) Resolve(ctx context.Context, tx store.Tx, userID, currency string) (string, error) {
	return l.wallets.GetOrCreate(ctx, tx, userID, currency)
}

func signFor(entryType string) (int64, error) {
	switch entryType {
	case TypeCredit, TypeDeposit:
		return 1, nil
	case TypeDebit, TypeWithdrawal:
		return -1, nil
	default:
		return 0, ErrInvalidEntryType
	}
}

// PlatformFee is the marketplace cut on a coordinate sale: rate applied to
// the amount, rounded half away from zero, floored at one minor unit. The
// floor is intentional so the platform earns at least one unit on tiny
// transactions.
func PlatformFee(amount int64, rate decimal.Decimal) int64 {
	fee := decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart()
	if fee < 1 {
		fee = 1
	}
	return fee
}

// CommissionFor computes a percentage-of-price affiliate commission in
// minor units.
func CommissionFor(price int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(price).Mul(rate).Round(0).IntPart()
}
