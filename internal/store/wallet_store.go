package store

import (
	"context"

	"github.com/google/uuid"

	"greenriot/internal/models"
)

type WalletStore struct {
	db DB
}

func NewWalletStore(db DB) *WalletStore {
	return &WalletStore{db: db}
}

type WalletBalanceSummary struct {
	ID                string `db:"id"`
	UserID            string `db:"user_id"`
	Currency          string `db:"currency"`
	StoredBalance     int64  `db:"stored_balance"`
	CalculatedBalance int64  `db:"calculated_balance"`
	Difference        int64  `db:"difference"`
	CreatedAt         any    `db:"created_at"`
}

// GetOrCreate resolves the wallet for a (user, currency) pair, creating it
// with a zero balance on first use. The upsert makes concurrent calls
// converge on a single row; the no-op DO UPDATE is what lets RETURNING
// yield the id on the conflict path.
func (s *WalletStore) GetOrCreate(ctx context.Context, tx Getter, userID, currency string) (string, error) {
	var id string
	err := tx.GetContext(ctx, &id, `
		INSERT INTO wallets (id, user_id, currency, balance)
		VALUES ($1, $2, $3, 0)
		ON CONFLICT (user_id, currency) DO UPDATE SET updated_at = NOW()
		RETURNING id
	`, uuid.NewString(), userID, currency)
	return id, err
}

func (s *WalletStore) GetByID(ctx context.Context, walletID string) (models.Wallet, error) {
	var row models.Wallet
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, currency, balance, created_at, updated_at
		FROM wallets
		WHERE id = $1
	`, walletID)
	return row, err
}

func (s *WalletStore) GetForUpdate(ctx context.Context, tx Getter, walletID string) (models.Wallet, error) {
	var row models.Wallet
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, currency, balance, created_at, updated_at
		FROM wallets
		WHERE id = $1
		FOR UPDATE
	`, walletID)
	return row, err
}

func (s *WalletStore) UpdateBalance(ctx context.Context, tx Execer, walletID string, balance int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance = $1, updated_at = NOW()
		WHERE id = $2
	`, balance, walletID)
	return err
}

func (s *WalletStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM wallets`)
	return count, err
}

// GetByUser returns each wallet with both its stored balance and the signed
// sum of its transaction rows, so callers can spot ledger drift.
func (s *WalletStore) GetByUser(ctx context.Context, userID string) ([]WalletBalanceSummary, error) {
	var rows []WalletBalanceSummary
	err := s.db.SelectContext(ctx, &rows, `
		SELECT w.id,
		       w.user_id,
		       w.currency,
		       w.balance AS stored_balance,
		       COALESCE(SUM(CASE WHEN t.type IN ('credit', 'deposit') THEN t.amount ELSE -t.amount END), 0) AS calculated_balance,
		       (w.balance - COALESCE(SUM(CASE WHEN t.type IN ('credit', 'deposit') THEN t.amount ELSE -t.amount END), 0)) AS difference,
		       w.created_at
		FROM wallets w
		LEFT JOIN transactions t ON t.wallet_id = w.id AND t.status = 'completed'
		WHERE w.user_id = $1
		GROUP BY w.id, w.user_id, w.currency, w.balance, w.created_at
		ORDER BY w.currency
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
