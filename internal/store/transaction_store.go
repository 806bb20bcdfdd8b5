package store

import (
	"context"

	"greenriot/internal/models"
)

type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

type TransactionInput struct {
	ID          string
	WalletID    *string
	UserID      *string
	Type        string
	Status      string
	Amount      int64
	Currency    string
	Description string
	ObjectType  string
	ExternalRef *string
}

func (s *TransactionStore) Create(ctx context.Context, tx Execer, input TransactionInput) error {
	query := `
		INSERT INTO transactions (id, wallet_id, user_id, type, status, amount, currency, description, object_type, external_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := tx.ExecContext(ctx, query, input.ID, input.WalletID, input.UserID, input.Type, input.Status,
		input.Amount, input.Currency, input.Description, input.ObjectType, input.ExternalRef)
	return err
}

func (s *TransactionStore) ListByUser(ctx context.Context, userID, txType string, limit, offset int) ([]models.Transaction, error) {
	var rows []models.Transaction
	query := `
		SELECT id, wallet_id, user_id, type, status, amount, currency, description, object_type, external_ref, created_at
		FROM transactions
		WHERE user_id = $1 AND ($2 = '' OR type = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	err := s.db.SelectContext(ctx, &rows, query, userID, txType, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SignedSumByWallet folds the transaction log for one wallet back into a
// balance. Used by the audit self-check.
func (s *TransactionStore) SignedSumByWallet(ctx context.Context, walletID string) (int64, error) {
	var sum int64
	err := s.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(CASE WHEN type IN ('credit', 'deposit') THEN amount ELSE -amount END), 0)
		FROM transactions
		WHERE wallet_id = $1 AND status = 'completed'
	`, walletID)
	return sum, err
}

func (s *TransactionStore) CountByWallet(ctx context.Context, walletID string) (int64, error) {
	var count int64
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM transactions
		WHERE wallet_id = $1
	`, walletID)
	return count, err
}
