package store

import (
	"context"

	"greenriot/internal/models"
)

// CompanyWalletStore mutates the singleton platform-fee row. It is a global
// hotspot under concurrent purchases; callers must hold the row lock taken
// by GetForUpdate for the duration of the enclosing transaction.
type CompanyWalletStore struct {
	db DB
}

func NewCompanyWalletStore(db DB) *CompanyWalletStore {
	return &CompanyWalletStore{db: db}
}

func (s *CompanyWalletStore) Get(ctx context.Context) (models.CompanyWallet, error) {
	var row models.CompanyWallet
	err := s.db.GetContext(ctx, &row, `
		SELECT id, balance, currency, updated_at
		FROM company_wallet
		WHERE id = 1
	`)
	return row, err
}

func (s *CompanyWalletStore) GetForUpdate(ctx context.Context, tx Getter) (models.CompanyWallet, error) {
	var row models.CompanyWallet
	err := tx.GetContext(ctx, &row, `
		SELECT id, balance, currency, updated_at
		FROM company_wallet
		WHERE id = 1
		FOR UPDATE
	`)
	return row, err
}

func (s *CompanyWalletStore) UpdateBalance(ctx context.Context, tx Execer, balance int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE company_wallet
		SET balance = $1, updated_at = NOW()
		WHERE id = 1
	`, balance)
	return err
}
