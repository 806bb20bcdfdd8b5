package store

import (
	"context"

	"greenriot/internal/models"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, tx Execer, id, username, email, passwordHash, affiliateCode string) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, affiliate_code)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.ExecContext(ctx, query, id, username, email, passwordHash, affiliateCode)
	return err
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, email, password_hash, affiliate_code, created_at
		FROM users
		WHERE email = $1
	`, email)
	return row, err
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, email, password_hash, affiliate_code, created_at
		FROM users
		WHERE id = $1
	`, userID)
	return row, err
}

// GetByAffiliateCode resolves the referring user during registration.
func (s *UserStore) GetByAffiliateCode(ctx context.Context, code string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, email, password_hash, affiliate_code, created_at
		FROM users
		WHERE affiliate_code = $1
	`, code)
	return row, err
}
