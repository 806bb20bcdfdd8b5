package store

import (
	"context"

	"greenriot/internal/models"
)

type ListingStore struct {
	db DB
}

func NewListingStore(db DB) *ListingStore {
	return &ListingStore{db: db}
}

type ListingInput struct {
	ID          string
	UserID      string
	Kind        string
	Title       string
	Description string
	ImageURL    string
	Latitude    float64
	Longitude   float64
	Price       int64
	MarketID    *string
}

func (s *ListingStore) Create(ctx context.Context, input ListingInput) error {
	query := `
		INSERT INTO listings (id, user_id, kind, title, description, image_url, latitude, longitude, price, market_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query, input.ID, input.UserID, input.Kind, input.Title, input.Description,
		input.ImageURL, input.Latitude, input.Longitude, input.Price, input.MarketID)
	return err
}

func (s *ListingStore) GetByID(ctx context.Context, listingID string) (models.Listing, error) {
	var row models.Listing
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, kind, title, description, image_url, latitude, longitude, price, sold, market_id, created_at
		FROM listings
		WHERE id = $1
	`, listingID)
	return row, err
}

func (s *ListingStore) List(ctx context.Context, kind string, limit, offset int) ([]models.Listing, error) {
	var rows []models.Listing
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, kind, title, description, image_url, latitude, longitude, price, sold, market_id, created_at
		FROM listings
		WHERE sold = FALSE AND ($1 = '' OR kind = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, kind, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes a consumed listing after a purchase settles. Returns the
// number of rows removed so the caller can log an already-gone listing.
func (s *ListingStore) Delete(ctx context.Context, listingID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, listingID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
