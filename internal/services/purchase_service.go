package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"greenriot/internal/db"
	"greenriot/internal/ledger"
	"greenriot/internal/models"
	"greenriot/internal/money"
	"greenriot/internal/websocket"
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrUnsupportedCurrency = errors.New("unsupported currency")
	ErrObjectNotFound      = errors.New("object not found")
	ErrSelfPurchase        = errors.New("cannot purchase your own listing")
)

type ListingStore interface {
	GetByID(ctx context.Context, listingID string) (models.Listing, error)
	Delete(ctx context.Context, listingID string) (int64, error)
}

type BalanceHub interface {
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
}

// PurchaseService orchestrates the coordinate sale: buyer pays the full
// amount, the seller receives it minus the platform fee, the fee lands on
// the company wallet, and the listing is consumed.
type PurchaseService struct {
	txRunner   db.TxRunner
	ledger     *ledger.Ledger
	listings   ListingStore
	hub        BalanceHub
	feeRate    decimal.Decimal
	currencies map[string]bool
	log        *zap.Logger
}

func NewPurchaseService(txRunner db.TxRunner, lgr *ledger.Ledger, listings ListingStore, hub BalanceHub, feeRate decimal.Decimal, currencies []string, log *zap.Logger) *PurchaseService {
	supported := make(map[string]bool, len(currencies))
	for _, c := range currencies {
		supported[c] = true
	}
	return &PurchaseService{
		txRunner:   txRunner,
		ledger:     lgr,
		listings:   listings,
		hub:        hub,
		feeRate:    feeRate,
		currencies: supported,
		log:        log,
	}
}

type PurchaseRequest struct {
	// BuyerID comes from the authenticated session, never from the payload.
	BuyerID     string
	ObjectID    string
	Amount      int64
	Description string
	ObjectType  string
	Currency    string
}

type PurchaseResult struct {
	TransactionID string
	NewBalance    int64
	Currency      string
	SellerAmount  int64
	PlatformFee   int64
}

// Purchase validates in order (amount, currency, object, ownership), then
// moves the three legs of the split inside one serializable transaction.
// Either the buyer debit, seller credit and fee credit all commit, or none
// do. Listing deletion happens after commit and is best-effort: the payment
// already settled, so a failed delete is logged, not returned.
func (s *PurchaseService) Purchase(ctx context.Context, req PurchaseRequest) (PurchaseResult, error) {
	if req.Amount <= 0 {
		return PurchaseResult{}, ErrInvalidAmount
	}
	if !s.currencies[req.Currency] {
		return PurchaseResult{}, ErrUnsupportedCurrency
	}
	listing, err := s.listings.GetByID(ctx, req.ObjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PurchaseResult{}, ErrObjectNotFound
		}
		return PurchaseResult{}, err
	}
	if listing.UserID == req.BuyerID {
		return PurchaseResult{}, ErrSelfPurchase
	}

	platformFee := ledger.PlatformFee(req.Amount, s.feeRate)
	sellerAmount := req.Amount - platformFee

	objectType := req.ObjectType
	if objectType == "" {
		objectType = ledger.ObjectCoordinate
	}
	description := req.Description
	if description == "" {
		description = "Coordinate purchase: " + listing.Title
	}

	var result PurchaseResult
	var buyerWalletID, sellerWalletID string
	var sellerBalance int64
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		buyerWalletID, err = s.ledger.Resolve(ctx, tx, req.BuyerID, req.Currency)
		if err != nil {
			return err
		}
		debit, err := s.ledger.Apply(ctx, tx, ledger.Entry{
			WalletID:    buyerWalletID,
			UserID:      req.BuyerID,
			Type:        ledger.TypeDebit,
			Amount:      req.Amount,
			Currency:    req.Currency,
			Description: description,
			ObjectType:  objectType,
		})
		if err != nil {
			return err
		}

		// sellerAmount is zero when the fee floor eats a 1-unit sale; the
		// ledger rejects zero amounts, so skip the leg entirely.
		if sellerAmount > 0 {
			sellerWalletID, err = s.ledger.Resolve(ctx, tx, listing.UserID, req.Currency)
			if err != nil {
				return err
			}
			credit, err := s.ledger.Apply(ctx, tx, ledger.Entry{
				WalletID:    sellerWalletID,
				UserID:      listing.UserID,
				Type:        ledger.TypeCredit,
				Amount:      sellerAmount,
				Currency:    req.Currency,
				Description: "Coordinate sale: " + listing.Title,
				ObjectType:  ledger.ObjectCoordinateSale,
			})
			if err != nil {
				return err
			}
			sellerBalance = credit.NewBalance
		}

		if _, err := s.ledger.CreditCompany(ctx, tx, platformFee, req.Currency, "Platform fee on coordinate sale"); err != nil {
			return err
		}

		result = PurchaseResult{
			TransactionID: debit.TransactionID,
			NewBalance:    debit.NewBalance,
			Currency:      req.Currency,
			SellerAmount:  sellerAmount,
			PlatformFee:   platformFee,
		}
		return nil
	})
	if err != nil {
		return PurchaseResult{}, err
	}

	if deleted, err := s.listings.Delete(ctx, req.ObjectID); err != nil {
		s.log.Error("failed to delete purchased listing",
			zap.String("listing_id", req.ObjectID),
			zap.String("transaction_id", result.TransactionID),
			zap.Error(err))
	} else if deleted == 0 {
		s.log.Warn("purchased listing already gone",
			zap.String("listing_id", req.ObjectID))
	}

	s.hub.BroadcastBalance(req.BuyerID, websocket.BalanceUpdate{
		WalletID: buyerWalletID,
		Balance:  money.FormatMinor(result.NewBalance),
		Currency: req.Currency,
	})
	if sellerWalletID != "" {
		s.hub.BroadcastBalance(listing.UserID, websocket.BalanceUpdate{
			WalletID: sellerWalletID,
			Balance:  money.FormatMinor(sellerBalance),
			Currency: req.Currency,
		})
	}
	return result, nil
}
