package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"greenriot/internal/ledger"
	"greenriot/internal/middleware"
	"greenriot/internal/money"
	"greenriot/internal/payout"
	"greenriot/internal/services"
)

type coordinatePaymentRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
	ObjectType  string `json:"object_type"`
	Currency    string `json:"currency"`
	ObjectID    string `json:"object_id"`
}

func (h *Handler) CreateCoordinatePayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req coordinatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amountMinor, err := money.ParseMinor(req.Amount)
	if err != nil || amountMinor <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	if req.ObjectID == "" {
		respondError(w, http.StatusBadRequest, "object_id is required")
		return
	}
	result, err := h.purchases.Purchase(r.Context(), services.PurchaseRequest{
		BuyerID:     userID,
		ObjectID:    req.ObjectID,
		Amount:      amountMinor,
		Description: req.Description,
		ObjectType:  req.ObjectType,
		Currency:    req.Currency,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidAmount):
			respondError(w, http.StatusBadRequest, "invalid_amount")
		case errors.Is(err, services.ErrUnsupportedCurrency):
			respondError(w, http.StatusBadRequest, "unsupported_currency")
		case errors.Is(err, services.ErrObjectNotFound):
			respondError(w, http.StatusNotFound, "object_not_found")
		case errors.Is(err, services.ErrSelfPurchase):
			respondError(w, http.StatusBadRequest, "self_purchase_forbidden")
		case errors.Is(err, ledger.ErrInsufficientFunds):
			respondError(w, http.StatusBadRequest, "insufficient_funds")
		case errors.Is(err, ledger.ErrCurrencyMismatch):
			respondError(w, http.StatusBadRequest, "currency_mismatch")
		default:
			h.log.Error("coordinate payment failed", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "payment_failed")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"transaction_id": result.TransactionID,
		"new_balance":    valueToMoney(result.NewBalance),
		"currency":       result.Currency,
		"sellerAmount":   valueToMoney(result.SellerAmount),
		"platformFee":    valueToMoney(result.PlatformFee),
		"message":        "coordinate purchased",
	})
}

func (h *Handler) CreateExpressAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	info, err := h.payouts.CreateOrRetrieve(r.Context(), userID)
	if err != nil {
		var apiErr *payout.APIError
		if errors.As(err, &apiErr) {
			respondJSON(w, http.StatusBadRequest, map[string]any{
				"error":   "payment processor rejected the request",
				"details": apiErr.Message,
			})
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to create payout account")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":          true,
		"account_id":       info.AccountID,
		"account_status":   info.Status,
		"onboarding_url":   info.OnboardingURL,
		"dashboard_url":    info.DashboardURL,
		"needs_onboarding": info.NeedsOnboarding,
	})
}

func (h *Handler) CheckAccountStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	info, err := h.payouts.CheckStatus(r.Context(), userID)
	if err != nil {
		var apiErr *payout.APIError
		if errors.As(err, &apiErr) {
			respondJSON(w, http.StatusBadGateway, map[string]any{
				"error":   "payment processor unavailable",
				"details": apiErr.Message,
			})
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to check account status")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"account_status":   info.Status,
		"can_withdraw":     info.CanWithdraw,
		"status_message":   info.StatusMessage,
		"onboarding_url":   info.OnboardingURL,
		"dashboard_url":    info.DashboardURL,
		"needs_onboarding": info.NeedsOnboarding,
		"requirements":     info.Requirements,
	})
}

func (h *Handler) SelfTest(w http.ResponseWriter, r *http.Request) {
	results, summary := h.selfTest.Run(r.Context())
	message := "all payment system checks passed"
	if summary.PassedTests < summary.TotalTests {
		message = "some payment system checks failed"
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":     summary.PassedTests == summary.TotalTests,
		"testResults": results,
		"summary":     summary,
		"message":     message,
	})
}
