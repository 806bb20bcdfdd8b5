package handlers

import (
	"net/http"
	"strconv"

	"greenriot/internal/middleware"
)

func (h *Handler) ListWallets(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	wallets, err := h.wallets.GetByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load wallets")
		return
	}
	normalized := make([]map[string]any, 0, len(wallets))
	for _, wallet := range wallets {
		normalized = append(normalized, map[string]any{
			"id":             wallet.ID,
			"user_id":        wallet.UserID,
			"currency":       wallet.Currency,
			"balance":        valueToMoney(wallet.StoredBalance),
			"ledger_balance": valueToMoney(wallet.CalculatedBalance),
			"difference":     valueToMoney(wallet.Difference),
			"created_at":     wallet.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	query := r.URL.Query()
	txType := query.Get("type")
	page := parseInt(query.Get("page"), 1)
	limit := parseInt(query.Get("limit"), 20)
	offset := (page - 1) * limit
	transactions, err := h.txs.ListByUser(r.Context(), userID, txType, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	normalized := make([]map[string]any, 0, len(transactions))
	for _, tx := range transactions {
		normalized = append(normalized, map[string]any{
			"id":           tx.ID,
			"wallet_id":    tx.WalletID,
			"type":         tx.Type,
			"status":       tx.Status,
			"amount":       valueToMoney(tx.Amount),
			"currency":     tx.Currency,
			"description":  tx.Description,
			"object_type":  tx.ObjectType,
			"external_ref": tx.ExternalRef,
			"created_at":   tx.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}

func parseInt(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
