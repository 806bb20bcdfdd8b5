package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"greenriot/internal/middleware"
	"greenriot/internal/services"
)

type manualCommissionRequest struct {
	ReferralID string `json:"referralId"`
}

func (h *Handler) ManualCommission(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req manualCommissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.ReferralID == "" {
		respondError(w, http.StatusBadRequest, "referralId is required")
		return
	}
	result, err := h.affiliate.ProcessManual(r.Context(), req.ReferralID)
	if err != nil {
		if errors.Is(err, services.ErrReferralNotFound) {
			respondError(w, http.StatusNotFound, "referral not found")
			return
		}
		h.log.Error("manual commission processing failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "commission processing failed")
		return
	}
	if result.AlreadyPaid {
		respondJSON(w, http.StatusOK, map[string]any{
			"success":    false,
			"message":    result.Message,
			"commission": valueToMoney(result.Commission),
			"paidAt":     result.PaidAt,
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"commission":      valueToMoney(result.Commission),
		"affiliateUserId": result.AffiliateUserID,
		"newBalance":      valueToMoney(result.NewBalance),
		"message":         result.Message,
	})
}

type processCommissionRequest struct {
	SessionID string `json:"sessionId"`
}

func (h *Handler) ProcessCommission(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req processCommissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.SessionID == "" {
		respondError(w, http.StatusBadRequest, "sessionId is required")
		return
	}
	result, err := h.affiliate.ProcessSession(r.Context(), req.SessionID)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotPaid) {
			respondError(w, http.StatusBadRequest, "session not paid")
			return
		}
		h.log.Error("commission processing failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "commission processing failed")
		return
	}
	if !result.Processed {
		respondJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": result.Message,
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"commission":      valueToMoney(result.Commission),
		"affiliateUserId": result.AffiliateUserID,
		"message":         result.Message,
	})
}
