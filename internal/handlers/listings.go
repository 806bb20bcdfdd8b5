package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"greenriot/internal/middleware"
	"greenriot/internal/money"
	"greenriot/internal/store"
	"greenriot/internal/validator"
)

type createListingRequest struct {
	Kind        string  `json:"kind"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Price       string  `json:"price"`
	MarketID    *string `json:"market_id"`
}

func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateListingKind(req.Kind); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.ValidateTitle(req.Title); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.ValidateCoordinates(req.Latitude, req.Longitude); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Donations are free; everything else needs a parseable price.
	priceMinor := int64(0)
	if req.Kind != "donation" {
		parsed, err := money.ParseMinor(req.Price)
		if err != nil || parsed < 0 {
			respondError(w, http.StatusBadRequest, "invalid_price")
			return
		}
		priceMinor = parsed
	}
	listingID := uuid.NewString()
	err := h.listings.Create(r.Context(), store.ListingInput{
		ID:          listingID,
		UserID:      userID,
		Kind:        req.Kind,
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Price:       priceMinor,
		MarketID:    req.MarketID,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create listing")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": listingID})
}

func (h *Handler) ListListings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	kind := query.Get("kind")
	page := parseInt(query.Get("page"), 1)
	limit := parseInt(query.Get("limit"), 20)
	offset := (page - 1) * limit
	listings, err := h.listings.List(r.Context(), kind, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load listings")
		return
	}
	respondJSON(w, http.StatusOK, listings)
}

func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	listingID := chi.URLParam(r, "id")
	listing, err := h.listings.GetByID(r.Context(), listingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "listing not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load listing")
		return
	}
	respondJSON(w, http.StatusOK, listing)
}
