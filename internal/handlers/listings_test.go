package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"greenriot/internal/models"
	"greenriot/internal/store"
)

func TestCreateListingProduct(t *testing.T) {
	var captured store.ListingInput
	handler := newTestHandler(testDeps{
		listings: stubListingStore{
			createFn: func(_ context.Context, input store.ListingInput) error {
				captured = input
				return nil
			},
		},
	})

	body := []byte(`{"kind":"product","title":"old bike","price":"25.50","latitude":40.4,"longitude":-3.7}`)
	req := httptest.NewRequest(http.MethodPost, "/listings", bytes.NewReader(body))
	rr := authedRequest(t, handler.CreateListing, req, "seller-1")
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.UserID != "seller-1" || captured.Price != 2550 {
		t.Fatalf("unexpected input: %#v", captured)
	}
	var payload map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &payload)
	if payload["id"] != captured.ID {
		t.Fatalf("returned id does not match created listing")
	}
}

func TestCreateListingDonationIgnoresPrice(t *testing.T) {
	var captured store.ListingInput
	handler := newTestHandler(testDeps{
		listings: stubListingStore{
			createFn: func(_ context.Context, input store.ListingInput) error {
				captured = input
				return nil
			},
		},
	})

	body := []byte(`{"kind":"donation","title":"spare pots","price":"99.99","latitude":40.4,"longitude":-3.7}`)
	req := httptest.NewRequest(http.MethodPost, "/listings", bytes.NewReader(body))
	rr := authedRequest(t, handler.CreateListing, req, "seller-1")
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if captured.Price != 0 {
		t.Fatalf("donations must be free, got price %d", captured.Price)
	}
}

func TestCreateListingValidation(t *testing.T) {
	handler := newTestHandler(testDeps{})
	cases := []string{
		`{"kind":"vehicle","title":"car","price":"10.00","latitude":0,"longitude":0}`,
		`{"kind":"product","title":"","price":"10.00","latitude":0,"longitude":0}`,
		`{"kind":"product","title":"bike","price":"10.00","latitude":91,"longitude":0}`,
		`{"kind":"product","title":"bike","price":"not-a-price","latitude":0,"longitude":0}`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/listings", bytes.NewReader([]byte(body)))
		rr := authedRequest(t, handler.CreateListing, req, "seller-1")
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rr.Code)
		}
	}
}

func TestListListingsFilterByKind(t *testing.T) {
	handler := newTestHandler(testDeps{
		listings: stubListingStore{
			listFn: func(_ context.Context, kind string, limit, offset int) ([]models.Listing, error) {
				if kind != "abandoned" {
					t.Fatalf("unexpected kind: %q", kind)
				}
				return []models.Listing{{ID: "l1", Kind: "abandoned", Title: "left sofa"}}, nil
			},
		},
	})
	req := httptest.NewRequest(http.MethodGet, "/listings?kind=abandoned", nil)
	rr := httptest.NewRecorder()
	handler.ListListings(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload []models.Listing
	_ = json.Unmarshal(rr.Body.Bytes(), &payload)
	if len(payload) != 1 || payload[0].ID != "l1" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}
