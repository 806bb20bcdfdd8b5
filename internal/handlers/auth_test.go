package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lib/pq"

	"greenriot/internal/auth"
	"greenriot/internal/models"
	"greenriot/internal/store"
)

func TestRegisterSuccess(t *testing.T) {
	var createdCode string
	handler := newTestHandler(testDeps{
		users: stubUserStore{
			createFn: func(_ context.Context, _ store.Execer, _, username, email, passwordHash, affiliateCode string) error {
				if username != "greenfinger" || email != "green@example.com" {
					t.Fatalf("unexpected user: %s %s", username, email)
				}
				if passwordHash == "hunter2secret" {
					t.Fatalf("password stored in plaintext")
				}
				createdCode = affiliateCode
				return nil
			},
		},
		referrals: stubReferralStore{
			createFn: func(context.Context, store.Execer, string, string, string, string) error {
				t.Fatalf("no referral without an affiliate code")
				return nil
			},
		},
	})

	body := []byte(`{"username":"greenfinger","email":"green@example.com","password":"hunter2secret"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var payload map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &payload)
	if payload["token"] == "" {
		t.Fatalf("missing token")
	}
	if payload["affiliate_code"] == "" || payload["affiliate_code"] != createdCode {
		t.Fatalf("affiliate code mismatch: %q vs %q", payload["affiliate_code"], createdCode)
	}
}

func TestRegisterWithAffiliateCodeCreatesReferral(t *testing.T) {
	referralCreated := false
	handler := newTestHandler(testDeps{
		users: stubUserStore{
			getByAffiliateCodeFn: func(_ context.Context, code string) (models.User, error) {
				if code != "abc123" {
					t.Fatalf("unexpected code lookup: %q", code)
				}
				return models.User{ID: "affiliate-1", AffiliateCode: "abc123"}, nil
			},
		},
		referrals: stubReferralStore{
			createFn: func(_ context.Context, _ store.Execer, _, affiliateUserID, _, affiliateCode string) error {
				referralCreated = true
				if affiliateUserID != "affiliate-1" || affiliateCode != "abc123" {
					t.Fatalf("unexpected referral: %s %s", affiliateUserID, affiliateCode)
				}
				return nil
			},
		},
	})

	body := []byte(`{"username":"greenfinger","email":"green@example.com","password":"hunter2secret","affiliate_code":"abc123"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if !referralCreated {
		t.Fatalf("referral row not created")
	}
}

func TestRegisterUnknownAffiliateCode(t *testing.T) {
	handler := newTestHandler(testDeps{
		users: stubUserStore{
			getByAffiliateCodeFn: func(context.Context, string) (models.User, error) {
				return models.User{}, sql.ErrNoRows
			},
			createFn: func(context.Context, store.Execer, string, string, string, string, string) error {
				t.Fatalf("user must not be created on a bad code")
				return nil
			},
		},
	})

	body := []byte(`{"username":"greenfinger","email":"green@example.com","password":"hunter2secret","affiliate_code":"nope"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	handler := newTestHandler(testDeps{
		users: stubUserStore{
			createFn: func(context.Context, store.Execer, string, string, string, string, string) error {
				return &pq.Error{Code: "23505"}
			},
		},
	})

	body := []byte(`{"username":"greenfinger","email":"green@example.com","password":"hunter2secret"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	handler := newTestHandler(testDeps{})
	cases := []string{
		`{"username":"ab","email":"green@example.com","password":"hunter2secret"}`,
		`{"username":"greenfinger","email":"not-an-email","password":"hunter2secret"}`,
		`{"username":"greenfinger","email":"green@example.com","password":"short"}`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader([]byte(body)))
		rr := httptest.NewRecorder()
		handler.Register(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, rr.Code)
		}
	}
}

func TestLoginSuccess(t *testing.T) {
	passwordHash, err := auth.HashPassword("hunter2secret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	handler := newTestHandler(testDeps{
		users: stubUserStore{
			getByEmailFn: func(context.Context, string) (models.User, error) {
				return models.User{ID: "user-1", Email: "green@example.com", PasswordHash: passwordHash}, nil
			},
		},
	})

	body := []byte(`{"email":"green@example.com","password":"hunter2secret"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Login(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &payload)
	claims, err := auth.ParseToken("secret", payload["token"])
	if err != nil {
		t.Fatalf("returned token does not parse: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("unexpected claims: %#v", claims)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	passwordHash, _ := auth.HashPassword("hunter2secret")
	handler := newTestHandler(testDeps{
		users: stubUserStore{
			getByEmailFn: func(context.Context, string) (models.User, error) {
				return models.User{ID: "user-1", PasswordHash: passwordHash}, nil
			},
		},
	})

	body := []byte(`{"email":"green@example.com","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Login(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	handler := newTestHandler(testDeps{
		users: stubUserStore{
			getByEmailFn: func(context.Context, string) (models.User, error) {
				return models.User{}, sql.ErrNoRows
			},
		},
	})

	body := []byte(`{"email":"nobody@example.com","password":"hunter2secret"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.Login(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestMe(t *testing.T) {
	handler := newTestHandler(testDeps{
		users: stubUserStore{
			getByIDFn: func(_ context.Context, userID string) (models.User, error) {
				return models.User{ID: userID, Username: "greenfinger", AffiliateCode: "abc123"}, nil
			},
		},
	})
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rr := authedRequest(t, handler.Me, req, "user-1")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &payload)
	if payload["id"] != "user-1" || payload["affiliate_code"] != "abc123" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}
