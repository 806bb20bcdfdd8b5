package payout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the processor's REST API with form-encoded requests and a
// bearer secret key. It implements Provider plus the throwaway-object
// methods the self-test harness uses.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

// APIError carries the processor-provided message; these errors are
// surfaced to the caller and never retried here.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("payment processor error (%d): %s", e.StatusCode, e.Message)
}

type accountPayload struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	DetailsSubmitted bool   `json:"details_submitted"`
	ChargesEnabled   bool   `json:"charges_enabled"`
	PayoutsEnabled   bool   `json:"payouts_enabled"`
	Requirements     struct {
		CurrentlyDue []string `json:"currently_due"`
	} `json:"requirements"`
}

func (p accountPayload) toAccount() Account {
	return Account{
		ID:               p.ID,
		Email:            p.Email,
		DetailsSubmitted: p.DetailsSubmitted,
		ChargesEnabled:   p.ChargesEnabled,
		PayoutsEnabled:   p.PayoutsEnabled,
		Requirements:     p.Requirements.CurrentlyDue,
	}
}

func (c *Client) CreateAccount(ctx context.Context, email string) (Account, error) {
	form := url.Values{}
	form.Set("type", "express")
	form.Set("email", email)
	var payload accountPayload
	if err := c.do(ctx, http.MethodPost, "/v1/accounts", form, &payload); err != nil {
		return Account{}, err
	}
	return payload.toAccount(), nil
}

func (c *Client) GetAccount(ctx context.Context, accountID string) (Account, error) {
	var payload accountPayload
	if err := c.do(ctx, http.MethodGet, "/v1/accounts/"+accountID, nil, &payload); err != nil {
		return Account{}, err
	}
	return payload.toAccount(), nil
}

func (c *Client) CreateOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	form := url.Values{}
	form.Set("account", accountID)
	form.Set("refresh_url", refreshURL)
	form.Set("return_url", returnURL)
	form.Set("type", "account_onboarding")
	var payload struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/account_links", form, &payload); err != nil {
		return "", err
	}
	return payload.URL, nil
}

func (c *Client) CreateDashboardLink(ctx context.Context, accountID string) (string, error) {
	var payload struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/accounts/"+accountID+"/login_links", url.Values{}, &payload); err != nil {
		return "", err
	}
	return payload.URL, nil
}

func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (CheckoutSession, error) {
	var payload struct {
		ID                string `json:"id"`
		ClientReferenceID string `json:"client_reference_id"`
		AmountTotal       int64  `json:"amount_total"`
		Currency          string `json:"currency"`
		PaymentStatus     string `json:"payment_status"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/checkout/sessions/"+sessionID, nil, &payload); err != nil {
		return CheckoutSession{}, err
	}
	return CheckoutSession{
		ID:                payload.ID,
		ClientReferenceID: payload.ClientReferenceID,
		AmountTotal:       payload.AmountTotal,
		Currency:          strings.ToUpper(payload.Currency),
		Paid:              payload.PaymentStatus == "paid",
	}, nil
}

// Ping verifies connectivity and credentials with a cheap read.
func (c *Client) Ping(ctx context.Context) error {
	var payload struct {
		Object string `json:"object"`
	}
	return c.do(ctx, http.MethodGet, "/v1/balance", nil, &payload)
}

func (c *Client) CreateCustomer(ctx context.Context, email, description string) (string, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("description", description)
	var payload struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/customers", form, &payload); err != nil {
		return "", err
	}
	return payload.ID, nil
}

func (c *Client) DeleteCustomer(ctx context.Context, customerID string) error {
	var payload struct {
		Deleted bool `json:"deleted"`
	}
	return c.do(ctx, http.MethodDelete, "/v1/customers/"+customerID, nil, &payload)
}

func (c *Client) CreatePaymentIntent(ctx context.Context, amount int64, currency string) (string, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", strings.ToLower(currency))
	form.Set("payment_method_types[]", "card")
	var payload struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/payment_intents", form, &payload); err != nil {
		return "", err
	}
	return payload.ID, nil
}

func (c *Client) CancelPaymentIntent(ctx context.Context, intentID string) error {
	var payload struct {
		Status string `json:"status"`
	}
	return c.do(ctx, http.MethodPost, "/v1/payment_intents/"+intentID+"/cancel", url.Values{}, &payload)
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var wrapper struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		message := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &wrapper) == nil && wrapper.Error.Message != "" {
			message = wrapper.Error.Message
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
