package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fulfillment-service/internal/models"
)

// PaymentSession is a hosted checkout session opened at the gateway.
type PaymentSession struct {
	SessionID   string
	RedirectURL string
}

// PaymentGateway opens hosted payment sessions. Confirmation arrives
// later through the payment webhook; this interface is the whole
// outbound contract.
type PaymentGateway interface {
	CreateSession(ctx context.Context, amountMinor int64, orderNumber, returnURL string) (*PaymentSession, error)
}

// HTTPPaymentGateway talks JSON to the gateway's session endpoint.
type HTTPPaymentGateway struct {
	url    string
	apiKey string
	client *http.Client
}

func NewHTTPPaymentGateway(url, apiKey string) *HTTPPaymentGateway {
	return &HTTPPaymentGateway{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type sessionRequest struct {
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	ReturnURL string            `json:"return_url"`
	Metadata  map[string]string `json:"metadata"`
}

type sessionResponse struct {
	ID          string `json:"id"`
	RedirectURL string `json:"redirect_url"`
	Error       string `json:"error"`
}

func (g *HTTPPaymentGateway) CreateSession(ctx context.Context, amountMinor int64, orderNumber, returnURL string) (*PaymentSession, error) {
	body, err := json.Marshal(sessionRequest{
		Amount:    amountMinor,
		Currency:  "UAH",
		ReturnURL: returnURL,
		Metadata:  map[string]string{"orderNumber": orderNumber},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w: %v", models.ErrPaymentSessionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("gateway returned %d: %w", resp.StatusCode, models.ErrPaymentSessionFailed)
	}

	var parsed sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("gateway response decode failed: %w", models.ErrPaymentSessionFailed)
	}
	if parsed.ID == "" {
		return nil, fmt.Errorf("gateway rejected session: %s: %w", parsed.Error, models.ErrPaymentSessionFailed)
	}

	return &PaymentSession{SessionID: parsed.ID, RedirectURL: parsed.RedirectURL}, nil
}
