package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fulfillment-service/internal/models"
)

// Ukrposhta exposes a plain REST resource with bearer auth.
type Ukrposhta struct {
	url    string
	token  string
	client *http.Client
}

func NewUkrposhta(url, token string) *Ukrposhta {
	return &Ukrposhta{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (up *Ukrposhta) Name() string {
	return models.ShippingUkrposhta
}

type upShipmentRequest struct {
	ExternalID string `json:"externalId"`
	Recipient  struct {
		Name    string `json:"name"`
		Phone   string `json:"phoneNumber"`
		Address string `json:"addressLine"`
	} `json:"recipient"`
	Parcels []upParcel `json:"parcels"`
}

type upParcel struct {
	Title    string `json:"title"`
	Quantity int    `json:"quantity"`
}

type upShipmentResponse struct {
	UUID    string `json:"uuid"`
	Barcode string `json:"barcode"`
	Message string `json:"message"`
}

func (up *Ukrposhta) CreateShipment(ctx context.Context, orderNumber string, recipient Recipient, address string, items []Item) (string, error) {
	var payload upShipmentRequest
	payload.ExternalID = orderNumber
	payload.Recipient.Name = recipient.Name
	payload.Recipient.Phone = recipient.Phone
	payload.Recipient.Address = address
	for _, item := range items {
		payload.Parcels = append(payload.Parcels, upParcel{Title: item.Title, Quantity: item.Quantity})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, up.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+up.token)

	resp, err := up.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ukrposhta request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("ukrposhta returned %d: %w", resp.StatusCode, models.ErrShipmentCreationFailed)
	}

	var parsed upShipmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("ukrposhta response decode failed: %w", err)
	}
	if parsed.Barcode == "" {
		return "", fmt.Errorf("ukrposhta rejected shipment: %s: %w", parsed.Message, models.ErrShipmentCreationFailed)
	}

	return parsed.Barcode, nil
}
