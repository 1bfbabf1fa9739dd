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

// NovaPoshta speaks the single-endpoint RPC dialect: every call is a
// POST of {apiKey, modelName, calledMethod, methodProperties}.
type NovaPoshta struct {
	url    string
	apiKey string
	client *http.Client
}

func NewNovaPoshta(url, apiKey string) *NovaPoshta {
	return &NovaPoshta{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (np *NovaPoshta) Name() string {
	return models.ShippingNovaPoshta
}

type npRequest struct {
	APIKey           string                 `json:"apiKey"`
	ModelName        string                 `json:"modelName"`
	CalledMethod     string                 `json:"calledMethod"`
	MethodProperties map[string]interface{} `json:"methodProperties"`
}

type npResponse struct {
	Success bool `json:"success"`
	Data    []struct {
		Ref          string `json:"Ref"`
		IntDocNumber string `json:"IntDocNumber"`
	} `json:"data"`
	Errors []string `json:"errors"`
}

func (np *NovaPoshta) CreateShipment(ctx context.Context, orderNumber string, recipient Recipient, address string, items []Item) (string, error) {
	seats := 0
	description := ""
	for _, item := range items {
		seats += item.Quantity
		if description == "" {
			description = item.Title
		}
	}

	body, err := json.Marshal(npRequest{
		APIKey:       np.apiKey,
		ModelName:    "InternetDocument",
		CalledMethod: "save",
		MethodProperties: map[string]interface{}{
			"Description":           description,
			"SeatsAmount":           seats,
			"RecipientName":         recipient.Name,
			"RecipientsPhone":       recipient.Phone,
			"RecipientAddress":      address,
			"InfoRegClientBarcodes": orderNumber,
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, np.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := np.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("novaposhta request failed: %w", err)
	}
	defer resp.Body.Close()

	var parsed npResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("novaposhta response decode failed: %w", err)
	}
	if !parsed.Success || len(parsed.Data) == 0 {
		return "", fmt.Errorf("novaposhta rejected shipment: %v: %w", parsed.Errors, models.ErrShipmentCreationFailed)
	}

	return parsed.Data[0].IntDocNumber, nil
}
