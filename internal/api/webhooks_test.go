package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(body []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return mac.Sum(nil)
}

func TestVerifySignatureHex(t *testing.T) {
	body := []byte(`{"event":"payment.succeeded"}`)
	digest := hex.EncodeToString(sign(body, "s3cret"))

	assert.NoError(t, verifySignature(body, digest, "s3cret"))
	assert.NoError(t, verifySignature(body, "sha256="+digest, "s3cret"))
}

func TestVerifySignatureBase64(t *testing.T) {
	body := []byte(`{"event":"payment.succeeded"}`)
	digest := base64.StdEncoding.EncodeToString(sign(body, "s3cret"))

	assert.NoError(t, verifySignature(body, digest, "s3cret"))
	assert.NoError(t, verifySignature(body, "sha256="+digest, "s3cret"))
}

func TestVerifySignatureRejects(t *testing.T) {
	body := []byte(`{"event":"payment.succeeded"}`)
	digest := hex.EncodeToString(sign(body, "s3cret"))

	assert.Error(t, verifySignature(body, "", "s3cret"))
	assert.Error(t, verifySignature(body, "deadbeef", "s3cret"))
	assert.Error(t, verifySignature(body, digest, "other-secret"))
	assert.Error(t, verifySignature([]byte("tampered"), digest, "s3cret"))
	assert.Error(t, verifySignature(body, "not!hex@nor#base64$", "s3cret"))
}

func TestProbeStringShapes(t *testing.T) {
	// Nova Poshta dialect: capitalized fields at the top level.
	np := map[string]interface{}{
		"IntDocNumber":          "20450011223344",
		"Status":                "sent",
		"InfoRegClientBarcodes": "ORD-AB12CD34",
	}
	assert.Equal(t, "ORD-AB12CD34", probeString(np, "orderNumber", "order_number", "externalId", "reference", "InfoRegClientBarcodes"))
	assert.Equal(t, "20450011223344", probeString(np, "trackingNumber", "tracking_number", "barcode", "IntDocNumber", "ttn"))
	assert.Equal(t, "sent", probeString(np, "status", "state", "trackingStatus", "Status"))

	// Ukrposhta dialect: lower camel case nested under data.
	up := map[string]interface{}{
		"data": map[string]interface{}{
			"externalId": "ORD-AB12CD34",
			"barcode":    "0500123456789",
			"status":     "DELIVERED",
		},
	}
	assert.Equal(t, "ORD-AB12CD34", probeString(up, "orderNumber", "order_number", "externalId", "reference", "InfoRegClientBarcodes"))
	assert.Equal(t, "0500123456789", probeString(up, "trackingNumber", "tracking_number", "barcode", "IntDocNumber", "ttn"))
	assert.Equal(t, "DELIVERED", probeString(up, "status", "state", "trackingStatus", "Status"))
}

func TestProbeStringMissing(t *testing.T) {
	payload := map[string]interface{}{
		"unrelated": 42,
		"data":      "not an object",
	}
	require.Empty(t, probeString(payload, "orderNumber", "externalId"))
}
