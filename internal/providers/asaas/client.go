// Package asaas is the Asaas payment provider client: charge and
// customer creation, PIX QR lookup, and webhook normalization.
package asaas

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mourinha112/zucropay-sub000/internal/config"
)

// Client wraps the Asaas REST API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an Asaas client from credentials.
func NewClient(creds config.ProviderCredentials) *Client {
	return &Client{
		apiKey:     creds.APIKey,
		baseURL:    creds.BaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Customer is an Asaas customer record.
type Customer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	CpfCnpj string `json:"cpfCnpj"`
}

// ChargeRequest creates a charge against a customer.
type ChargeRequest struct {
	Customer         string  `json:"customer"`
	BillingType      string  `json:"billingType"` // PIX, BOLETO, CREDIT_CARD
	Value            float64 `json:"value"`
	DueDate          string  `json:"dueDate"`
	Description      string  `json:"description,omitempty"`
	InstallmentCount int     `json:"installmentCount,omitempty"`
	CreditCardToken  string  `json:"creditCardToken,omitempty"`
}

// Charge is the provider's view of a created charge.
type Charge struct {
	ID          string  `json:"id"`
	Status      string  `json:"status"`
	Value       float64 `json:"value"`
	BillingType string  `json:"billingType"`
	InvoiceURL  string  `json:"invoiceUrl"`
}

// PixQRCode is the copy-paste payload and encoded image for a PIX charge.
type PixQRCode struct {
	EncodedImage string `json:"encodedImage"`
	Payload      string `json:"payload"`
}

// Transfer is an outbound PIX payout from the platform account.
type Transfer struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Value  float64 `json:"value"`
}

func (c *Client) CreateCustomer(ctx context.Context, name, cpfCnpj string) (*Customer, error) {
	var customer Customer
	err := c.doRequest(ctx, http.MethodPost, "/customers", map[string]string{
		"name":    name,
		"cpfCnpj": cpfCnpj,
	}, &customer)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *Client) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	var charge Charge
	if err := c.doRequest(ctx, http.MethodPost, "/payments", req, &charge); err != nil {
		return nil, err
	}
	return &charge, nil
}

// CreateTransfer sends a PIX payout to the given key. The transfer
// completes asynchronously; Asaas reports the outcome by webhook.
func (c *Client) CreateTransfer(ctx context.Context, value float64, pixKey string) (*Transfer, error) {
	var transfer Transfer
	err := c.doRequest(ctx, http.MethodPost, "/transfers", map[string]interface{}{
		"value":         value,
		"pixAddressKey": pixKey,
		"operationType": "PIX",
	}, &transfer)
	if err != nil {
		return nil, err
	}
	return &transfer, nil
}

func (c *Client) GetPixQRCode(ctx context.Context, chargeID string) (*PixQRCode, error) {
	var qr PixQRCode
	if err := c.doRequest(ctx, http.MethodGet, "/payments/"+chargeID+"/pixQrCode", nil, &qr); err != nil {
		return nil, err
	}
	return &qr, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("access_token", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("asaas error (%d): %s", resp.StatusCode, string(respBody))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
	}
	return nil
}
