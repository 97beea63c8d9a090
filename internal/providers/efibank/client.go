// Package efibank is the EfiBank (Gerencianet) PIX provider client.
package efibank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/mourinha112/zucropay-sub000/internal/config"
)

// Client wraps the EfiBank PIX API. Access tokens are fetched through
// the OAuth client-credentials flow and cached until expiry.
type Client struct {
	clientID     string
	clientSecret string
	baseURL      string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func NewClient(creds config.ProviderCredentials) *Client {
	return &Client{
		clientID:     creds.APIKey,
		clientSecret: creds.APISecret,
		baseURL:      creds.BaseURL,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Charge is an immediate PIX charge (cob).
type Charge struct {
	TxID      string `json:"txid"`
	Status    string `json:"status"`
	Location  string `json:"location"`
	CopyPaste string `json:"pixCopiaECola"`
}

// CreatePixCharge creates an immediate PIX charge for the given value.
func (c *Client) CreatePixCharge(ctx context.Context, value float64, payerName, payerDoc, description string) (*Charge, error) {
	body := map[string]interface{}{
		"calendario": map[string]int{"expiracao": 3600},
		"valor":      map[string]string{"original": strconv.FormatFloat(value, 'f', 2, 64)},
		"chave":      config.GetEnv("EFI_PIX_KEY", ""),
	}
	if description != "" {
		body["solicitacaoPagador"] = description
	}
	if payerDoc != "" {
		body["devedor"] = map[string]string{"cpf": payerDoc, "nome": payerName}
	}

	var charge Charge
	if err := c.doRequest(ctx, http.MethodPost, "/v2/cob", body, &charge); err != nil {
		return nil, err
	}
	return &charge, nil
}

// GetCharge fetches a PIX charge by txid.
func (c *Client) GetCharge(ctx context.Context, txid string) (*Charge, error) {
	var charge Charge
	if err := c.doRequest(ctx, http.MethodGet, "/v2/cob/"+txid, nil, &charge); err != nil {
		return nil, err
	}
	return &charge, nil
}

func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.expiresAt) {
		return c.accessToken, nil
	}

	body := bytes.NewReader([]byte(`{"grant_type":"client_credentials"}`))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/oauth/token", body)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("efibank auth error (%d): %s", resp.StatusCode, string(respBody))
	}

	var token struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(respBody, &token); err != nil {
		return "", fmt.Errorf("unmarshal: %w", err)
	}

	c.accessToken = token.AccessToken
	c.expiresAt = time.Now().Add(time.Duration(token.ExpiresIn-60) * time.Second)
	return c.accessToken, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, out interface{}) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

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
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

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
		return fmt.Errorf("efibank error (%d): %s", resp.StatusCode, string(respBody))
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal: %w", err)
		}
	}
	return nil
}
