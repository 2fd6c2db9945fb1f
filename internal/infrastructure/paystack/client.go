package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mansoorceksport/skinsight/internal/logger"
)

// SignatureHeader carries the webhook HMAC
const SignatureHeader = "X-Paystack-Signature"

// Transaction statuses reported by Paystack
const (
	StatusSuccess   = "success"
	StatusFailed    = "failed"
	StatusAbandoned = "abandoned"
)

// EventChargeSuccess is the webhook event for a completed payment
const EventChargeSuccess = "charge.success"

// Config holds Paystack API configuration
type Config struct {
	SecretKey   string
	BaseURL     string // https://api.paystack.co
	CallbackURL string // where the customer returns after checkout
}

// Client is the Paystack API client
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// InitializeRequest is the body of POST /transaction/initialize
type InitializeRequest struct {
	Email       string   `json:"email"`
	Amount      int64    `json:"amount"` // kobo
	Currency    string   `json:"currency,omitempty"`
	Reference   string   `json:"reference"`
	CallbackURL string   `json:"callback_url,omitempty"`
	Metadata    Metadata `json:"metadata,omitempty"`
}

// Authorization is what the customer needs to complete checkout
type Authorization struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Transaction is the verified state of a payment
type Transaction struct {
	ID        int64      `json:"id"`
	Status    string     `json:"status"`
	Reference string     `json:"reference"`
	Amount    int64      `json:"amount"`
	Currency  string     `json:"currency"`
	PaidAt    *time.Time `json:"paid_at"`
	Metadata  Metadata   `json:"metadata"`
	Customer  struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// Event is a webhook payload
type Event struct {
	Event string      `json:"event"`
	Data  Transaction `json:"data"`
}

// Metadata is the free-form data attached to a transaction. Paystack echoes it
// back as an object, or as an empty string when none was sent.
type Metadata map[string]string

// UnmarshalJSON accepts any JSON value; non-object values decode to nil
func (m *Metadata) UnmarshalJSON(b []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(b, &raw); err != nil {
		*m = nil
		return nil
	}
	out := make(Metadata, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		} else {
			out[k] = fmt.Sprint(v)
		}
	}
	*m = out
	return nil
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// NewClient creates a new Paystack client
func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.paystack.co"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.OrNop(log),
	}
}

// InitializeTransaction starts a checkout and returns the hosted payment page
func (c *Client) InitializeTransaction(ctx context.Context, req InitializeRequest) (*Authorization, error) {
	if req.CallbackURL == "" {
		req.CallbackURL = c.config.CallbackURL
	}

	var auth Authorization
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", req, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

// VerifyTransaction fetches the current state of a transaction by reference
func (c *Client) VerifyTransaction(ctx context.Context, reference string) (*Transaction, error) {
	var tx Transaction
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+reference, nil, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// VerifySignature checks the webhook header against hex(HMAC-SHA512(secret, body))
func (c *Client) VerifySignature(body []byte, signature string) bool {
	return VerifySignature(c.config.SecretKey, body, signature)
}

// VerifySignature checks a webhook signature with the given secret
func VerifySignature(secret string, body []byte, signature string) bool {
	if signature == "" || secret == "" {
		return false
	}
	expected := Sign(secret, body)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// Sign returns hex(HMAC-SHA512(secret, body))
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	url := c.config.BaseURL + path

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.SecretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("calling paystack", zap.String("method", method), zap.String("path", path))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("paystack API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	if resp.StatusCode >= 300 || !env.Status {
		c.logger.Warn("paystack request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", env.Message),
		)
		return fmt.Errorf("paystack API error: status %d: %s", resp.StatusCode, env.Message)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}
