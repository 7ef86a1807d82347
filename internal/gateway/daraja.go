// Package gateway implements the mobile-money push-payment client
// (Safaricom Daraja STK push).
package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"ballotbet/internal/config"
)

// QueryResult is the gateway's answer for one transaction.
// ResultCode semantics: 0 success, 1 still processing, 1032 cancelled
// by the payer, anything else failed.
type QueryResult struct {
	ResultCode int
	ResultDesc string
}

// Daraja result codes the reconciler cares about.
const (
	ResultCodeSuccess   = 0
	ResultCodePending   = 1
	ResultCodeCancelled = 1032
)

// Client talks to the Daraja OAuth, STK push and query endpoints. All
// calls are bounded by the configured timeout; there is no mid-flight
// cancellation beyond the context.
type Client struct {
	cfg  *config.GatewayConfig
	http *http.Client
	now  func() time.Time
}

// NewClient creates a gateway client from configuration.
func NewClient(cfg *config.GatewayConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		now:  time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

type stkPushResponse struct {
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResponseCode      string `json:"ResponseCode"`
	ErrorMessage      string `json:"errorMessage"`
}

// The query endpoint reports ResultCode as a quoted string while
// callbacks use a bare number, so it is parsed leniently.
type queryResponse struct {
	ResultCode json.RawMessage `json:"ResultCode"`
	ResultDesc string          `json:"ResultDesc"`
}

// accessToken fetches a bearer token using the consumer credentials.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.TokenURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request returned status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	return tr.AccessToken, nil
}

// password derives the timestamped API password:
// base64(shortcode + passkey + timestamp).
func (c *Client) password(timestamp string) string {
	raw := c.cfg.Shortcode + c.cfg.Passkey + timestamp
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

func (c *Client) postJSON(ctx context.Context, url, token string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return nil
}

// InitiateSTKPush sends a push-payment prompt to the payer's phone and
// returns the gateway's correlation id. The caller must not persist an
// intent unless this succeeds.
func (c *Client) InitiateSTKPush(ctx context.Context, phone string, amount int64, reference string) (string, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}

	timestamp := c.now().Format("20060102150405")
	payload := map[string]any{
		"BusinessShortCode": c.cfg.Shortcode,
		"Password":          c.password(timestamp),
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            amount,
		"PartyA":            phone,
		"PartyB":            c.cfg.Shortcode,
		"PhoneNumber":       phone,
		"CallBackURL":       c.cfg.CallbackURL,
		"AccountReference":  reference,
		"TransactionDesc":   "Account top up",
	}

	var pr stkPushResponse
	if err := c.postJSON(ctx, c.cfg.STKPushURL, token, payload, &pr); err != nil {
		return "", err
	}

	if pr.CheckoutRequestID == "" {
		if pr.ErrorMessage != "" {
			return "", fmt.Errorf("gateway rejected push: %s", pr.ErrorMessage)
		}
		return "", fmt.Errorf("gateway response missing CheckoutRequestID")
	}

	log.Info().
		Str("checkout_request_id", pr.CheckoutRequestID).
		Str("phone", phone).
		Int64("amount", amount).
		Msg("STK push accepted")

	return pr.CheckoutRequestID, nil
}

// QuerySTKStatus asks the gateway for the current state of a push.
func (c *Client) QuerySTKStatus(ctx context.Context, checkoutRequestID string) (*QueryResult, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	timestamp := c.now().Format("20060102150405")
	payload := map[string]any{
		"BusinessShortCode": c.cfg.Shortcode,
		"Password":          c.password(timestamp),
		"Timestamp":         timestamp,
		"CheckoutRequestID": checkoutRequestID,
	}

	var qr queryResponse
	if err := c.postJSON(ctx, c.cfg.QueryURL, token, payload, &qr); err != nil {
		return nil, err
	}

	raw := strings.Trim(string(qr.ResultCode), `"`)
	code, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("gateway returned non-numeric ResultCode %q", raw)
	}

	return &QueryResult{ResultCode: code, ResultDesc: qr.ResultDesc}, nil
}
