package paymentclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Skotchmaster/food_order/internal/transport"
)

// Client calls the payment function with the caller's own access token.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(paymentServiceURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(paymentServiceURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Error is a non-200 answer from the payment function.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("payment function failed with status %d: %s", e.Status, e.Message)
}

func (c *Client) CreateSheet(ctx context.Context, token string, amount int64) (transport.PaymentSheet, error) {
	body, err := json.Marshal(transport.PaymentSheetRequest{Amount: amount})
	if err != nil {
		return transport.PaymentSheet{}, fmt.Errorf("encode request: %w", err)
	}

	var sheet transport.PaymentSheet
	if err := c.do(ctx, http.MethodPost, "/payment-sheet", token, body, &sheet); err != nil {
		return transport.PaymentSheet{}, err
	}
	return sheet, nil
}

func (c *Client) IntentStatus(ctx context.Context, token, intentID string) (transport.PaymentIntentStatus, error) {
	var st transport.PaymentIntentStatus
	if err := c.do(ctx, http.MethodGet, "/payment-intents/"+url.PathEscape(intentID), token, nil, &st); err != nil {
		return transport.PaymentIntentStatus{}, err
	}
	return st, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e transport.PaymentErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &Error{Status: resp.StatusCode, Message: e.Error}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
