package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/authd/internal/logger"
)

const requestTimeout = 5 * time.Second

// Balance of one user in the billing service
type Balance struct {
	UserID    uuid.UUID       `json:"user_id"`
	Current   decimal.Decimal `json:"current"`
	Withdrawn decimal.Decimal `json:"withdrawn"`
}

// Client talks to the billing service over its HTTP API
type Client struct {
	BillingAddr string

	client *http.Client
	logger logger.Logger
}

func NewClient(addr string, l logger.Logger) *Client {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Client{
		BillingAddr: addr,
		client:      &http.Client{},
		logger:      l,
	}
}

// CreateBalance opens a zero balance for the user.
// Already existing balance is not an error, the call is retried by the caller
// and has to be idempotent.
func (c *Client) CreateBalance(ctx context.Context, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	body, err := json.Marshal(struct {
		UserID uuid.UUID `json:"user_id"`
	}{UserID: userID})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BillingAddr+"/api/balances", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		c.logger.Debug("Billing balance created", "user_id", userID)
		return nil
	case http.StatusConflict:
		c.logger.Debug("Billing balance exists already", "user_id", userID)
		return nil
	default:
		c.logger.Warn("Failed to create balance", "status_code", resp.StatusCode, "user_id", userID)
		return fmt.Errorf("unknown status code %d for user %s", resp.StatusCode, userID)
	}
}

// GetBalance fetches the user's current balance
func (c *Client) GetBalance(ctx context.Context, userID uuid.UUID) (Balance, error) {
	var balance Balance

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BillingAddr+"/api/balances/"+userID.String(), nil)
	if err != nil {
		return balance, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return balance, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Failed to get balance", "status_code", resp.StatusCode, "user_id", userID)
		return balance, fmt.Errorf("unknown status code %d for user %s", resp.StatusCode, userID)
	}

	if err := json.NewDecoder(resp.Body).Decode(&balance); err != nil {
		c.logger.Warn("Failed to decode response", "error", err)
		return balance, fmt.Errorf("failed to decode response: %w", err)
	}

	return balance, nil
}
