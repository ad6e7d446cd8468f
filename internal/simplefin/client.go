// Package simplefin reads account balances through a SimpleFIN Bridge
// access URL.
package simplefin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jamesfulford/cashflow-projector/internal/common"
)

const defaultTimeout = 30 * time.Second

// Account is one account reported by the bridge.
type Account struct {
	BalanceDate time.Time
	ID          string
	Name        string
	Currency    string
	Balance     decimal.Decimal
}

// AccountLister is the part of the client a balance source needs.
type AccountLister interface {
	ListAccounts(ctx context.Context) ([]Account, error)
}

type accountSet struct {
	Errors   []string  `json:"errors"`
	Accounts []account `json:"accounts"`
}

type account struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Currency    string `json:"currency"`
	Balance     string `json:"balance"`
	BalanceDate int64  `json:"balance-date"`
}

// Client talks to one SimpleFIN access URL.
type Client struct {
	accessURL  string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ AccountLister = (*Client)(nil)

// NewClient creates a client for accessURL. A nil httpClient uses a default
// with a timeout.
func NewClient(accessURL string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(accessURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid SimpleFIN access URL", common.ErrInvalidConfig)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		accessURL:  strings.TrimSuffix(accessURL, "/"),
		httpClient: httpClient,
		logger:     slog.Default().With("component", "simplefin", "host", u.Host),
	}, nil
}

// ListAccounts fetches balances for every account, without transactions.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.accessURL+"/accounts?balances-only=1", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug("Requesting SimpleFIN balances")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &common.RetryableError{Err: fmt.Errorf("failed to fetch accounts: %w", err), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	if err := statusError(resp); err != nil {
		return nil, err
	}

	var set accountSet
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", err)
	}
	for _, msg := range set.Errors {
		c.logger.Warn("SimpleFIN reported a problem", "message", msg)
	}

	accounts := make([]Account, 0, len(set.Accounts))
	for _, a := range set.Accounts {
		balance, err := decimal.NewFromString(strings.TrimSpace(a.Balance))
		if err != nil {
			return nil, fmt.Errorf("%w: account %s balance %q", common.ErrNoBalance, a.ID, a.Balance)
		}
		accounts = append(accounts, Account{
			ID:          a.ID,
			Name:        a.Name,
			Currency:    a.Currency,
			Balance:     balance,
			BalanceDate: time.Unix(a.BalanceDate, 0).UTC(),
		})
	}
	return accounts, nil
}

func statusError(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(body))
	switch {
	case resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusPaymentRequired:
		return fmt.Errorf("%w: SimpleFIN access was refused (%d): %s", common.ErrInvalidConfig, resp.StatusCode, msg)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: SimpleFIN: %s", common.ErrRateLimit, msg)
	case resp.StatusCode >= http.StatusInternalServerError:
		return &common.RetryableError{Err: fmt.Errorf("SimpleFIN API error: %d - %s", resp.StatusCode, msg), Retryable: true}
	default:
		return fmt.Errorf("SimpleFIN API error: %d - %s", resp.StatusCode, msg)
	}
}
