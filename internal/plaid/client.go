// Package plaid provides a client for reading account balances from the Plaid API.
package plaid

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/shopspring/decimal"

	"github.com/jamesfulford/cashflow-projector/internal/common"
	"github.com/jamesfulford/cashflow-projector/internal/model"
	"github.com/jamesfulford/cashflow-projector/internal/service"
)

// Config holds Plaid API configuration.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
	AccessToken string
	AccountID   string
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("plaid client ID is required")
	}
	if c.Secret == "" {
		return fmt.Errorf("plaid secret is required")
	}
	if c.AccessToken == "" {
		return fmt.Errorf("plaid access token is required")
	}
	if c.Environment == "" {
		return fmt.Errorf("plaid environment is required")
	}

	validEnvs := map[string]bool{
		"sandbox":    true,
		"production": true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid Plaid environment: must be sandbox or production")
	}

	return nil
}

// Account is a linked account and its balances as Plaid reports them.
type Account struct {
	Current   *decimal.Decimal
	Available *decimal.Decimal
	ID        string
	Name      string
	Type      string
}

// AccountLister lists the accounts behind an access token.
type AccountLister interface {
	ListAccounts(ctx context.Context) ([]Account, error)
}

// Client implements AccountLister against the Plaid API.
type Client struct {
	client      *plaid.APIClient
	logger      *slog.Logger
	retryOpts   *service.RetryOptions
	accessToken string
	environment string
}

var _ AccountLister = (*Client)(nil)

// NewClient creates a new Plaid client with the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMissingConfig, err)
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)

	switch cfg.Environment {
	case "sandbox":
		configuration.UseEnvironment(plaid.Sandbox)
	case "production":
		configuration.UseEnvironment(plaid.Production)
	}

	return &Client{
		client:      plaid.NewAPIClient(configuration),
		accessToken: cfg.AccessToken,
		environment: cfg.Environment,
		logger:      slog.Default().With("component", "plaid"),
		retryOpts: &service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// ListAccounts fetches the linked accounts with their balances.
func (c *Client) ListAccounts(ctx context.Context) ([]Account, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	c.logger.Debug("Fetching accounts from Plaid", "environment", c.environment)

	var accounts []plaid.AccountBase
	retryErr := common.WithRetry(ctx, func() error {
		request := plaid.NewAccountsGetRequest(c.accessToken)
		resp, _, err := c.client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*request).Execute()
		if err != nil {
			if plaidError := extractPlaidError(err); plaidError != nil {
				if plaidError.ErrorCode == "RATE_LIMIT_EXCEEDED" {
					c.logger.Warn("Rate limit hit, will retry", "error", plaidError.ErrorMessage)
					return &common.RetryableError{Err: fmt.Errorf("%w: %s", common.ErrPlaidRateLimit, plaidError.ErrorMessage), Retryable: true}
				}
				return &common.RetryableError{
					Err:       fmt.Errorf("%w: %s - %s", common.ErrPlaidConnection, plaidError.ErrorCode, plaidError.ErrorMessage),
					Retryable: false,
				}
			}
			return fmt.Errorf("%w: %v", common.ErrPlaidConnection, err)
		}

		accounts = resp.GetAccounts()
		return nil
	}, *c.retryOpts)

	if retryErr != nil {
		return nil, retryErr
	}

	c.logger.Debug("Fetched accounts", "count", len(accounts))

	out := make([]Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, mapAccount(a))
	}
	return out, nil
}

func mapAccount(a plaid.AccountBase) Account {
	balances := a.GetBalances()
	account := Account{
		ID:   a.GetAccountId(),
		Name: a.GetName(),
		Type: string(a.GetType()),
	}
	if v, ok := balances.GetCurrentOk(); ok && v != nil {
		d := model.RoundCents(decimal.NewFromFloat(*v))
		account.Current = &d
	}
	if v, ok := balances.GetAvailableOk(); ok && v != nil {
		d := model.RoundCents(decimal.NewFromFloat(*v))
		account.Available = &d
	}
	return account
}

// extractPlaidError attempts to extract a Plaid error from a generic error.
func extractPlaidError(err error) *plaid.PlaidError {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return nil
	}
	return &plaidErr
}
