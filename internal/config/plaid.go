package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/jamesfulford/cashflow-projector/internal/common"
	"github.com/jamesfulford/cashflow-projector/internal/plaid"
)

// LoadPlaidConfig loads Plaid credentials from Viper (plaid.* or
// CASHFLOW_PLAID_*), falling back to PLAID_* env vars.
func LoadPlaidConfig() (*plaid.Config, error) {
	config := plaid.Config{
		ClientID:    firstNonEmpty(viper.GetString("plaid.client_id"), os.Getenv("PLAID_CLIENT_ID")),
		Secret:      firstNonEmpty(viper.GetString("plaid.secret"), os.Getenv("PLAID_SECRET")),
		Environment: firstNonEmpty(viper.GetString("plaid.environment"), os.Getenv("PLAID_ENV"), "sandbox"),
		AccessToken: firstNonEmpty(viper.GetString("plaid.access_token"), os.Getenv("PLAID_ACCESS_TOKEN")),
		AccountID:   firstNonEmpty(viper.GetString("plaid.account_id"), os.Getenv("PLAID_ACCOUNT_ID")),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMissingConfig, err)
	}
	return &config, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
