package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	oauth := func(mod func(*Config)) Config {
		c := DefaultConfig()
		c.ClientID = "test-client"
		c.ClientSecret = "test-secret"
		c.RefreshToken = "test-token"
		if mod != nil {
			mod(&c)
		}
		return c
	}

	tests := []struct {
		name    string
		errMsg  string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid oauth config",
			config: oauth(nil),
		},
		{
			name: "valid service account config",
			config: Config{
				ServiceAccountPath: "/path/to/key.json",
				SpreadsheetID:      "sheet-id",
				BatchSize:          100,
				RetryAttempts:      3,
				RetryDelay:         time.Second,
			},
		},
		{
			name:    "missing auth",
			config:  DefaultConfig(),
			wantErr: true,
			errMsg:  "no authentication method configured",
		},
		{
			name:    "partial oauth credentials",
			config:  oauth(func(c *Config) { c.ClientSecret = "" }),
			wantErr: true,
			errMsg:  "no authentication method configured",
		},
		{
			name:    "multiple auth methods",
			config:  oauth(func(c *Config) { c.ServiceAccountPath = "/path/to/key.json" }),
			wantErr: true,
			errMsg:  "multiple authentication methods configured",
		},
		{
			name:    "no spreadsheet",
			config:  oauth(func(c *Config) { c.SpreadsheetName = "" }),
			wantErr: true,
			errMsg:  "spreadsheet ID or name is required",
		},
		{
			name:    "invalid batch size",
			config:  oauth(func(c *Config) { c.BatchSize = 0 }),
			wantErr: true,
			errMsg:  "batch size must be positive",
		},
		{
			name:    "negative retries",
			config:  oauth(func(c *Config) { c.RetryAttempts = -1 }),
			wantErr: true,
			errMsg:  "retry attempts cannot be negative",
		},
		{
			name:    "negative retry delay",
			config:  oauth(func(c *Config) { c.RetryDelay = -time.Second }),
			wantErr: true,
			errMsg:  "retry delay cannot be negative",
		},
		{
			name:   "zero retry delay is valid",
			config: oauth(func(c *Config) { c.RetryAttempts = 0; c.RetryDelay = 0 }),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
