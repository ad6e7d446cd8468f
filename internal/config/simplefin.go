package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// SimpleFINSettings locate a SimpleFIN Bridge connection. An access URL, when
// set, is used directly; otherwise the setup token is claimed once and the
// resulting access URL is kept in StateFile.
type SimpleFINSettings struct {
	Token     string
	AccessURL string
	AccountID string
	StateFile string
}

// LoadSimpleFINSettings reads simplefin.* (or CASHFLOW_SIMPLEFIN_*), falling
// back to SIMPLEFIN_* env vars.
func LoadSimpleFINSettings() SimpleFINSettings {
	s := SimpleFINSettings{
		Token:     firstNonEmpty(viper.GetString("simplefin.token"), os.Getenv("SIMPLEFIN_TOKEN")),
		AccessURL: firstNonEmpty(viper.GetString("simplefin.access_url"), os.Getenv("SIMPLEFIN_ACCESS_URL")),
		AccountID: firstNonEmpty(viper.GetString("simplefin.account_id"), os.Getenv("SIMPLEFIN_ACCOUNT_ID")),
		StateFile: ExpandPath(viper.GetString("simplefin.state_file")),
	}
	if s.StateFile == "" {
		s.StateFile = filepath.Join(Dir(), "simplefin-auth.json")
	}
	return s
}
