package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesfulford/cashflow-projector/internal/cli"
	"github.com/jamesfulford/cashflow-projector/internal/common"
	"github.com/jamesfulford/cashflow-projector/internal/config"
	"github.com/jamesfulford/cashflow-projector/internal/engine"
	"github.com/jamesfulford/cashflow-projector/internal/ofx"
	"github.com/jamesfulford/cashflow-projector/internal/payload"
	"github.com/jamesfulford/cashflow-projector/internal/plaid"
	"github.com/jamesfulford/cashflow-projector/internal/service"
	"github.com/jamesfulford/cashflow-projector/internal/simplefin"
)

// today is the clock used for window defaults.
var today = func() civil.Date { return civil.DateOf(time.Now()) }

// balanceRetry covers rate limits from remote balance sources.
var balanceRetry = service.RetryOptions{
	MaxAttempts:  3,
	InitialDelay: time.Second,
	MaxDelay:     10 * time.Second,
	Multiplier:   2,
}

// projectionFlagKeys binds shared flags to their config keys.
var projectionFlagKeys = map[string]string{
	"rules.file":           "rules",
	"projection.set_aside": "set-aside",
	"projection.high_low":  "high-low",
}

func addProjectionFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringP("rules", "r", "", "rules file, .yaml/.yml or .json (default: $HOME/.config/cashflow/rules.yaml)")
	f.String("start", "", "first day of the window, YYYY-MM-DD (default: today)")
	f.String("end", "", "last day of the window, YYYY-MM-DD (default: start + 12 months)")
	f.String("balance", "", "opening balance")
	f.String("set-aside", "", "amount to keep in reserve")
	f.Bool("high-low", false, "track intra-day high and low balances")
	f.String("balance-ofx", "", "read the opening balance from an OFX/QFX statement")
	f.String("ofx-account", "", "account ID within the OFX statement")
	f.Bool("balance-plaid", false, "read the opening balance from the linked Plaid account")
	f.Bool("balance-simplefin", false, "read the opening balance through SimpleFIN Bridge")
	f.StringP("format", "f", "table", "output format (table, json)")

	cmd.MarkFlagsMutuallyExclusive("balance", "balance-ofx", "balance-plaid", "balance-simplefin")
	cmd.PreRunE = bindProjectionFlags
}

func bindProjectionFlags(cmd *cobra.Command, _ []string) error {
	for key, name := range projectionFlagKeys {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}

	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "json" {
		return fmt.Errorf("%w: unknown output format %q", common.ErrInvalidConfig, format)
	}
	return nil
}

// loadRequest reads the rules file and applies parameter overrides. Flags win
// over the file, and the file wins over config.
func loadRequest(cmd *cobra.Command) (payload.Request, error) {
	path := config.ExpandPath(viper.GetString("rules.file"))
	if path == "" {
		path = config.DefaultRulesFile()
	}

	req, err := payload.LoadFile(path)
	if err != nil {
		return payload.Request{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("start") {
		req.Parameters.StartDate, _ = flags.GetString("start")
	}
	if flags.Changed("end") {
		req.Parameters.EndDate, _ = flags.GetString("end")
	}
	if flags.Changed("balance") {
		balance, _ := flags.GetString("balance")
		req.Parameters.CurrentBalance = payload.Amount(balance)
	}
	if flags.Changed("set-aside") || req.Parameters.SetAside == "" {
		req.Parameters.SetAside = payload.Amount(viper.GetString("projection.set_aside"))
	}
	if flags.Changed("high-low") || !bool(req.Parameters.HighLow) {
		req.Parameters.HighLow = payload.Flag(viper.GetBool("projection.high_low"))
	}

	common.LogDebug("Loaded rules", common.Fields{"file": path, "rules": len(req.Rules)})
	return req, nil
}

// balanceSource returns the remote opening balance source named by the
// flags, or nil when the balance comes from the request.
func balanceSource(cmd *cobra.Command) (service.BalanceSource, error) {
	ofxPath, _ := cmd.Flags().GetString("balance-ofx")
	usePlaid, _ := cmd.Flags().GetBool("balance-plaid")
	useSimpleFIN, _ := cmd.Flags().GetBool("balance-simplefin")

	switch {
	case ofxPath != "":
		account, _ := cmd.Flags().GetString("ofx-account")
		return ofx.NewBalanceSource(config.ExpandPath(ofxPath), account), nil
	case usePlaid:
		cfg, err := config.LoadPlaidConfig()
		if err != nil {
			return nil, err
		}
		client, err := plaid.NewClient(*cfg)
		if err != nil {
			return nil, err
		}
		return plaid.NewBalanceSource(client, cfg.AccountID), nil
	case useSimpleFIN:
		settings := config.LoadSimpleFINSettings()
		accessURL := settings.AccessURL
		if accessURL == "" {
			auth, err := simplefin.LoadOrClaimAuth(cmd.Context(), nil, settings.Token, settings.StateFile)
			if err != nil {
				return nil, err
			}
			accessURL = auth.AccessURL
		}
		client, err := simplefin.NewClient(accessURL, nil)
		if err != nil {
			return nil, err
		}
		return simplefin.NewBalanceSource(client, settings.AccountID), nil
	default:
		return nil, nil
	}
}

func readBalance(ctx context.Context, src service.BalanceSource) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := common.WithRetry(ctx, func() error {
		var err error
		balance, err = src.CurrentBalance(ctx)
		if err != nil {
			return &common.RetryableError{Err: err, Retryable: common.IsRetryable(err)}
		}
		return nil
	}, balanceRetry)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read balance from %s: %w", src.Name(), err)
	}
	return balance, nil
}

// buildContext resolves the projection the command's flags describe.
func buildContext(cmd *cobra.Command) (*engine.Context, error) {
	req, err := loadRequest(cmd)
	if err != nil {
		return nil, err
	}

	src, err := balanceSource(cmd)
	if err != nil {
		return nil, err
	}
	if src != nil {
		balance, err := readBalance(cmd.Context(), src)
		if err != nil {
			return nil, err
		}
		slog.Info("Using opening balance", "source", src.Name(), "balance", balance.StringFixed(2))
		req.Parameters.CurrentBalance = payload.Amount(balance.String())
	}

	c, err := req.Context(today())
	if err != nil {
		return nil, common.NewUserError("the rules or parameters are invalid", err)
	}
	return c, nil
}

func jsonOutput(cmd *cobra.Command) bool {
	format, _ := cmd.Flags().GetString("format")
	return format == "json"
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTables(w io.Writer, tables ...cli.Table) error {
	for _, t := range tables {
		if _, err := fmt.Fprintln(w, cli.RenderTable(t)); err != nil {
			return err
		}
	}
	return nil
}
