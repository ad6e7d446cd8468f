package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/oauth2"

	"github.com/jamesfulford/cashflow-projector/internal/cli"
	"github.com/jamesfulford/cashflow-projector/internal/config"
	"github.com/jamesfulford/cashflow-projector/internal/sheets"
)

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with external services",
	}

	cmd.AddCommand(authSheetsCmd())

	return cmd
}

func authSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Authenticate with Google Sheets",
		Long: `Authenticate with Google Sheets using OAuth2.

This command will:
1. Print a URL to authenticate with Google
2. Save the token next to your config file
3. Store the refresh token in your config file

You'll need to run this once before 'cashflow export'.`,
		RunE: runAuthSheets,
	}

	cmd.Flags().String("client-id", "", "OAuth2 Client ID (overrides config)")
	cmd.Flags().String("client-secret", "", "OAuth2 Client Secret (overrides config)")
	cmd.Flags().Bool("force", false, "ignore any saved token and authenticate again")

	return cmd
}

func runAuthSheets(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	oauthCfg := config.LoadOAuth2Config()
	if flagID, _ := cmd.Flags().GetString("client-id"); flagID != "" {
		oauthCfg.ClientID = flagID
	}
	if flagSecret, _ := cmd.Flags().GetString("client-secret"); flagSecret != "" {
		oauthCfg.ClientSecret = flagSecret
	}
	if oauthCfg.ClientID == "" || oauthCfg.ClientSecret == "" {
		return fmt.Errorf("OAuth2 credentials not found. Please set sheets.client_id and sheets.client_secret in config or use --client-id and --client-secret flags")
	}

	slog.Info("Starting Google Sheets authentication", "token_file", oauthCfg.TokenFile)

	var (
		token *oauth2.Token
		err   error
	)
	if force, _ := cmd.Flags().GetBool("force"); force {
		token, err = sheets.AuthenticateOAuth2Interactive(ctx, oauthCfg)
	} else {
		token, err = sheets.GetOrCreateToken(ctx, oauthCfg)
	}
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if token.RefreshToken == "" {
		_, err = fmt.Fprintln(out, cli.FormatWarning("Google returned no refresh token. Run again with --force."))
		return err
	}

	viper.Set("sheets.refresh_token", token.RefreshToken)
	if err := saveConfig(); err != nil {
		slog.Warn("Failed to update config file with refresh token", "error", err)
		_, _ = fmt.Fprintln(out, cli.FormatWarning("Could not save the refresh token. Add this to your config.yaml:"))
		_, _ = fmt.Fprintf(out, "sheets:\n  refresh_token: %q\n", token.RefreshToken)
		return nil
	}

	_, err = fmt.Fprintln(out, cli.FormatSuccess("Google Sheets is configured. Run 'cashflow export' to write your ledger."))
	return err
}

func saveConfig() error {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = config.DefaultConfigFile()
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0750); err != nil {
		return err
	}

	return viper.WriteConfigAs(configFile)
}
