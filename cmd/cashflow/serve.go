package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesfulford/cashflow-projector/internal/api"
	"github.com/jamesfulford/cashflow-projector/internal/certs"
	"github.com/jamesfulford/cashflow-projector/internal/cli"
	"github.com/jamesfulford/cashflow-projector/internal/config"
)

const defaultServerAddr = "127.0.0.1:5177"

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve projections over HTTP",
		Long: `Serve projections over HTTP.

Endpoints:
  POST /api/transactions   projected transactions
  POST /api/daybydays      day-by-day ledger
  POST /api/params         resolved parameters
  POST /api/summary        shortfalls and rule impact
  GET  /api/health         liveness

Request bodies are {"rules": [...], "parameters": {...}}.

With --tls the server uses a self-signed certificate for localhost, kept in
$HOME/.config/cashflow/certs.`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr")); err != nil {
				return err
			}
			return viper.BindPFlag("server.tls", cmd.Flags().Lookup("tls"))
		},
		RunE: runServe,
	}
	cmd.Flags().String("addr", defaultServerAddr, "listen address")
	cmd.Flags().Bool("tls", false, "serve HTTPS with a self-signed localhost certificate")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Server")
	ctx, stop := handler.HandleInterrupts(cmd.Context(), "")
	defer stop()

	opts := []api.Option{api.WithLogger(slog.Default())}
	if viper.GetBool("server.tls") {
		cert, err := certs.NewFileManager(filepath.Join(config.Dir(), "certs")).GetOrCreateCertificate()
		if err != nil {
			return fmt.Errorf("failed to prepare TLS certificate: %w", err)
		}
		opts = append(opts, api.WithTLS(cert))
	}

	return api.NewServer(opts...).ListenAndServe(ctx, viper.GetString("server.addr"))
}
