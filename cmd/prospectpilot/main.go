package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ProspectPilot/internal/app"
	"ProspectPilot/internal/config"
	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/logging"
)

var (
	profilePath string
	refresh     bool
)

var rootCmd = &cobra.Command{
	Use:           "prospectpilot",
	Short:         "Prospect enrichment backend for the ProspectPilot extension",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API used by the browser extension",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
			return a.Serve(ctx)
		})
	},
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich one profile snapshot (JSON) and print the record",
	Long: `Reads a profile snapshot as JSON from --profile (or stdin when omitted or "-"),
runs the enrichment pipeline and prints {record, state} to stdout.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		profile, err := readProfile(cmd.InOrStdin(), profilePath)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
			result, err := a.Enrich(ctx, profile, refresh)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		})
	},
}

var pairCmd = &cobra.Command{
	Use:   "pair [code]",
	Short: "Pair this service with a user account using a one-time code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
			userID, err := a.Pair(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "paired as %s\n", userID)
			return nil
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
			return a.Migrate(ctx)
		})
	},
}

func init() {
	enrichCmd.Flags().StringVarP(&profilePath, "profile", "p", "", "path to a profile snapshot JSON file")
	enrichCmd.Flags().BoolVar(&refresh, "refresh", false, "ignore a fresh cached enrichment")
	rootCmd.AddCommand(serveCmd, enrichCmd, pairCmd, migrateCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func withApp(ctx context.Context, run func(context.Context, *app.Application) error) error {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn("close application", "error", err)
		}
	}()

	if err := run(ctx, application); err != nil {
		logger.Error("command failed", "error", err)
		return err
	}
	return nil
}

func readProfile(stdin io.Reader, path string) (domain.ProfileSnapshot, error) {
	var r io.Reader = stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return domain.ProfileSnapshot{}, fmt.Errorf("open profile: %w", err)
		}
		defer f.Close()
		r = f
	}

	var profile domain.ProfileSnapshot
	if err := json.NewDecoder(r).Decode(&profile); err != nil {
		return domain.ProfileSnapshot{}, fmt.Errorf("decode profile: %w", err)
	}
	return profile, nil
}
