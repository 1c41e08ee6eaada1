package main

import (
	"context"
	"fmt"
	"os"

	"github.com/erp/posync/internal/bootstrap"
	"github.com/erp/posync/internal/infrastructure/config"
	"github.com/erp/posync/internal/infrastructure/logger"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

// opener builds the application for one command run
type opener func(ctx context.Context) (*bootstrap.App, error)

type cli struct {
	open   opener
	actor  string
	asJSON bool
}

func main() {
	if err := newRootCmd(openApp).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(open opener) *cobra.Command {
	c := &cli{open: open}
	rootCmd := &cobra.Command{
		Use:           "posync",
		Short:         "posync - reconcile ERP purchase order exports",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&c.actor, "actor", "", "Name recorded on imports and visibility changes (default: import.actor)")
	rootCmd.PersistentFlags().BoolVarP(&c.asJSON, "json", "j", false, "Output as JSON")

	rootCmd.AddCommand(c.importCmd())
	rootCmd.AddCommand(c.historyCmd())
	rootCmd.AddCommand(c.unhideCmd())
	return rootCmd
}

// run opens the application, hands it to fn and closes it again
func (c *cli) run(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = app.Close(context.Background())
		_ = logger.Sync(app.Logger)
	}()
	return fn(ctx, app)
}

func (c *cli) actorOr(app *bootstrap.App) string {
	if c.actor != "" {
		return c.actor
	}
	return app.Config.Import.Actor
}

// openApp loads configuration and logs to stderr so stdout stays machine readable
func openApp(ctx context.Context) (*bootstrap.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logCfg := logger.FromAppConfig(cfg.Log)
	if logCfg.Output == "stdout" || logCfg.Output == "" {
		logCfg.Output = "stderr"
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return bootstrap.New(ctx, cfg, log, bootstrap.Options{Version: Version})
}
