package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/bankauth/internal/server"
	"github.com/dmitrijs2005/bankauth/internal/server/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bankauth",
		Short:         "Session token service: access tokens, rotating refresh tokens and cleanup",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newSweepCommand())
	return cmd
}

// Flags are owned by the config package, which reads os.Args itself, so
// cobra leaves them alone.
func newAppCommand(use, short string, run func(ctx context.Context, app *server.App) error) *cobra.Command {
	return &cobra.Command{
		Use:                use,
		Short:              short,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			app, err := server.NewApp(cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			return run(ctx, app)
		},
	}
}

func newServeCommand() *cobra.Command {
	return newAppCommand("serve", "Migrate the schema and run the gRPC server with the cleanup scheduler",
		func(ctx context.Context, app *server.App) error {
			return app.Run(ctx)
		})
}

func newMigrateCommand() *cobra.Command {
	return newAppCommand("migrate", "Apply pending database migrations and exit",
		func(ctx context.Context, app *server.App) error {
			return app.Migrate(ctx)
		})
}

func newSweepCommand() *cobra.Command {
	return newAppCommand("sweep", "Remove expired and revoked refresh tokens once and exit",
		func(ctx context.Context, app *server.App) error {
			n, err := app.SweepOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "removed %d refresh tokens\n", n)
			return nil
		})
}
