package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gurkanbulca/projecthub/internal/app"
	"github.com/gurkanbulca/projecthub/internal/config"
	"github.com/gurkanbulca/projecthub/internal/logger"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:          "projecthub",
	Short:        "Modular project and task API",
	Long:         `Serves the project and task modules over HTTP, with an optional gRPC health endpoint.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Initialize every module and serve the API",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run every module's schema statements and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log := logger.New(cfg.App.LogLevel)

		if err := app.Migrate(cmd.Context(), cfg, log); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("schema is up to date")
		return nil
	},
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the routes every module mounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadApp(envFile)
		if err != nil {
			return err
		}

		routes, err := app.Routes(cfg, logger.New(cfg.App.LogLevel))
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tMODULE\tTAGS")
		for _, r := range routes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Method, r.Path, r.Module, strings.Join(r.Tags, ","))
		}
		return w.Flush()
	},
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}
	return a.Run(ctx)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func defaultEnvFile() string {
	if v := os.Getenv("ENV_FILE"); v != "" {
		return v
	}
	return ".env"
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile(), "env file to load before reading the environment")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(routesCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
