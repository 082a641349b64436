package main

import (
	"context"
	"fmt"
	"os"

	"github.com/de-tools/wasteops/pkg/app"
	"github.com/de-tools/wasteops/pkg/server"
	"github.com/de-tools/wasteops/pkg/services/config"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the web server for the waste operations dashboard",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", os.Getenv("WASTEOPS_CONFIG"),
		"Path to a YAML config file (optional, WASTEOPS_* environment variables override it)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := zerolog.New(os.Stdout).Level(cfg.Level()).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	go a.Janitor.Run(janitorCtx)
	defer func() {
		stopJanitor()
		<-a.Janitor.Done()
	}()

	logger.Info().
		Str("report_api", cfg.API.BaseURL).
		Str("storage", cfg.Storage.Path).
		Msg("configuration loaded")

	api := server.NewWebAPI(logger, server.Config{
		Addr:            cfg.Addr(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Dependencies: server.Dependencies{
			Sessions: a.Sessions,
			Catalog:  a.Client,
		},
	})

	return api.Start(ctx)
}
