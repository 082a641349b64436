package main

import (
	"context"
	"fmt"
	"os"

	"github.com/de-tools/wasteops/pkg/app"
	"github.com/de-tools/wasteops/pkg/runtime/terminal"
	"github.com/de-tools/wasteops/pkg/services/config"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("WASTEOPS_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(cfg.Level()).
		With().Timestamp().Logger()
	ctx := logger.WithContext(context.Background())

	a, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cli := terminal.NewCLI(terminal.Options{
		Sessions: a.Sessions,
		Catalog:  a.Client,
		Output:   os.Stdout,
	})

	err = cli.Execute(ctx)
	_ = a.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
