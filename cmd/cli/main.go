package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/kirillkom/linguista/internal/adapters/cli"
	"github.com/kirillkom/linguista/internal/bootstrap"
	"github.com/kirillkom/linguista/internal/config"
	"github.com/kirillkom/linguista/internal/observability/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 1
	}
	logger := logging.New(os.Stderr, "cli", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: logger})
	if err != nil {
		fmt.Fprintf(os.Stderr, "bootstrap error: %v\n", err)
		return 1
	}
	defer app.Close()

	client, err := cli.New(cli.Services{
		Processor: app.Processor,
		Catalog:   app.Catalog,
		Chat:      app.Chat,
		Learning:  app.Learning,
		Extractor: app.Extractor,
	}, cli.Options{MarkdownStyle: os.Getenv("GLAMOUR_STYLE")})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	if err := client.Run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			return 2
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}
