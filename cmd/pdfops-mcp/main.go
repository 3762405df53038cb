// Command pdfops-mcp serves the document operations as MCP tools over
// stdio. Standard output carries the protocol, so logs go to standard error.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	"github.com/pdfwala/pdfops/internal/config"
	"github.com/pdfwala/pdfops/internal/setup"
	"github.com/pdfwala/pdfops/mcp"
)

func main() {
	ctx := context.Background()

	conf, err := config.Parse()
	if err != nil {
		slog.ErrorContext(ctx, "could not parse config", slog.Any("error", errors.WithStack(err)))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: conf.Logger.Level,
	}))

	slog.SetDefault(logger)

	engine := setup.NewEngineFromConfig(ctx, conf)

	server := mcp.NewServer(engine, mcp.WithLogger(logger))

	if err := server.ServeStdio(); err != nil {
		slog.ErrorContext(ctx, "could not serve", slog.Any("error", errors.WithStack(err)))
		os.Exit(1)
	}
}
