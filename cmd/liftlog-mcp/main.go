package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/claude/liftlog/internal/catalog"
	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/tracker"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "LiftLog server URL (e.g. https://liftlog.tail1234.ts.net); remote mode")
	configPath := flag.String("config", "", "path to config file; local mode reads the database directly")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("liftlog-mcp", Version)
		return
	}

	// stdout carries the MCP protocol.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if (*serverURL == "") == (*configPath == "") {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-mcp -server <URL> | -config <config.yaml>\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var ds mcp.DataSource
	if *serverURL != "" {
		ds = mcp.NewHTTPClient(*serverURL)
		log.Info("remote mode", "server", *serverURL)
	} else {
		svc, closeFn, err := openLocal(*configPath, log)
		if err != nil {
			log.Error("local mode failed", "error", err)
			os.Exit(1)
		}
		defer closeFn()
		ds = mcp.NewLocal(svc)
		log.Info("local mode", "config", *configPath)
	}

	if err := mcpserver.ServeStdio(mcp.New(ds, Version, log)); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}

func openLocal(path string, log *slog.Logger) (*tracker.Service, func(), error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	loc, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("timezone %q: %w", cfg.Server.Timezone, err)
	}
	cat, err := catalog.Load(cfg.Templates.Path, log)
	if err != nil {
		return nil, nil, err
	}

	ctx := context.Background()
	var store storage.Store
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		store, err = storage.OpenSQLite(ctx, cfg.Database.Path)
	default:
		store, err = storage.New(ctx, cfg.Database.DSN())
	}
	if err != nil {
		return nil, nil, err
	}
	return tracker.New(store, cat, loc, log), func() { _ = store.Close() }, nil
}
