package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/liftlog/internal/catalog"
	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/server"
	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/tracker"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// migrateRetryInterval is how often migrations are retried while the database
// is unreachable.
const migrateRetryInterval = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("LiftLog starting", "version", Version)

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Server.Timezone)
	if err != nil {
		log.Error("invalid timezone", "timezone", cfg.Server.Timezone, "error", err)
		os.Exit(1)
	}

	// Load templates
	cat, err := catalog.Load(cfg.Templates.Path, log)
	if err != nil {
		log.Error("failed to load templates", "error", err)
		os.Exit(1)
	}
	log.Info("templates loaded", "count", cat.Len())

	// Connect database
	ctx := context.Background()
	store, err := openStore(ctx, cfg.Database, *migrateOnly, log)
	if err != nil {
		log.Error("failed to open database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	if store == nil {
		log.Info("migrate-only: exiting")
		return
	}
	defer store.Close()
	log.Info("database ready", "driver", cfg.Database.Driver)

	svc := tracker.New(store, cat, loc, log)

	// Create server
	srv := server.New(svc, log)
	srv.SetMCP(mcpserver.NewStreamableHTTPServer(mcp.New(mcp.NewLocal(svc), Version, log)))

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	var tsServer *tsnet.Server

	if cfg.Tailscale.Enabled {
		tsServer = &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)")
	}

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

// openStore opens the configured database. Postgres is migrated first; with
// migrateOnly it returns a nil store once migrations are applied.
func openStore(ctx context.Context, cfg config.DatabaseConfig, migrateOnly bool, log *slog.Logger) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := storage.OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		if migrateOnly {
			return nil, db.Close()
		}
		return db, nil
	default:
		dsn := cfg.DSN()
		db, err := storage.New(ctx, dsn)
		if errors.Is(err, models.ErrUnavailable) && !migrateOnly {
			// Serve without the database: sessions still start, reads come
			// back empty and saves fail until it is reachable.
			log.Warn("database unreachable, starting degraded", "error", err)
			go storage.MigrateWhenReady(ctx, dsn, "migrations", migrateRetryInterval, log)
			return storage.Connect(ctx, dsn)
		}
		if err != nil {
			return nil, err
		}
		if err := storage.RunMigrations(dsn, "migrations"); err != nil {
			db.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		log.Info("migrations applied")
		if migrateOnly {
			return nil, db.Close()
		}
		return db, nil
	}
}
