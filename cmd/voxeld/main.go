// Command voxeld serves voxel worlds over websocket. Each client joins a
// stored world and receives chunk meshes as it moves.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/uptrixio/platformer/internal/config"
	"github.com/uptrixio/platformer/internal/storage"
	"github.com/uptrixio/platformer/internal/transport/ws"
)

func main() {
	cfg := config.Default()
	configPath := ""
	logLevel := "info"

	flag.StringVar(&configPath, "config", "", "path to a YAML settings file")
	flag.StringVar(&cfg.Server.Addr, "addr", cfg.Server.Addr, "listen address")
	flag.StringVar(&cfg.Storage.Path, "db", cfg.Storage.Path, "sqlite database path")
	flag.BoolVar(&cfg.Storage.Compress, "compress", cfg.Storage.Compress, "zstd-compress stored chunks")
	flag.IntVar(&cfg.RenderDistance, "render-distance", cfg.RenderDistance, "default render distance in chunks")
	flag.IntVar(&cfg.MaxChunksPerTick, "max-chunks-per-tick", cfg.MaxChunksPerTick, "chunks generated per tick")
	flag.StringVar(&logLevel, "log-level", logLevel, "debug|info|warn|error")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	if configPath != "" {
		fromFile, err := config.Load(configPath)
		if err != nil {
			log.Error("load config", "path", configPath, "error", err)
			os.Exit(1)
		}
		config.Merge(&cfg, &fromFile, explicit)
	} else {
		cfg.Normalize()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.OpenSQLite(cfg.Storage.Path, cfg.Storage.Compress)
	if err != nil {
		log.Error("open storage", "path", cfg.Storage.Path, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	srv, err := ws.NewServer(store, cfg, log)
	if err != nil {
		log.Error("init server", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", srv.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Server.Addr, "db", cfg.Storage.Path, "render_distance", cfg.RenderDistance)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("serve", "error", err)
			os.Exit(1)
		}
	}

	log.Info("shutting down", "sessions", srv.SessionCount())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	srv.CloseSessions()
	srv.Wait()
	log.Info("stopped")
}
