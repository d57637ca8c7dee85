package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"translogica.org/internal/auth"
	"translogica.org/internal/config"
	"translogica.org/internal/httpapi"
	"translogica.org/internal/kv"
	"translogica.org/internal/obs"
)

var version = "0.1.0"

func main() {
	obs.Init()

	cfg, err := config.Load(os.Getenv("TRANSLOGICA_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}

	svc, err := auth.NewService(auth.DefaultCatalog(), store)
	if err != nil {
		log.Fatalf("build auth service: %v", err)
	}
	if err := svc.Load(ctx); err != nil {
		log.Fatalf("restore state: %v", err)
	}
	if cfg.Seed {
		if err := svc.Seed(ctx, auth.DefaultSeed()); err != nil {
			log.Fatalf("seed directory: %v", err)
		}
	}
	obs.SetActiveSessions(svc.SessionCount())

	api := httpapi.New(svc, httpapi.ReadyProbe{Store: store}, version,
		cfg.RateLimit.LoginBurst, cfg.RateLimit.LoginPerSecond)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting translogica-api %s on %s (storage=%s)", version, srv.Addr, cfg.Storage.Backend)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
	if closeStore != nil {
		_ = closeStore.Close()
	}
	log.Println("Stopped")
}

// openStore builds the configured persistence backend. The second return is
// non-nil when the backend holds connections that need closing on shutdown.
func openStore(ctx context.Context, cfg config.StorageConfig) (kv.Store, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		store, err := kv.OpenRedis(ctx, kv.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case config.BackendPostgres:
		store, err := kv.OpenPostgres(cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return store, store, nil
	default:
		return kv.NewMemory(), nil, nil
	}
}
