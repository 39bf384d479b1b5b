package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blindtest/cache"
	"blindtest/config"
	"blindtest/core/catalog"
	"blindtest/core/game"
	"blindtest/core/hub"
	"blindtest/db"
	"blindtest/logger"
	"blindtest/repository"

	"github.com/gorilla/mux"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Fetcher game.CatalogFetcher
	// Blindtests enables the /blindtests routes when set.
	Blindtests repository.BlindtestRepository
	Phrases    *game.Phrasebook
	Now        func() time.Time
}

// Server wires the game engine to HTTP and websockets.
type Server struct {
	cfg       *config.Config
	router    *mux.Router
	hub       *hub.Hub
	registry  *game.Registry
	scheduler *game.Scheduler
}

// New builds the router. Room actors live until ctx is done.
func New(ctx context.Context, cfg *config.Config, deps Deps) *Server {
	h := hub.New()
	registry := game.NewRegistry(ctx, h, game.Options{
		RoundDuration:     cfg.RoundDuration,
		WaitDuration:      cfg.WaitDuration,
		NoImmediateRepeat: cfg.NoImmediateRepeat,
		InboxSize:         cfg.InboxSize,
		Phrases:           deps.Phrases,
		Now:               deps.Now,
	})

	s := &Server{
		cfg:       cfg,
		router:    mux.NewRouter(),
		hub:       h,
		registry:  registry,
		scheduler: game.NewScheduler(registry, cfg.TickInterval),
	}

	s.router.Use(corsMiddleware)
	s.router.HandleFunc("/healthz", s.HealthHandler).Methods(http.MethodGet)

	gameHandler := NewGameHandler(ctx, registry, h, deps.Fetcher)
	RegisterGameRoutes(s.router, gameHandler)

	if deps.Blindtests != nil {
		RegisterBlindtestRoutes(s.router, NewBlindtestHandler(deps.Blindtests))
	}
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run ticks the rooms until ctx is done.
func (s *Server) Run(ctx context.Context) { s.scheduler.Run(ctx) }

// Close drops every websocket client.
func (s *Server) Close() { s.hub.Stop() }

// HealthHandler reports liveness and the number of rooms.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"rooms":   s.registry.Len(),
		"clients": s.hub.ClientCount(),
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Expose-Headers", "Location")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("write response failed", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Start builds every dependency from cfg, serves until SIGINT or SIGTERM and
// then shuts down gracefully.
func Start(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var fetcher game.CatalogFetcher = catalog.NewClient(cfg.CatalogAPIURL, cfg.CatalogTimeout)
	if cfg.RedisEnabled {
		client, err := cache.NewRedisClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer client.Close()
		fetcher = cache.NewCatalogCache(fetcher, cache.NewRedisStore(client), cfg.CatalogCacheTTL)
		logger.Info("catalog cache enabled", logger.Duration("ttl", cfg.CatalogCacheTTL))
	}

	deps := Deps{Fetcher: fetcher, Phrases: game.NewPhrasebook()}
	if cfg.PhrasesFile != "" {
		if err := deps.Phrases.Load(cfg.PhrasesFile); err != nil {
			return err
		}
		if err := deps.Phrases.Watch(ctx, cfg.PhrasesFile); err != nil {
			logger.Warn("phrasebook will not reload", logger.ErrorField(err))
		}
	}

	if cfg.DBEnabled {
		gdb, err := db.Open(cfg)
		if err != nil {
			return err
		}
		defer db.Close(gdb)
		if err := db.Migrate(gdb); err != nil {
			return err
		}
		deps.Blindtests = repository.NewGormBlindtestRepository(gdb)
	}

	s := New(ctx, cfg, deps)
	go s.Run(ctx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", logger.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// hijacked websocket connections are not tracked by Shutdown
	s.Close()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
