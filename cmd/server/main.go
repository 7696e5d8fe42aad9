package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Simplici0/quotecalc/internal/component"
	"github.com/Simplici0/quotecalc/internal/config"
	"github.com/Simplici0/quotecalc/internal/db"
	"github.com/Simplici0/quotecalc/internal/graph"
	"github.com/Simplici0/quotecalc/internal/migrations"
	"github.com/Simplici0/quotecalc/internal/orchestrator"
	"github.com/Simplici0/quotecalc/internal/pricing"
	"github.com/Simplici0/quotecalc/internal/seed"
	"github.com/Simplici0/quotecalc/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer database.Close()

	if cfg.IsDev() {
		if err := migrations.Up(context.Background(), database); err != nil {
			log.Fatal().Err(err).Msg("failed to run database migrations")
		}
	}

	stats, err := seed.Run(database, seed.Config{CPIRate: cfg.CPIRate})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to seed database")
	}
	log.Info().Int("inserts", stats.Inserts).Int("kept", stats.Kept).Msg("seed complete")

	st := store.NewSQLite(database)
	terms, err := st.Terms()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load quote terms")
	}

	srv, err := newServer(st, terms, orchestrator.WithDebounce(cfg.Debounce), orchestrator.WithLogger(log.Logger))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build calculation engine")
	}
	defer srv.detach()

	if _, err := srv.orch.Prime(); err != nil {
		log.Fatal().Err(err).Msg("failed to run startup calculation")
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", httpServer.Addr).Str("env", cfg.AppEnv).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	srv.orch.Flush()
}

func setupLogger(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.IsDev() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

type server struct {
	store  *store.SQLite
	calc   *pricing.Calculator
	orch   *orchestrator.Orchestrator
	detach func()
}

// newServer wires the calculation engine over st and subscribes it to store
// changes.
func newServer(st *store.SQLite, terms pricing.Terms, opts ...orchestrator.Option) (*server, error) {
	defs := component.Catalog()
	g, err := graph.New(defs)
	if err != nil {
		return nil, err
	}
	calc, err := pricing.NewCalculator(defs)
	if err != nil {
		return nil, err
	}

	opts = append([]orchestrator.Option{orchestrator.WithTerms(terms)}, opts...)
	orch := orchestrator.New(g, calc, st, opts...)
	return &server{
		store:  st,
		calc:   calc,
		orch:   orch,
		detach: orch.Attach(),
	}, nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Get("/components", s.handleComponents)
	r.Put("/components/{id}", s.handleComponentUpdate)
	r.Post("/components/{id}/recalculate", s.handleRecalculate)
	r.Post("/validate", s.handleValidate)

	r.Get("/quote", s.handleQuote)
	r.Post("/quote/flush", s.handleFlush)
	r.Get("/quote.xlsx", s.handleQuoteXLSX)
	r.Delete("/session", s.handleClear)

	r.Get("/quotes", s.handleQuotesList)
	r.Post("/quotes", s.handleQuoteSave)
	r.Get("/quotes/{id}", s.handleQuoteDetail)
	r.Get("/quotes/{id}/text", s.handleQuoteText)
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}
