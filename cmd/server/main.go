package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Simplici0/o.prints/internal/catalog"
	"github.com/Simplici0/o.prints/internal/config"
	"github.com/Simplici0/o.prints/internal/db"
	"github.com/Simplici0/o.prints/internal/migrations"
	"github.com/Simplici0/o.prints/internal/seed"
)

const serviceName = "prints-pricing"

// catalogSource hands out the catalog snapshot a single request prices against.
type catalogSource interface {
	Snapshot(ctx context.Context) (*catalog.Snapshot, error)
}

// fixedCatalog serves a snapshot loaded once at startup from CATALOG_FILE.
type fixedCatalog struct {
	snap *catalog.Snapshot
}

func (f fixedCatalog) Snapshot(context.Context) (*catalog.Snapshot, error) {
	return f.snap, nil
}

type server struct {
	db      *sql.DB
	catalog catalogSource
	metrics *metrics
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to load config")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(cfg.Level())
	zlog.Logger = zlog.With().Str("service", serviceName).Logger()

	if err := run(cfg); err != nil {
		zlog.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if cfg.IsDev() {
		version, err := migrations.Up(ctx, database, cfg.MigrationsDir)
		if err != nil {
			return err
		}
		stats, err := seed.Run(ctx, database)
		if err != nil {
			return err
		}
		zlog.Info().Int64("schema_version", version).Int("seed_inserts", stats.Inserts).Msg("database ready")
	}

	var source catalogSource = catalog.NewStore(database)
	if cfg.CatalogFile != "" {
		snap, err := catalog.LoadFile(cfg.CatalogFile)
		if err != nil {
			return err
		}
		source = fixedCatalog{snap: snap}
		zlog.Info().Str("file", cfg.CatalogFile).Int64("catalog_version", snap.Version()).Msg("using file catalog")
	}

	srv := &server{db: database, catalog: source, metrics: newMetrics()}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zlog.Info().Str("addr", httpServer.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/api/catalog", s.handleCatalog)
	r.Post("/api/price", s.handlePrice)
	r.Get("/quotes", s.handleQuotesList)
	r.Post("/quotes", s.handleQuoteCreate)
	r.Get("/quotes/{id}", s.handleQuoteDetail)
	r.Get("/quotes/{id}/text", s.handleQuoteText)
	r.Handle("/metrics", s.metrics.handler())
	return r
}

// requestLogger stores a request-scoped logger in the context for zlog.Ctx.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := zlog.With().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context())))
	})
}
