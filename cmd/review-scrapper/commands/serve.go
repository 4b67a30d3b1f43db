package commands

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/rishabh-registerkaro/review-scrapper/internal/app"
	"github.com/rishabh-registerkaro/review-scrapper/internal/cache"
	"github.com/rishabh-registerkaro/review-scrapper/internal/httpserver"
	"github.com/rishabh-registerkaro/review-scrapper/internal/observability"
	mysqlrepo "github.com/rishabh-registerkaro/review-scrapper/internal/storage/mysql"
)

const shutdownTimeout = 10 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the scrape HTTP API.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		reg := observability.InitRegistry()
		metricsSrv := observability.Serve(cfg.MetricsAddr, reg)

		s, closeBrowser, err := newScraper(browserFlags{})
		if err != nil {
			return err
		}
		defer closeBrowser()

		// cache and store are optional
		var (
			c  app.Cache
			st app.Store
		)
		if cfg.RedisAddr != "" {
			rc := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
			defer rc.Close()
			if err := rc.Ping(ctx); err != nil {
				log.Warn().Err(err).Msg("redis unreachable, results will not be cached")
			} else {
				c = rc
			}
		}
		if cfg.MySQLDSN != "" {
			db, err := sql.Open("mysql", cfg.MySQLDSN)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.PingContext(ctx); err != nil {
				return err
			}
			repo := mysqlrepo.New(db)
			if err := repo.Migrate(ctx); err != nil {
				return err
			}
			log.Info().Msg("database connection ok")
			st = repo
		}
		svc := app.NewScrapeService(s, c, st, cfg.CacheTTL, log.Logger)

		srv := httpserver.New(httpserver.Options{
			RateLimitWindow: cfg.RateLimitWindow,
			RateLimitMax:    cfg.RateLimitMax,
			TrustProxy:      cfg.TrustProxy,
			Logger:          log.Logger,
		})
		srv.Mount("/metrics", observability.MetricsHandler(reg))
		srv.MountHandlers(&httpserver.Handlers{Svc: svc, Env: cfg.AppEnv, Started: time.Now()})

		httpSrv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           srv.Mux(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		errc := make(chan error, 1)
		go func() {
			log.Info().Str("addr", cfg.HTTPAddr).Str("env", cfg.AppEnv).Msg("API listening")
			errc <- httpSrv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
		return httpSrv.Shutdown(shutdownCtx)
	},
}
