package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/singleflight"

	"github.com/Adda-Baaj/seema-khobor/internal/aggregator"
	"github.com/Adda-Baaj/seema-khobor/internal/logger"
	"github.com/Adda-Baaj/seema-khobor/internal/store"
)

const shutdownGrace = 10 * time.Second

var serveAddr string

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ranked headlines over HTTP at /api/scrape",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(configPath, "")
	if err != nil {
		return err
	}
	defer a.log.Sync() //nolint:errcheck

	var cache snapshotCache
	if a.cfg.Cache.TTL > 0 {
		snaps, err := store.Open(a.cfg.Cache.Path, a.cfg.Cache.TTL)
		if err != nil {
			return err
		}
		defer snaps.Close()
		cache = snaps
	}

	addr := a.cfg.Server.Addr
	if strings.TrimSpace(serveAddr) != "" {
		addr = serveAddr
	}

	if !strings.EqualFold(a.cfg.Log.Level, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(newServer(a.pipeline, cache, a.log)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.InfoObj("http server listening", "server_start", map[string]any{
			"addr":      addr,
			"cache_ttl": a.cfg.Cache.TTL.String(),
		})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	a.log.InfoObj("http server shutting down", "server_stop", nil)
	return srv.Shutdown(shutdownCtx)
}

// snapshotCache is the subset of store.Snapshots the route uses.
type snapshotCache interface {
	Latest(now time.Time) (aggregator.Result, bool, error)
	Save(res aggregator.Result, savedAt time.Time) error
}

// server answers the scrape route. Concurrent misses share one run.
type server struct {
	runner runner
	cache  snapshotCache
	log    logger.Logger
	now    func() time.Time
	flight singleflight.Group
}

func newServer(r runner, cache snapshotCache, log logger.Logger) *server {
	return &server{runner: r, cache: cache, log: logger.Ensure(log), now: time.Now}
}

func newRouter(s *server) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	api := r.Group("/api")
	api.GET("/scrape", s.scrape)
	api.GET("/sources", s.sources)

	return r
}

// scrape returns the ranked list, optionally narrowed by ?source=.
// ?refresh=true bypasses the snapshot.
func (s *server) scrape(c *gin.Context) {
	refresh, _ := strconv.ParseBool(c.Query("refresh"))

	res, err := s.result(c.Request.Context(), refresh)
	if err != nil {
		c.JSON(http.StatusInternalServerError, scrapeFailed)
		return
	}
	c.JSON(http.StatusOK, okEnvelope(filterBySource(res.Articles, c.Query("source")), s.now()))
}

// sources lists the distinct source names present in the current result.
func (s *server) sources(c *gin.Context) {
	res, err := s.result(c.Request.Context(), false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, scrapeFailed)
		return
	}
	names := distinctSources(res.Articles)
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": append([]string{"all"}, names...)})
}

// result serves a fresh snapshot when one exists, otherwise runs the pipeline.
func (s *server) result(ctx context.Context, refresh bool) (aggregator.Result, error) {
	if !refresh && s.cache != nil {
		res, ok, err := s.cache.Latest(s.now())
		if err != nil {
			s.log.WarnObj("snapshot read failed", "snapshot_error", map[string]any{"error": err.Error()})
		} else if ok {
			return res, nil
		}
	}

	v, err, _ := s.flight.Do("run", func() (any, error) {
		// one caller hanging up must not cancel the shared run
		res, err := s.runner.Run(context.WithoutCancel(ctx))
		if err != nil {
			s.log.ErrorObj("scrape run failed", "scrape_error", map[string]any{"error": err.Error()})
			return nil, err
		}
		if s.cache != nil {
			if err := s.cache.Save(res, s.now()); err != nil {
				s.log.WarnObj("snapshot save failed", "snapshot_error", map[string]any{"error": err.Error()})
			}
		}
		return res, nil
	})
	if err != nil {
		return aggregator.Result{}, err
	}
	return v.(aggregator.Result), nil
}

func (s *server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.InfoObj("http request", "http_request", map[string]any{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"query":      c.Request.URL.RawQuery,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		})
	}
}
