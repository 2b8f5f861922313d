package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/danmuck/gfxtrace/internal/catalog"
	"github.com/danmuck/gfxtrace/internal/config"
	"github.com/danmuck/gfxtrace/internal/service"
	"github.com/danmuck/gfxtrace/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve captures over HTTP and the framed stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg config.Config) error {
	st, err := store.Open(cfg.StoreDriver, cfg.StorePath)
	if err != nil {
		return err
	}
	defer st.Close()

	server, err := service.NewServer(catalog.MustBuild(), st, service.ServerConfig{
		Entities:      catalog.Entities(),
		ListCacheSize: cfg.ListCacheSize,
		Limits:        cfg.Limits,
		CaptureDir:    cfg.CaptureDir,
	})
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	if cfg.HTTPAddr != "" {
		gin.SetMode(gin.ReleaseMode)
		httpServer := &http.Server{
			Addr: cfg.HTTPAddr,
			Handler: service.NewRouter(server, service.HTTPConfig{
				Name:            cfg.Name,
				CORSOrigins:     cfg.CORSOrigins,
				MaxPayloadBytes: cfg.MaxPayloadBytes,
				AuthToken:       cfg.HTTPAuthToken,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			log.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}
	if cfg.StreamAddr != "" {
		ln, err := service.ListenStream(cfg.StreamAddr, cfg.Stream)
		if err != nil {
			return err
		}
		g.Go(func() error {
			log.Info().Str("addr", cfg.StreamAddr).Bool("tls", cfg.Stream.TLS.Enabled).Msg("stream listening")
			return service.ServeListener(ctx, ln, server, cfg.Stream)
		})
	}
	return g.Wait()
}
