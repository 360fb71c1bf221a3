package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dfryer1193/blogo/internal/config"
	"github.com/dfryer1193/blogo/internal/middleware"
	"github.com/dfryer1193/blogo/internal/rest"
	webhook "github.com/dfryer1193/blogo/webhook/http"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

func newRouter(cfg *config.Config, b *blog) *gin.Engine {
	router := gin.New()
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.CustomRecovery(middleware.HandlePanics()))

	rest.NewApi(router, b.postService)
	router.Static("/images", b.images.Dir())

	if cfg.Github.WebhookSecret != "" {
		hooks := webhook.NewWebhookHandler(cfg.Github.WebhookSecret, b.postService)
		router.POST("/webhook/git", gin.WrapH(hooks.Router()))
	}

	return router
}

func serve(ctx context.Context, cfg *config.Config) error {
	gin.SetMode(gin.ReleaseMode)

	b, err := openBlog(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	if cfg.HasSource() {
		if err := b.postService.SyncRepositoryChanges(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to sync repository changes")
		}
	}

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: newRouter(cfg, b),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Msg("Server stopped")
	return nil
}
