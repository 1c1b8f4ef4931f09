package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dfryer1193/portfolio/blog/application"
	"github.com/dfryer1193/portfolio/blog/domain"
	"github.com/dfryer1193/portfolio/blog/persistence"
	"github.com/dfryer1193/portfolio/internal/config"
	"github.com/dfryer1193/portfolio/internal/logging"
	"github.com/dfryer1193/portfolio/internal/middleware"
	"github.com/dfryer1193/portfolio/internal/rest"
	"github.com/dfryer1193/portfolio/shared/cloudinary"
	"github.com/dfryer1193/portfolio/shared/db"
	"github.com/dfryer1193/portfolio/shared/db/mongodb"
	"github.com/dfryer1193/portfolio/shared/objectstore"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const indexTimeout = 15 * time.Second

// postStore is what the server needs from a content store backend
type postStore interface {
	domain.PostRepository
	rest.HealthChecker
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if err := logging.Setup(cfg.Log.Level, cfg.Log.Pretty); err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

func serve(cfg *config.Config) error {
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	ctx := context.Background()

	// A broken store configuration keeps the process up; the blog routes report it instead.
	storeErr := cfg.ValidateStore()
	var (
		store     postStore
		connector db.Connector
	)
	if storeErr != nil {
		log.Error().Err(storeErr).Msg("Content store is not configured; blog routes will report a configuration error")
	} else {
		var err error
		store, connector, err = newStore(ctx, cfg)
		if err != nil {
			return err
		}
	}
	if connector != nil {
		defer func() {
			if err := connector.Close(context.WithoutCancel(ctx)); err != nil {
				log.Error().Err(err).Msg("Failed to close database connection")
			}
		}()
	}

	media, err := newMediaUploader(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Image uploads are not configured; posts with an image will be rejected")
	}

	var handler *rest.BlogHandler
	if store != nil {
		postService := application.NewPostService(store, media, application.NewMarkdownRenderer(cfg.Server.SiteURL))
		handler = rest.NewBlogHandler(postService, store, rest.Options{SiteURL: cfg.Server.SiteURL})
	} else {
		handler = rest.NewBlogHandler(nil, nil, rest.Options{SiteURL: cfg.Server.SiteURL, ConfigErr: storeErr})
	}

	router, err := newRouter(handler)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}

func newRouter(handler *rest.BlogHandler) (*gin.Engine, error) {
	if zerolog.GlobalLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.Metrics())
	router.Use(gin.CustomRecovery(middleware.HandlePanics()))

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if err := rest.NewApi(router, handler); err != nil {
		return nil, err
	}
	return router, nil
}

// newStore builds the configured content store. The returned connector is nil for the
// in-memory backend.
func newStore(ctx context.Context, cfg *config.Config) (postStore, db.Connector, error) {
	if cfg.Store.Backend == config.StoreMemory {
		log.Warn().Msg("Using in-memory content store; posts are lost on restart")
		return persistence.NewMemoryPostRepository(), nil, nil
	}

	mongoCfg := mongodb.MongoConfig{
		URI:            cfg.Store.URI,
		Database:       cfg.Store.Database,
		ConnectTimeout: cfg.Store.ConnectTimeout,
	}

	var connector db.Connector
	if cfg.Store.Pooled {
		pooled := mongodb.NewPooledConnector(mongoCfg)
		if err := pooled.Connect(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		connector = pooled
		log.Info().Str("database", cfg.Store.Database).Msg("Connected to database with a shared pool")
	} else {
		connector = mongodb.NewPerCallConnector(mongoCfg)
		log.Info().Str("database", cfg.Store.Database).Msg("Using a connection per request")
	}

	// Listings work without the index, just slower, so a failure here is not fatal
	indexCtx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()
	if err := mongodb.EnsureIndexes(indexCtx, connector, cfg.Store.Collection); err != nil {
		log.Warn().Err(err).Msg("Failed to ensure indexes")
	}

	return persistence.NewPostRepository(connector, cfg.Store.Collection), connector, nil
}

func newMediaUploader(cfg *config.Config) (domain.MediaUploader, error) {
	if err := cfg.ValidateMedia(); err != nil {
		return nil, err
	}

	switch cfg.Media.Backend {
	case config.MediaS3:
		uploader, err := objectstore.NewMinioUploader(objectstore.Config{
			Endpoint:  cfg.Media.S3.Endpoint,
			AccessKey: cfg.Media.S3.AccessKey,
			SecretKey: cfg.Media.S3.SecretKey,
			UseSSL:    cfg.Media.S3.UseSSL,
			Bucket:    cfg.Media.S3.Bucket,
			Preset:    cfg.Media.S3.Preset,
			PublicURL: cfg.Media.S3.PublicURL,
		})
		if err != nil {
			return nil, err
		}
		return uploader, nil
	default:
		return cloudinary.NewUploader(nil, cloudinary.Config{
			CloudName:    cfg.Media.Cloudinary.CloudName,
			UploadPreset: cfg.Media.Cloudinary.UploadPreset,
			APIBase:      cfg.Media.Cloudinary.APIBase,
		}), nil
	}
}
