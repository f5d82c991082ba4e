package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sudhirsriram/bgstudio/internal/config"
	"github.com/sudhirsriram/bgstudio/internal/handle"
	httpHandler "github.com/sudhirsriram/bgstudio/internal/handler/http"
	"github.com/sudhirsriram/bgstudio/internal/handler/middleware"
	"github.com/sudhirsriram/bgstudio/internal/infrastructure/blobstore"
	"github.com/sudhirsriram/bgstudio/internal/infrastructure/compress"
	"github.com/sudhirsriram/bgstudio/internal/infrastructure/segment"
	"github.com/sudhirsriram/bgstudio/internal/session"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	zlog.Init()
	zlog.Logger.Info().Msg("Starting Background Removal Studio")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load("")
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Blob store + handle registry
	store, err := blobstore.New(&cfg.BlobStore)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to initialize blob store")
	}
	handles := handle.NewRegistry(store)

	// External capabilities
	compressor, err := compress.New(&cfg.Compression)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to initialize compressor")
	}
	segmenter := segment.New(&cfg.Segmentation)

	healthCtx, cancelHealth := context.WithTimeout(ctx, 5*time.Second)
	if err := segmenter.CheckHealth(healthCtx); err != nil {
		zlog.Logger.Warn().Err(err).Str("endpoint", cfg.Segmentation.Endpoint).Msg("segmentation service not reachable at startup")
	}
	cancelHealth()

	// Session controller
	controller := session.NewController(compressor, segmenter, handles, &cfg.Upload, &cfg.Countdown)

	// Gin engine + middleware
	engine := ginext.New("api")
	engine.Use(
		middleware.ErrorHandlerMiddleware(),
		middleware.LoggerMiddleware(),
		middleware.CORSMiddleware(),
	)

	engine.GET("/health", func(c *ginext.Context) {
		c.JSON(http.StatusOK, ginext.H{"status": "ok"})
	})

	sessionHandler := httpHandler.NewSessionHandler(controller, handles)
	sessionHandler.RegisterRoutes(engine)

	engine.GET("/", func(c *ginext.Context) {
		c.File("./static/index.html")
	})
	engine.Static("/static", "./static")

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}

	go func() {
		zlog.Logger.Info().Str("addr", cfg.Server.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
	} else {
		zlog.Logger.Info().Msg("HTTP server stopped gracefully")
	}

	// Release whatever the live session still holds.
	if err := controller.Delete(context.Background()); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to release session resources on shutdown")
	}

	zlog.Logger.Info().Msg("Shutdown complete")
}
