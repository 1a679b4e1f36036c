package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	appcontext "github.com/SeakMengs/AutoCard/internal/app_context"
	"github.com/SeakMengs/AutoCard/internal/config"
	"github.com/SeakMengs/AutoCard/internal/controller"
	"github.com/SeakMengs/AutoCard/internal/env"
	filestorage "github.com/SeakMengs/AutoCard/internal/file_storage"
	"github.com/SeakMengs/AutoCard/internal/middleware"
	ratelimiter "github.com/SeakMengs/AutoCard/internal/rate_limiter"
	"github.com/SeakMengs/AutoCard/internal/repository"
	"github.com/SeakMengs/AutoCard/internal/route"
	"github.com/SeakMengs/AutoCard/internal/session"
	"github.com/SeakMengs/AutoCard/internal/util"
	"github.com/SeakMengs/AutoCard/pkg/autocard"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// this function run before main
func init() {
	env.LoadEnv(".env")
}

func main() {
	cfg := config.GetConfig()

	logger := util.NewLogger(cfg.ENV)
	logger.Debugf("Configuration: %+v \n", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Custom validation
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := util.RegisterValidations(v); err != nil {
			logger.Panic(err)
		}
	}

	// Batch export is disabled when no storage credentials are configured
	var storage filestorage.ArtifactStore
	if cfg.Minio.ACCESS_KEY != "" {
		s3, err := filestorage.NewMinioClient(cfg.Minio)
		if err != nil {
			logger.Error("Error connecting to minio")
			logger.Panic(err)
		}
		storage = filestorage.NewMinioStore(s3, cfg.Minio)
	} else {
		logger.Warn("MINIO_ACCESS_KEY is not set, batch export is disabled")
	}

	fonts := autocard.NewFontRegistry(autocard.FontConfig{
		MetadataPath: cfg.Render.FontMetadataPath,
		FontDir:      cfg.Render.FontDir,
	}, logger)

	// Only the platform receives the caller's token
	fetcher := autocard.NewHTTPAssetFetcher(cfg.Upstream.Timeout, autocard.URLHost(cfg.Upstream.BaseURL))
	var qr autocard.QRProvider = autocard.NewLocalQRProvider()
	if cfg.Render.QRProvider == config.QRProviderRemote {
		qr = autocard.NewRemoteQRProvider(cfg.Render.QRServiceURL, fetcher)
	}
	compositor := autocard.NewCompositor(fonts, fetcher, qr, logger)

	sessions := session.NewStore(cfg.Editor.SessionTTL, logger)
	go sessions.Run(ctx, time.Minute)

	rateLimiter := ratelimiter.NewRateLimiter(cfg.RateLimiter, logger)
	app := appcontext.Application{
		Config:         &cfg,
		Logger:         logger,
		Repository:     repository.NewRepository(cfg.Upstream, logger),
		Compositor:     compositor,
		BatchGenerator: autocard.NewBatchGenerator(compositor, logger),
		Fonts:          fonts,
		Sessions:       sessions,
		Storage:        storage,
	}

	_middleware := middleware.NewMiddleware(&app, rateLimiter)

	if cfg.IsProduction() {
		logger.Info("Running in production mode")
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// docs: https://github.com/gin-contrib/cors?tab=readme-ov-file#using-defaultconfig-as-start-point
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With", "Accept"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "Retry-After"}
	r.Use(cors.New(corsConfig))
	r.Use(_middleware.RateLimiterMiddleware)

	_controller := controller.NewController(&app)

	r.GET("/", _controller.Index.Index)

	rApi := r.Group("/api")

	route.V1_Index(rApi, _controller.Index, _controller.Font)
	route.V1_IDCards(rApi, _controller.Render, _middleware)
	route.V1_Certificates(rApi, _controller.Render, _middleware)
	route.V1_Batches(rApi, _controller.Batch, _middleware)
	route.V1_Editor(rApi, _controller.Editor, _middleware)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + app.Config.Port,
		Handler: r,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Panicf("Error running server: %v \n", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("Shutting down, waiting for in-flight requests")

	// Batch renders can take a while, give them time to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shut down: %v", err)
	}
	logger.Info("Server stopped")
}
