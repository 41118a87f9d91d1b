package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"magnet-cast/internal/config"
	"magnet-cast/internal/debrid"
	apphttp "magnet-cast/internal/http"
	"magnet-cast/internal/logging"
	"magnet-cast/internal/repository"
	"magnet-cast/internal/repository/memory"
	"magnet-cast/internal/repository/objectstore"
	redisrepo "magnet-cast/internal/repository/redis"
	"magnet-cast/internal/repository/sqlite"
	"magnet-cast/internal/service"
	"magnet-cast/internal/storage"
)

func main() {
	if len(os.Args) == 3 && os.Args[1] == "hash-password" {
		hash, err := service.HashPassword(os.Args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	logger, logCloser, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		logrus.Fatalf("setup logging: %v", err)
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, closeCache, err := buildCache(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("setup link cache: %v", err)
	}
	defer closeCache()

	if err := cache.Init(ctx); err != nil {
		logger.Fatalf("init link cache: %v", err)
	}

	gateway := debrid.NewRealDebrid(debrid.Config{
		BaseURL:   cfg.Debrid.BaseURL,
		Token:     cfg.Debrid.Token,
		Timeout:   cfg.Debrid.Timeout,
		RateLimit: cfg.Debrid.RateLimit,
		Burst:     cfg.Debrid.Burst,
	})

	auth, err := service.NewAuthService(cfg.WebDAV.Username, cfg.WebDAV.Password, cfg.WebDAV.PasswordHash)
	if err != nil {
		logger.Fatalf("setup auth: %v", err)
	}

	ingestSvc := service.NewIngestionService(gateway, cache, service.IngestionConfig{
		SettleDelay: cfg.Ingest.SettleDelay,
		Logger:      logger,
	})
	filesSvc := service.NewFilesystemService(gateway, cache, service.FilesystemConfig{
		PublicURL:   cfg.Server.PublicURL,
		Username:    cfg.WebDAV.Username,
		Password:    cfg.WebDAV.Password,
		Mode:        cfg.WebDAV.Mode,
		RecentLimit: cfg.Listing.RecentLimit,
		MaxEntries:  cfg.Listing.MaxEntries,
		CacheWindow: cfg.Listing.CacheWindow,
		Logger:      logger,
	})
	redirectSvc := service.NewRedirectService(gateway, cache, service.RedirectConfig{
		Freshness: cfg.Redirect.Freshness,
		Logger:    logger,
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(ingestSvc, filesSvc, redirectSvc, auth, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s (public url %s, cache %s)", cfg.Server.Addr, cfg.Server.PublicURL, cfg.Cache.Backend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

func buildCache(ctx context.Context, cfg config.Config, logger *logrus.Logger) (repository.LinkRepository, func(), error) {
	switch cfg.Cache.Backend {
	case config.BackendMemory:
		logger.Warn("using in-memory link cache; records are lost on restart")
		return memory.NewLinkRepository(), func() {}, nil

	case config.BackendRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		logger.Infof("using redis link cache at %s", cfg.Redis.Addr)
		return redisrepo.NewLinkRepository(client, cfg.Redis.KeyPrefix), func() { _ = client.Close() }, nil

	case config.BackendS3:
		store, err := buildStorage(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return objectstore.NewLinkRepository(store, cfg.Storage.Bucket, cfg.Storage.KeyPrefix), func() {}, nil

	default:
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		logger.Infof("using sqlite link cache at %s", cfg.Database.Path)
		return sqlite.NewLinkRepository(db), func() { _ = db.Close() }, nil
	}
}

func buildStorage(ctx context.Context, cfg config.Config, logger *logrus.Logger) (storage.Service, error) {
	if cfg.Storage.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}

	loadOpts := []func(*awscfg.LoadOptions) error{
		awscfg.WithRegion(cfg.Storage.Region),
	}
	if cfg.AWS.Profile != "" {
		loadOpts = append(loadOpts, awscfg.WithSharedConfigProfile(cfg.AWS.Profile))
	}

	awsCfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
			o.UsePathStyle = true
		}
	})
	logger.Infof("using s3 link cache in bucket %s (region %s)", cfg.Storage.Bucket, cfg.Storage.Region)
	return storage.NewS3Service(client), nil
}
