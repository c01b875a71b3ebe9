package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/user/coupon-service/internal/adapter/chromedp_browser"
	"github.com/user/coupon-service/internal/adapter/postgres"
	redis_adapter "github.com/user/coupon-service/internal/adapter/redis"
	"github.com/user/coupon-service/internal/delivery/http/handler"
	"github.com/user/coupon-service/internal/delivery/http/router"
	"github.com/user/coupon-service/internal/usecase"
	"github.com/user/coupon-service/pkg/config"
	"github.com/user/coupon-service/pkg/logger"
	"github.com/user/coupon-service/pkg/metrics"
	"go.uber.org/zap"
)

func main() {
	bulk := flag.Bool("bulk", false, "run a full bulk scrape across all categories and exit")
	flag.Parse()

	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// --- Logger ---
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// --- Metrics ---
	metrics.Init()

	ctx := context.Background()

	// --- PostgreSQL ---
	dbpool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatal("unable to connect to database", zap.Error(err))
	}
	defer dbpool.Close()

	couponRepo := postgres.NewCouponRepo(dbpool)
	if err := couponRepo.InitSchema(ctx); err != nil {
		log.Fatal("unable to initialize schema", zap.Error(err))
	}
	log.Info("postgresql connection pool established")

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("unable to connect to redis", zap.Error(err))
	}
	offerCache := redis_adapter.NewOfferCache(rdb)
	log.Info("redis connection established")

	// --- Browser ---
	sessions := chromedp_browser.NewSessionManager(
		time.Duration(cfg.SessionReuseSeconds)*time.Second, log)
	defer sessions.Shutdown()

	// --- Use Cases ---
	listings := usecase.NewListingUseCase(sessions, cfg.ListingBaseURL,
		time.Duration(cfg.NavTimeoutSeconds)*time.Second,
		time.Duration(cfg.CardWaitSeconds)*time.Second, log)

	resolverCfg := usecase.DefaultResolverConfig()
	resolverCfg.Concurrency = cfg.ResolverConcurrency
	resolverCfg.BatchSize = cfg.ResolverBatchSize
	resolverCfg.ItemTimeout = time.Duration(cfg.ResolverItemTimeoutSeconds) * time.Second
	resolverCfg.ModalWait = time.Duration(cfg.ModalWaitSeconds) * time.Second
	resolver := usecase.NewResolverUseCase(sessions, resolverCfg, log)

	enumerator := usecase.NewEnumeratorUseCase(sessions, cfg.ListingBaseURL,
		time.Duration(cfg.NavTimeoutSeconds)*time.Second, log)

	catalog := usecase.NewCatalogUseCase(couponRepo, offerCache,
		time.Duration(cfg.CacheTTLHours)*time.Hour,
		time.Duration(cfg.RetentionDays)*24*time.Hour, log)

	pipeline := usecase.NewPipelineUseCase(listings, resolver, enumerator, catalog,
		usecase.PipelineConfig{
			DomainRetries:   cfg.DomainRetries,
			RetryDelay:      time.Duration(cfg.RetryDelaySeconds) * time.Second,
			DomainBatchSize: cfg.DomainBatchSize,
			BatchDelay:      time.Duration(cfg.BatchDelaySeconds) * time.Second,
			CategoryDelay:   time.Duration(cfg.CategoryDelaySeconds) * time.Second,
		}, log)

	if *bulk {
		runBulk(ctx, pipeline, log)
		return
	}

	// --- HTTP Server ---
	apiHandler := handler.NewHandler(catalog, pipeline, log)
	httpRouter := router.New(apiHandler, log)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httpRouter,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("could not start server", zap.Error(err))
		}
	}()
	log.Info("server started", zap.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}
	log.Info("server exiting")
}

// runBulk executes one full category sweep. A run that resolves nothing exits
// non-zero; individual domain failures do not.
func runBulk(ctx context.Context, pipeline *usecase.PipelineUseCase, log *zap.Logger) {
	report, err := pipeline.RunBulk(ctx)
	if err != nil {
		log.Error("bulk run failed",
			zap.Int("domains", report.Domains),
			zap.Int("succeeded", report.Succeeded),
			zap.Int("failed", report.Failed),
			zap.Error(err),
		)
		log.Sync()
		os.Exit(1)
	}
	log.Info("bulk run complete",
		zap.Int("categories", report.Categories),
		zap.Int("domains", report.Domains),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
	)
}
