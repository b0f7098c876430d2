package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/techhub/internal/catalog"
	"github.com/fjod/techhub/internal/checkout"
	"github.com/fjod/techhub/internal/config"
	h "github.com/fjod/techhub/internal/http"
	"github.com/fjod/techhub/internal/logger"
	"github.com/fjod/techhub/internal/notify"
	"github.com/fjod/techhub/internal/service"
	"github.com/fjod/techhub/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	zl, err := logger.New("storefront", cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()
	zap.ReplaceGlobals(zl)

	ctx := context.Background()

	store, closeStore, err := openStore(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to open storage", zap.String("backend", cfg.StorageBackend), zap.Error(err))
	}
	defer closeStore()

	source, closeSource, err := openCatalog(cfg, zl)
	if err != nil {
		zl.Fatal("failed to open catalog", zap.String("source", cfg.CatalogSource), zap.Error(err))
	}
	defer closeSource()

	publisher := newPublisher(cfg, zl)
	defer publisher.Close()

	notifier := notify.Multi{notify.ContextNotifier{}, notify.NewLogNotifier(zl)}
	cartService := service.NewCartService(store, notifier, zl)
	products := catalog.NewService(source, zl)
	checkoutService := checkout.NewService(cartService, publisher, notifier, zl)

	router := h.NewRouter(h.Handlers{
		Products: h.NewProductHandler(products, zl, cfg.RequestTimeout),
		Cart:     h.NewCartHandler(cartService, products, notifier, zl, cfg.RequestTimeout),
		Session:  h.NewSessionHandler(cartService, notifier, zl, cfg.RequestTimeout),
		Checkout: h.NewCheckoutHandler(checkoutService, zl, cfg.RequestTimeout),
	}, zl, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zl.Info("storefront starting", zap.String("port", cfg.HTTPPort),
			zap.String("storage", cfg.StorageBackend), zap.String("catalog", cfg.CatalogSource))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
		return
	}

	zl.Info("server exited")
}

func openStore(ctx context.Context, cfg *config.Config, zl *zap.Logger) (storage.KeyValue, func(), error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		zl.Warn("using in-memory storage, carts are lost on restart")
		return storage.NewMemoryStore(), func() {}, nil

	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.RedisAddr, err)
		}
		zl.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
		return storage.NewRedisStore(client, cfg.RedisTTL), func() { client.Close() }, nil

	case config.StorageMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		db, err := storage.ConnectMongo(connectCtx, storage.MongoOptions{
			URI:                    cfg.MongoURI,
			Database:               cfg.MongoDBName,
			ConnectTimeout:         cfg.MongoConnectTimeout,
			ServerSelectionTimeout: cfg.MongoSelectTimeout,
			MaxPoolSize:            cfg.MongoMaxPoolSize,
			MinPoolSize:            cfg.MongoMinPoolSize,
		})
		if err != nil {
			return nil, nil, err
		}
		store := storage.NewMongoStore(db)
		if err := store.CreateIndexes(connectCtx); err != nil {
			zl.Warn("failed to create mongo indexes", zap.Error(err))
		}
		zl.Info("connected to mongodb", zap.String("database", cfg.MongoDBName))
		return store, func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			db.Client().Disconnect(disconnectCtx)
		}, nil
	}

	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

func openCatalog(cfg *config.Config, zl *zap.Logger) (catalog.Source, func(), error) {
	switch cfg.CatalogSource {
	case config.CatalogSQLite:
		repo, err := catalog.NewRepository(cfg.CatalogDBPath)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
			repo.Close()
			return nil, nil, err
		}
		zl.Info("catalog database ready", zap.String("path", cfg.CatalogDBPath))
		return repo, func() { repo.Close() }, nil

	case config.CatalogHTTP:
		zl.Info("catalog served over http", zap.String("url", cfg.CatalogURL))
		return catalog.NewHTTPSource(cfg.CatalogURL, cfg.CatalogTimeout, zl), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown catalog source %q", cfg.CatalogSource)
}

func newPublisher(cfg *config.Config, zl *zap.Logger) checkout.EventPublisher {
	if len(cfg.KafkaBrokers) == 0 {
		zl.Info("no kafka brokers configured, order events are logged only")
		return checkout.NewLogPublisher(zl)
	}
	zl.Info("publishing order events to kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", checkout.OrdersTopic))
	return checkout.NewKafkaPublisher(cfg.KafkaBrokers...)
}
