package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/food_order/internal/cart"
	"github.com/Skotchmaster/food_order/internal/checkout"
	"github.com/Skotchmaster/food_order/internal/config"
	"github.com/Skotchmaster/food_order/internal/es"
	"github.com/Skotchmaster/food_order/internal/httpserver"
	"github.com/Skotchmaster/food_order/internal/mykafka"
	"github.com/Skotchmaster/food_order/internal/querycache"
	"github.com/Skotchmaster/food_order/internal/realtime"
	"github.com/Skotchmaster/food_order/internal/repo"
	"github.com/Skotchmaster/food_order/internal/service"
	"github.com/Skotchmaster/food_order/internal/session"
	"github.com/Skotchmaster/food_order/pkg/db"
	"github.com/Skotchmaster/food_order/pkg/logging"
	"github.com/Skotchmaster/food_order/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/food_order/pkg/middleware/logging"
	"github.com/Skotchmaster/food_order/pkg/paymentclient"
)

const cacheJitter = 30 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadServer()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.ServiceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, logger)

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close(gdb)

	if cfg.MigrateOnStart {
		if err := db.Migrate(gdb); err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	r := repo.New(gdb)

	cache, closeCache := openCache(ctx, cfg, logger)
	defer closeCache()

	hub := realtime.NewHub(realtime.DefaultBuffer)
	go realtime.NewInvalidator(hub, cache).Run(ctx)

	var (
		events   realtime.Publisher = hub
		producer service.EventProducer
	)
	if len(cfg.KafkaBrokers) > 0 {
		prod := mykafka.NewProducer(cfg.KafkaBrokers)
		defer func() {
			if err := prod.Close(); err != nil {
				logger.Error("kafka_close_failed", "error", err)
			}
		}()
		producer = prod
		events = realtime.NewKafkaPublisher(prod)

		consumer := realtime.NewConsumer(hub, cfg.InstanceID, cfg.KafkaBrokers...)
		defer consumer.Close()
		go consumer.Run(ctx)
		logger.Info("kafka_enabled", "brokers", cfg.KafkaBrokers, "group", realtime.GroupID(cfg.InstanceID))
	}

	catalogSvc := &service.CatalogService{Repo: r, Cache: cache, Producer: producer}
	if cfg.ES.URL != "" {
		esCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		client, err := es.NewClient(esCtx, es.Config{URL: cfg.ES.URL, User: cfg.ES.User, Password: cfg.ES.Password})
		cancel()
		if err != nil {
			logger.Warn("elasticsearch_unavailable", "reason", "search falls back to database", "error", err)
		} else {
			catalogSvc.Index = es.NewProductIndex(client)
		}
	}

	orderSvc := &service.OrderService{Repo: r, Cache: cache, Events: events}
	carts := cart.NewStore()
	checkoutSvc := checkout.NewService(paymentclient.NewClient(cfg.PaymentURL), orderSvc, carts, cfg.CheckoutAtomic)

	hooks := &session.Hooks{}
	hooks.OnEnd(carts.Drop)
	hooks.OnEnd(checkoutSvc.Drop)

	authSvc := &service.AuthService{
		Repo:          r,
		JWTSecret:     cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
		Hooks:         hooks,
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), middleware.CORS())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(csrf.Middleware(csrf.Config{
		SkipPaths: []string{"/auth/login", "/auth/register", "/auth/refresh"},
	}))

	httpserver.Register(e, &httpserver.Deps{
		Auth:      &httpserver.AuthHTTP{Svc: authSvc},
		Catalog:   &httpserver.CatalogHTTP{Svc: catalogSvc},
		Orders:    &httpserver.OrderHTTP{Svc: orderSvc},
		Cart:      &httpserver.CartHTTP{Carts: carts, Catalog: catalogSvc},
		Checkout:  &httpserver.CheckoutHTTP{Svc: checkoutSvc},
		Stream:    &httpserver.StreamHTTP{Hub: hub, Orders: orderSvc},
		JWTSecret: cfg.JWTAccessSecret,
		Checker:   r,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server_started", "addr", srv.Addr, "checkout_atomic", cfg.CheckoutAtomic)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	logger.Info("shutdown_complete")
}

// openCache uses redis when REDIS_ADDR is set and an in-process store otherwise.
func openCache(ctx context.Context, cfg config.ServerConfig, logger *slog.Logger) (*querycache.Cache, func()) {
	if cfg.RedisAddr == "" {
		logger.Info("query_cache", "store", "memory", "ttl", cfg.CacheTTL)
		return querycache.New(querycache.NewMemoryStore(), cfg.CacheTTL), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis_unavailable", "reason", "using memory cache", "error", err)
		_ = client.Close()
		return querycache.New(querycache.NewMemoryStore(), cfg.CacheTTL), func() {}
	}

	logger.Info("query_cache", "store", "redis", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	return querycache.New(querycache.NewRedisStore(client, cacheJitter), cfg.CacheTTL), func() {
		if err := client.Close(); err != nil {
			logger.Error("redis_close_failed", "error", err)
		}
	}
}
