package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/plantshop/internal/api"
	"github.com/example/plantshop/internal/audit"
	"github.com/example/plantshop/internal/auth"
	"github.com/example/plantshop/internal/config"
	"github.com/example/plantshop/internal/infrastructure/kafka"
	"github.com/example/plantshop/internal/infrastructure/redisx"
	"github.com/example/plantshop/internal/infrastructure/store"
	"github.com/example/plantshop/internal/order"
	"github.com/example/plantshop/internal/repository"
	"github.com/example/plantshop/internal/stock"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[API] configuration: %v", err)
	}

	log.Println("[API] ========================================")
	log.Println("[API] Plant Shop API")
	log.Println("[API] ========================================")
	log.Printf("[API] Store backend: %s", cfg.StoreBackend)

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("[API] store: %v", err)
	}
	defer st.Close()

	users := repository.NewUsers(st)
	products := repository.NewProducts(st)
	orders := repository.NewOrders(st)
	deliveries := repository.NewDeliveries(st)
	finances := repository.NewFinances(st)
	production := repository.NewProduction(st)
	auditLogs := repository.NewAuditLogs(st)

	recorder := audit.NewRecorder(auditLogs)
	ledger := stock.NewLedger(st)

	// Lifecycle events are optional: without brokers the saga runs silent.
	var publisher order.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close()
		publisher = producer
		log.Printf("[API] Kafka: %v topic=%s", cfg.KafkaBrokers, cfg.KafkaTopic)
	} else {
		log.Println("[API] Kafka disabled (KAFKA_BROKERS unset)")
	}

	var idem api.ReplayCache
	if cfg.RedisAddr != "" {
		idem = redisx.NewIdempotencyCache(redisx.NewClient(cfg.RedisAddr))
		log.Printf("[API] Redis idempotency cache: %s", cfg.RedisAddr)
	} else {
		log.Println("[API] Redis disabled (REDIS_ADDR unset); Idempotency-Key ignored")
	}

	placer := order.NewService(orders, ledger, deliveries, finances, recorder, publisher)
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)

	handlers := api.NewHandlers(users, products, orders, deliveries, finances, production, placer, recorder, auditLogs, idem)
	authHandlers := api.NewAuthHandlers(users, jwtService)
	router := api.NewRouter(api.RouterConfig{
		Handlers:     handlers,
		AuthHandlers: authHandlers,
		JWTService:   jwtService,
	})

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		log.Printf("[API] Listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[API] server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API] shutdown: %v", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendDynamo:
		client, err := store.ConnectDynamo(ctx, cfg.DynamoEndpoint)
		if err != nil {
			return nil, err
		}
		log.Println("[API] Connected to DynamoDB")
		return store.NewDynamoStore(client, cfg.DynamoTablePrefix), nil

	case config.BackendPostgres:
		db, err := store.ConnectPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		pg := store.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
		log.Println("[API] Connected to PostgreSQL")
		return pg, nil

	default:
		log.Println("[API] Using in-memory store (data is not persisted)")
		return store.NewMemoryStore(), nil
	}
}
