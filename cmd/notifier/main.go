package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/plantshop/internal/config"
	"github.com/example/plantshop/internal/email"
	"github.com/example/plantshop/internal/infrastructure/kafka"
	"github.com/example/plantshop/internal/infrastructure/store"
	"github.com/example/plantshop/internal/notification"
	"github.com/example/plantshop/internal/repository"
)

const consumerGroup = "plantshop-notifier"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Notifier] configuration: %v", err)
	}
	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal("[Notifier] KAFKA_BROKERS is required")
	}

	log.Println("[Notifier] ========================================")
	log.Println("[Notifier] Plant Shop - Email Notification Service")
	log.Println("[Notifier] ========================================")
	log.Printf("[Notifier] Kafka: %v topic=%s group=%s", cfg.KafkaBrokers, cfg.KafkaTopic, consumerGroup)
	log.Printf("[Notifier] SMTP: %s:%s from=%s", cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("[Notifier] store: %v", err)
	}
	defer st.Close()

	emailSvc := email.NewService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	handler := notification.NewHandler(emailSvc, repository.NewUsers(st), repository.NewProducts(st))

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, consumerGroup)
	defer consumer.Close()

	go func() {
		log.Println("[Notifier] Consuming order events...")
		if err := consumer.Consume(ctx, handler.HandleEvent); err != nil {
			if ctx.Err() == nil {
				log.Printf("[Notifier] consumer: %v", err)
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[Notifier] Shutting down...")
	cancel()
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendDynamo:
		client, err := store.ConnectDynamo(ctx, cfg.DynamoEndpoint)
		if err != nil {
			return nil, err
		}
		return store.NewDynamoStore(client, cfg.DynamoTablePrefix), nil
	case config.BackendPostgres:
		db, err := store.ConnectPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store.NewPostgresStore(db), nil
	default:
		return store.NewMemoryStore(), nil
	}
}
