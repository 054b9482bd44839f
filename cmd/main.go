package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ledgerwatch/btc-sanctions/internal/audit"
	"github.com/ledgerwatch/btc-sanctions/internal/config"
	"github.com/ledgerwatch/btc-sanctions/internal/handler"
	"github.com/ledgerwatch/btc-sanctions/internal/indexer"
	"github.com/ledgerwatch/btc-sanctions/internal/messaging"
	"github.com/ledgerwatch/btc-sanctions/internal/sanctions"
	"github.com/ledgerwatch/btc-sanctions/internal/screener"
	"github.com/ledgerwatch/btc-sanctions/internal/walker"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if cfg.App.Debug {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	logger.Info("Starting Bitcoin Sanctions Screening Service",
		zap.String("name", cfg.App.Name),
		zap.String("environment", cfg.App.Environment))

	sanctionsIndex := sanctions.New(sanctions.FileSource{Path: filepath.Join(cfg.Sanctions.Dir, cfg.Sanctions.FileName)})

	indexerClient := indexer.NewHTTPClient(indexer.HTTPClientConfig{
		BaseURL:         cfg.Indexer.BaseURL,
		Timeout:         time.Duration(cfg.Indexer.TimeoutSeconds) * time.Second,
		RateLimitWindow: time.Duration(cfg.Indexer.RateLimitWindow) * time.Second,
		RateLimitMax:    cfg.Indexer.RateLimitMax,
	}, logger)

	pathWalker := walker.New(sanctionsIndex, indexerClient, logger)
	auditLog := audit.New(cfg.Audit.LogsDir, logger)

	addressScreener := screener.NewAddressScreener(sanctionsIndex, pathWalker, auditLog, logger)
	transactionScreener := screener.NewTransactionScreener(indexerClient, addressScreener, auditLog, logger)

	var producer *messaging.KafkaProducer
	var consumer *messaging.KafkaConsumer
	if cfg.Kafka.Enabled {
		producer, err = messaging.NewKafkaProducer(messaging.KafkaProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			RequiredAcks: cfg.Kafka.Producer.RequiredAcks,
			RetryMax:     cfg.Kafka.Producer.RetryMax,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Kafka producer", zap.Error(err))
		}
		defer producer.Close()

		consumer, err = messaging.NewKafkaConsumer(messaging.KafkaConfig{
			Brokers:       cfg.Kafka.Brokers,
			ConsumerGroup: cfg.Kafka.ConsumerGroup,
			Topics:        messaging.KafkaTopicsConfig(cfg.Kafka.Topics),
		}, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Kafka consumer", zap.Error(err))
		}
		defer consumer.Close()

		eventHandler := messaging.NewEventHandler(transactionScreener, producer, messaging.KafkaTopicsConfig(cfg.Kafka.Topics), logger)

		consumeCtx, cancelConsume := context.WithCancel(context.Background())
		defer cancelConsume()
		go func() {
			if err := consumer.Consume(consumeCtx, eventHandler.HandleTransaction); err != nil && err != context.Canceled {
				logger.Error("Kafka consumer stopped", zap.Error(err))
			}
		}()
	}

	httpHandler := handler.NewHTTPHandler(addressScreener, transactionScreener, sanctionsIndex, indexerClient, auditLog, logger)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(handler.CORSMiddleware())
	httpHandler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         cfg.App.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Sanctions screening service listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down sanctions screening service...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Sanctions screening service stopped")
}
