package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/tradekit/chat-order-gateway/internal/config"
	"github.com/tradekit/chat-order-gateway/internal/journal"
	"github.com/tradekit/chat-order-gateway/internal/logging"
	"github.com/tradekit/chat-order-gateway/internal/msg"
	"github.com/tradekit/chat-order-gateway/internal/observability"
	"github.com/tradekit/chat-order-gateway/internal/parser"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig("command-gateway")

	// Initialize logger
	logger, err := logging.NewLogger(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting command-gateway service",
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.Int("http_port", cfg.HTTPPort),
		zap.String("kafka_brokers", cfg.KafkaBrokers),
		zap.String("data_dir", cfg.DataDir),
	)

	// Create data directory
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logger.Fatal("failed to create data directory", zap.Error(err))
	}

	// Open message journal
	dbPath := filepath.Join(cfg.DataDir, "journal.db")
	store, err := journal.Open(dbPath)
	if err != nil {
		logger.Fatal("failed to open journal", zap.Error(err))
	}
	defer store.Close()

	logger.Info("journal opened", zap.String("path", dbPath))

	// Create health checker
	healthChecker := observability.NewHealthChecker(logger)
	healthChecker.SetGate("journal", true)

	// Create Kafka producer for the outbox publisher
	brokers := strings.Split(cfg.KafkaBrokers, ",")
	for i := range brokers {
		brokers[i] = strings.TrimSpace(brokers[i])
	}
	producer, err := msg.NewProducer(brokers, logger)
	if err != nil {
		logger.Fatal("failed to create kafka producer", zap.Error(err))
	}
	defer producer.Close()

	// Create outbox publisher
	publisher := journal.NewPublisher(store, producer, logger)

	// Create Kafka consumer for inbound chat messages
	consumer, err := msg.NewConsumer(brokers, "command-gateway-v1", []string{msg.TopicChatMessages}, logger)
	if err != nil {
		logger.Fatal("failed to create kafka consumer", zap.Error(err))
	}
	defer consumer.Close()

	// Create gRPC server (health service)
	grpcServer := grpc.NewServer()
	healthChecker.RegisterGRPC(grpcServer)

	// Start gRPC server
	grpcListener, err := net.Listen("tcp", cfg.GRPCAddr())
	if err != nil {
		logger.Fatal("failed to listen on gRPC port", zap.Error(err))
	}

	grpcErrCh := make(chan error, 1)
	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr()))
		if err := grpcServer.Serve(grpcListener); err != nil {
			grpcErrCh <- err
		}
	}()

	// Start HTTP health server
	httpErrCh := make(chan error, 1)
	go func() {
		if err := healthChecker.StartHTTPServer(cfg.HTTPAddr()); err != nil && err != http.ErrServerClosed {
			httpErrCh <- err
		}
	}()

	// Start consumer
	consumerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumerErrCh := make(chan error, 1)
	go func() {
		err := consumer.Run(consumerCtx, func(ctx context.Context, rec msg.Record) error {
			var chat msg.ChatMsg
			if err := json.Unmarshal(rec.Value, &chat); err != nil {
				return fmt.Errorf("failed to unmarshal chat message: %w", err)
			}

			if chat.MessageID == "" {
				return fmt.Errorf("message_id cannot be empty")
			}
			if chat.EventID == "" {
				return fmt.Errorf("event_id cannot be empty")
			}

			// The parser is total: any text, including garbage, yields
			// exactly one result.
			res := parser.Parse(chat.Text)

			result, err := store.RecordParse(ctx, chat, res)
			if err != nil {
				return fmt.Errorf("failed to journal parse result: %w", err)
			}

			if result.Duplicate {
				logger.Info("duplicate chat message, skipping",
					zap.String("message_id", chat.MessageID),
					zap.String("status", result.Status),
				)
				// Commit the offset - already handled
				return nil
			}

			if res.OK() {
				logger.Info("chat command accepted",
					zap.String("message_id", chat.MessageID),
					zap.String("chat_id", chat.ChatID),
					zap.String("order_id", result.OrderID),
					zap.String("symbol", res.Command.Symbol),
					zap.String("side", string(res.Command.Action)),
					zap.String("size", res.Command.SizeString()),
					zap.String("size_type", string(res.Command.SizeType)),
					zap.Int("leverage", res.Command.Leverage),
					zap.String("kafka_topic", rec.Topic),
					zap.Int64("kafka_offset", rec.Offset),
				)
			} else {
				logger.Info("chat command rejected",
					zap.String("message_id", chat.MessageID),
					zap.String("chat_id", chat.ChatID),
					zap.Strings("errors", res.ErrorStrings()),
					zap.String("kafka_topic", rec.Topic),
					zap.Int64("kafka_offset", rec.Offset),
				)
			}

			return nil
		})
		if err != nil {
			consumerErrCh <- err
		}
	}()

	// Start outbox publisher loop
	publisherErrCh := make(chan error, 1)
	go func() {
		if err := publisher.Run(consumerCtx); err != nil {
			publisherErrCh <- err
		}
	}()

	// Wait for consumer to start
	time.Sleep(1 * time.Second)
	if consumer.IsRunning() {
		healthChecker.SetGate("kafka", true)
	} else {
		logger.Warn("consumer not running yet")
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-grpcErrCh:
		logger.Error("gRPC server error", zap.Error(err))
	case err := <-httpErrCh:
		logger.Error("HTTP server error", zap.Error(err))
	case err := <-consumerErrCh:
		logger.Error("consumer error", zap.Error(err))
	case err := <-publisherErrCh:
		logger.Error("publisher error", zap.Error(err))
	}

	// Graceful shutdown
	logger.Info("shutting down gracefully...")

	cancel()
	producer.Close()
	consumer.Close()
	store.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := healthChecker.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down health checker", zap.Error(err))
	}

	grpcServer.GracefulStop()

	logger.Info("command-gateway service stopped")
}
