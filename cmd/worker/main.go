package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/redis/go-redis/v9"

	"github.com/taskflow/taskflow-api/internal/cache"
	"github.com/taskflow/taskflow-api/internal/config"
	"github.com/taskflow/taskflow-api/internal/logger"
	"github.com/taskflow/taskflow-api/internal/queue"
	"github.com/taskflow/taskflow-api/internal/services/suggest"
	"github.com/taskflow/taskflow-api/internal/workers"
)

func main() {
	debugFlag := flag.Bool("debug", false, "Enable debug mode for LLM API logging")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debugMode := cfg.WorkerDebugMode || *debugFlag

	zapLogger, err := logger.NewProductionLogger(debugMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		// Ignore sync errors on shutdown
		_ = zapLogger.Sync()
	}()

	zapLogger.Info("starting_worker",
		zap.Bool("debug_mode", debugMode),
		zap.String("model", cfg.AIModel),
		zap.Int("prefetch", cfg.RabbitMQPrefetch),
	)

	// Connect to Redis for the suggestion slots
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		zapLogger.Fatal("failed_to_parse_redis_url", zap.Error(err))
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() {
		if err := redisClient.Close(); err != nil {
			zapLogger.Warn("failed_to_close_redis_connection", zap.Error(err))
		}
	}()

	suggestionStore := cache.NewRedisSuggestionStore(redisClient, cfg.SuggestionTTL)

	// Connect to RabbitMQ
	jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
	if err != nil {
		zapLogger.Fatal("failed_to_connect_to_rabbitmq", zap.Error(err))
	}
	defer func() {
		if err := jobQueue.Close(); err != nil {
			zapLogger.Warn("failed_to_close_rabbitmq_connection", zap.Error(err))
		}
	}()

	zapLogger.Info("connected_to_rabbitmq")

	if cfg.OpenAIKey == "" {
		zapLogger.Fatal("openai_api_key_not_configured")
	}

	provider := suggest.NewOpenAIProvider(
		cfg.OpenAIKey,
		cfg.AIBaseURL,
		cfg.AIModel,
		zapLogger,
		debugMode,
	)

	suggester := workers.NewCategorySuggester(provider, suggestionStore, zapLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	msgChan, errChan, err := jobQueue.Consume(ctx, cfg.RabbitMQPrefetch)
	if err != nil {
		zapLogger.Fatal("failed_to_start_consuming", zap.Error(err))
	}

	zapLogger.Info("worker_started")

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgChan:
				if !ok {
					zapLogger.Info("message_channel_closed")
					return
				}

				if err := suggester.ProcessJob(ctx, msg); err != nil {
					zapLogger.Error("failed_to_process_job",
						zap.Error(err),
						zap.String("job_id", msg.GetJob().ID.String()),
						zap.String("job_type", string(msg.GetJob().Type)),
					)
				}
			}
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errChan:
				if !ok {
					return
				}
				zapLogger.Error("queue_error", zap.Error(err))
			}
		}
	}()

	<-sigChan
	zapLogger.Info("shutdown_signal_received")

	cancel()

	zapLogger.Info("worker_stopped")
}
