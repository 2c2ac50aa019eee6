package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/taskflow/taskflow-api/internal/config"
	"github.com/taskflow/taskflow-api/internal/database"
	"github.com/taskflow/taskflow-api/internal/queue"
)

// NewTestCmd creates the test command
func NewTestCmd() *cobra.Command {
	var skipOIDC bool

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test backend connectivity",
		Long:  "Verify that the database, Redis, RabbitMQ, and OIDC endpoints are reachable with the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			// Database
			fmt.Println("Testing database connection...")
			db, err := database.New(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer func() {
				if err := db.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
				}
			}()
			if err := db.PingContext(ctx); err != nil {
				return fmt.Errorf("database ping failed: %w", err)
			}
			fmt.Println("✓ Database is reachable")

			// Redis
			fmt.Println("\nTesting Redis connection...")
			redisOpts, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				return fmt.Errorf("failed to parse Redis URL: %w", err)
			}
			redisClient := redis.NewClient(redisOpts)
			defer func() {
				if err := redisClient.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close Redis connection: %v\n", err)
				}
			}()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis ping failed: %w", err)
			}
			fmt.Println("✓ Redis is reachable")

			// RabbitMQ
			fmt.Println("\nTesting RabbitMQ connection...")
			jobQueue, err := queue.NewRabbitMQQueue(cfg.RabbitMQURL)
			if err != nil {
				return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
			}
			defer func() {
				if err := jobQueue.Close(); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to close RabbitMQ connection: %v\n", err)
				}
			}()
			if err := jobQueue.HealthCheck(ctx); err != nil {
				return fmt.Errorf("rabbitmq health check failed: %w", err)
			}
			fmt.Println("✓ RabbitMQ is reachable")

			// OIDC
			if !skipOIDC {
				if cfg.OIDCIssuer == "" {
					fmt.Println("\nOIDC issuer not configured, skipping OIDC checks")
				} else if err := testOIDC(cfg); err != nil {
					return err
				}
			}

			fmt.Println("\n✓ Connectivity test passed")
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipOIDC, "skip-oidc", false, "Skip OIDC endpoint checks")

	return cmd
}

func testOIDC(cfg *config.Config) error {
	client := &http.Client{Timeout: 10 * time.Second}

	discoveryURL := strings.TrimRight(cfg.OIDCIssuer, "/") + "/.well-known/openid-configuration"
	fmt.Printf("\nTesting discovery endpoint: %s\n", discoveryURL)
	resp, err := client.Get(discoveryURL)
	if err != nil {
		return fmt.Errorf("failed to reach discovery endpoint: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close response body: %v\n", err)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("discovery endpoint returned status: %d", resp.StatusCode)
	}
	fmt.Println("✓ Discovery endpoint is accessible")

	if cfg.OIDCJWKSURL != "" {
		fmt.Printf("\nTesting JWKS endpoint: %s\n", cfg.OIDCJWKSURL)
		jwksResp, err := client.Get(cfg.OIDCJWKSURL)
		if err != nil {
			return fmt.Errorf("failed to reach JWKS endpoint: %w", err)
		}
		defer func() {
			if err := jwksResp.Body.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close response body: %v\n", err)
			}
		}()
		if jwksResp.StatusCode != http.StatusOK {
			return fmt.Errorf("JWKS endpoint returned status: %d", jwksResp.StatusCode)
		}
		fmt.Println("✓ JWKS endpoint is accessible")
	}

	return nil
}
