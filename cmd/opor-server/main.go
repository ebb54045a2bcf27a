package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/opor/opor/internal/config"
	"github.com/opor/opor/internal/domain/identity"
	"github.com/opor/opor/internal/domain/records"
	"github.com/opor/opor/internal/platform/jsonstore"
	"github.com/opor/opor/internal/platform/middleware"
	"github.com/opor/opor/internal/platform/reporting"
	"github.com/opor/opor/internal/platform/sandbox"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "opor-server",
		Short: "One Person One Record patient record API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the OPOR API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate synthetic patients and clinical records",
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			seed, _ := cmd.Flags().GetInt64("seed")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			identitySvc, recordsSvc, err := buildServices(cfg.DataDir)
			if err != nil {
				return err
			}

			seeder := sandbox.NewSeeder(identitySvc, recordsSvc, seed)
			ids, err := seeder.Seed(context.Background(), count)
			if err != nil {
				return fmt.Errorf("seeding failed after %d patients: %w", len(ids), err)
			}

			fmt.Printf("Generated %d patients with clinical records in %s\n", len(ids), cfg.DataDir)
			return nil
		},
	}
	cmd.Flags().Int("count", 15, "Number of synthetic patients to generate")
	cmd.Flags().Int64("seed", 0, "Random seed (0 derives one from the clock)")
	return cmd
}

// buildServices constructs the two stores over their backing files in
// dataDir. The stores share no state; the patient identifier is the only
// value that crosses between them.
func buildServices(dataDir string) (*identity.Service, *records.Service, error) {
	patientRepo, err := identity.NewPatientRepoJSON(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open identity store: %w", err)
	}
	bundleRepo, err := records.NewBundleRepoJSON(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open records store: %w", err)
	}
	return identity.NewService(patientRepo), records.NewService(bundleRepo), nil
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Stores
	identitySvc, recordsSvc, err := buildServices(cfg.DataDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open stores")
	}
	logger.Info().Str("data_dir", cfg.DataDir).Msg("stores loaded")

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	// API group
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/storage", jsonstore.HealthHandler(cfg.DataDir, "patients.json", "clinical_records.json"))

	// Domain routes
	identity.NewHandler(identitySvc).RegisterRoutes(apiV1)
	records.NewHandler(recordsSvc).RegisterRoutes(apiV1)
	reporting.NewHandler(identitySvc, recordsSvc).RegisterRoutes(apiV1)
	sandbox.NewHandler(identitySvc, recordsSvc).RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
