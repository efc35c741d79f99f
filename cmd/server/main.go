//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/himanishpuri/AcousticScene/internal/config"
	"github.com/himanishpuri/AcousticScene/internal/service"
	"github.com/himanishpuri/AcousticScene/internal/storage"
	"github.com/himanishpuri/AcousticScene/pkg/logger"
)

var (
	port           int
	configPath     string
	dbPath         string
	tempDir        string
	allowedOrigins string
)

func init() {
	flag.IntVar(&port, "port", 8080, "HTTP server port")
	flag.StringVar(&configPath, "config", getEnvOrDefault("ACOUSTIC_CONFIG", ""), "Path to config.yaml")
	flag.StringVar(&dbPath, "db", getEnvOrDefault("ACOUSTIC_DB_PATH", ""), "Path to SQLite feature database (overrides config)")
	flag.StringVar(&tempDir, "temp", getEnvOrDefault("ACOUSTIC_TEMP_DIR", os.TempDir()), "Temporary directory for uploads")
	flag.StringVar(&allowedOrigins, "origins", "*", "Comma-separated list of allowed CORS origins (use * for all)")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseOrigins(s string) []string {
	if s == "*" {
		return []string{"*"}
	}
	origins := strings.Split(s, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

func main() {
	_ = godotenv.Load()
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if dbPath != "" {
		cfg.Paths.FeaturesDB = dbPath
	}
	if lvl, err := logger.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	db, err := storage.NewDBClientWithPath(cfg.Paths.FeaturesDB)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	svc, err := service.NewAcousticService(cfg, service.WithStore(db))
	if err != nil {
		db.Close()
		log.Fatalf("Failed to create service: %v", err)
	}
	defer svc.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := NewServer(db, svc, cfg, &ServerConfig{
		Port:           port,
		TempDir:        tempDir,
		AllowedOrigins: parseOrigins(allowedOrigins),
	})
	if err := server.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorf("Server failed: %v", err)
		svc.Close()
		os.Exit(1)
	}
}
