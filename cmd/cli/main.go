package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/himanishpuri/AcousticScene/internal/config"
	"github.com/himanishpuri/AcousticScene/internal/service"
	"github.com/himanishpuri/AcousticScene/internal/storage"
	"github.com/himanishpuri/AcousticScene/pkg/logger"
)

// Global flags
var (
	cfgFile  string
	dbPath   string
	workers  int
	logLevel string
)

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

var rootCmd = &cobra.Command{
	Use:           "acousticscene",
	Short:         "Log-mel feature extraction and acoustic scene evaluation",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cmd.Name() != "help" {
			printBanner()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", getEnvOrDefault("ACOUSTIC_CONFIG", ""), "Config file (default config/$CONFIG_ENV/config.yaml)")
	pf.StringVar(&dbPath, "db", getEnvOrDefault("ACOUSTIC_DB_PATH", ""), "Feature database path (overrides paths.features_db)")
	pf.IntVar(&workers, "workers", 0, "Worker count (overrides workers)")
	pf.StringVar(&logLevel, "log-level", "", "DEBUG, INFO, WARN or ERROR (overrides log_level)")

	rootCmd.AddCommand(
		newExtractCmd(),
		newFitScalerCmd(),
		newPrepareCmd(),
		newEvaluateCmd(),
		newFeaturesCmd(),
		newRunsCmd(),
		newPlotCmd(),
		newConfigCmd(),
	)
}

// loadConfig reads the configuration and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Paths.FeaturesDB = dbPath
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if lvl, err := logger.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.Warnf("Ignoring log level: %v", err)
	}
	return cfg, nil
}

// createService creates the pipeline service from configuration.
func createService(opts ...service.Option) (*service.AcousticService, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	fmt.Println("🔧 Initializing service...")
	svc, err := service.NewAcousticService(cfg, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create service: %w", err)
	}
	return svc, cfg, nil
}

// openStore opens the feature database for read/maintenance commands.
func openStore() (*storage.DBClient, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return storage.NewDBClientWithPath(cfg.Paths.FeaturesDB)
}

func main() {
	log := logger.GetLogger()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warnf("Failed to load .env: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Printf("\n❌ %v\n", err)
		log.Errorf("Command failed: %v", err)
		os.Exit(1)
	}
}

func printBanner() {
	banner := `
    _                       _   _      ____                       
   / \   ___ ___  _   _ ___| |_(_) ___/ ___|  ___ ___ _ __   ___ 
  / _ \ / __/ _ \| | | / __| __| |/ __\___ \ / __/ _ \ '_ \ / _ \
 / ___ \ (_| (_) | |_| \__ \ |_| | (__ ___) | (_|  __/ | | |  __/
/_/   \_\___\___/ \__,_|___/\__|_|\___|____/ \___\___|_| |_|\___|

        Log-Mel Features & Scene Evaluation CLI
`
	fmt.Println(banner)
}
