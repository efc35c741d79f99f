package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/himanishpuri/AcousticScene/internal/audio"
	"github.com/himanishpuri/AcousticScene/internal/config"
	"github.com/himanishpuri/AcousticScene/internal/feature"
	"github.com/himanishpuri/AcousticScene/internal/plot"
	"github.com/himanishpuri/AcousticScene/internal/storage"
	"github.com/himanishpuri/AcousticScene/pkg/utils"
)

func newPlotCmd() *cobra.Command {
	var outDir string
	var scale int
	cmd := &cobra.Command{
		Use:   "plot <recording-file|recording-id>...",
		Short: "Render spectrogram and log-mel PNGs for recordings or stored features",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			extractor := feature.NewLogMelExtractor(nil, cfg.FilterBankKey())

			var db *storage.DBClient
			defer func() {
				if db != nil {
					db.Close()
				}
			}()

			for _, arg := range args {
				id := utils.BaseName(arg)
				var logmel *mat.Dense

				if audio.IsSupported(arg) {
					w, err := audio.Read(arg)
					if err != nil {
						return err
					}
					specPath := filepath.Join(outDir, id+".spectrogram.png")
					if err := plot.Spectrogram(w, specPath, plot.DefaultOptions()); err != nil {
						return fmt.Errorf("plotting %s: %w", arg, err)
					}
					fmt.Printf("🖼️  Saved %s\n", specPath)

					if logmel, err = extractor.Extract(w); err != nil {
						return fmt.Errorf("extracting %s: %w", arg, err)
					}
				} else {
					if db == nil {
						if db, err = storage.NewDBClientWithPath(cfg.Paths.FeaturesDB); err != nil {
							return err
						}
					}
					if logmel, err = db.LoadFeature(arg); err != nil {
						return err
					}
				}

				melPath := filepath.Join(outDir, id+".logmel.png")
				if err := plot.LogMel(logmel, melPath, scale); err != nil {
					return fmt.Errorf("plotting %s: %w", arg, err)
				}
				fmt.Printf("🖼️  Saved %s\n", melPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "plots", "Output directory")
	cmd.Flags().IntVar(&scale, "scale", 4, "Pixels per log-mel cell")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration (default config/$CONFIG_ENV/config.yaml)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join("config", getEnvOrDefault("CONFIG_ENV", "dev"), "config.yaml")
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Default().Write(path); err != nil {
				return err
			}
			fmt.Printf("✅ Wrote default configuration to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
