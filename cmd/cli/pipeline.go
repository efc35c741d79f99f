package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/himanishpuri/AcousticScene/internal/classifier"
	"github.com/himanishpuri/AcousticScene/internal/service"
	"github.com/himanishpuri/AcousticScene/pkg/logger"
)

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract [dir|file]...",
		Short: "Compute log-mel features for recordings (default: dev and eva audio dirs)",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.GetLogger()
			svc, cfg, err := createService()
			if err != nil {
				return err
			}
			defer svc.Close()

			if len(args) == 0 {
				args = []string{cfg.Paths.DevWav, cfg.Paths.EvaWav}
			}

			ctx := cmd.Context()
			start := time.Now()
			total := 0
			for _, target := range args {
				info, err := os.Stat(target)
				if err != nil {
					return err
				}
				if !info.IsDir() {
					id, err := svc.ExtractFile(ctx, target)
					if err != nil {
						return err
					}
					fmt.Printf("✅ Extracted %s\n", id)
					total++
					continue
				}

				fmt.Printf("🎵 Extracting features from %s...\n", target)
				n, err := svc.ExtractDir(ctx, target)
				total += n
				if err != nil {
					return err
				}
			}

			fmt.Printf("\n✅ Extracted %d recording(s) in %s\n", total, time.Since(start).Round(time.Millisecond))
			log.Infof("Extraction complete: %d recordings", total)
			return nil
		},
	}
}

func newFitScalerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fit-scaler [manifest]",
		Short: "Fit the feature scaler over a manifest (default: dev manifest)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, err := createService()
			if err != nil {
				return err
			}
			defer svc.Close()

			manifest := cfg.Paths.DevManifest
			if len(args) == 1 {
				manifest = args[0]
			}

			fmt.Printf("📐 Fitting scaler over %s...\n", manifest)
			sc, err := svc.FitScaler(cmd.Context(), manifest)
			if err != nil {
				return err
			}
			fmt.Printf("\n✅ Saved scaler %q (%d dims, with_mean=%t, with_std=%t)\n",
				cfg.Scaler.Name, sc.Dim(), sc.WithMean, sc.WithStd)
			return nil
		},
	}
}

func newPrepareCmd() *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "prepare [manifest]",
		Short: "Window features into classifier-ready tensors and report their shape",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, err := createService(service.WithStrict(strict))
			if err != nil {
				return err
			}
			defer svc.Close()

			manifest := cfg.Paths.DevManifest
			if len(args) == 1 {
				manifest = args[0]
			}
			tr, err := svc.Transformer()
			if err != nil {
				return err
			}

			x, y, err := svc.PrepareData(cmd.Context(), manifest, tr)
			if err != nil {
				return err
			}
			rows, cols := y.Dims()
			shape := x.Shape()
			fmt.Printf("\n✅ Prepared %s\n", manifest)
			fmt.Printf("   x: (%d, %d, %d)\n", shape[0], shape[1], shape[2])
			fmt.Printf("   y: (%d, %d)\n", rows, cols)
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on recordings shorter than one context window")
	return cmd
}

func newEvaluateCmd() *cobra.Command {
	var modelPath string
	cmd := &cobra.Command{
		Use:   "evaluate [manifest]",
		Short: "Evaluate a classifier on a labeled manifest (default: eva manifest)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cfg, err := createService()
			if err != nil {
				return err
			}
			defer svc.Close()

			manifest := cfg.Paths.EvaManifest
			if len(args) == 1 {
				manifest = args[0]
			}
			if modelPath == "" {
				modelPath = cfg.Paths.Model
			}

			clf, closeModel, err := classifier.Load(modelPath)
			if err != nil {
				return err
			}
			defer closeModel()

			tr, err := svc.Transformer()
			if err != nil {
				return err
			}

			fmt.Printf("🔍 Evaluating %s on %s...\n\n", modelPath, manifest)
			summary, err := svc.Recognize(cmd.Context(), manifest, modelPath, clf, tr)
			if err != nil {
				return err
			}
			_, err = summary.WriteTo(os.Stdout)
			return err
		},
	}
	cmd.Flags().StringVar(&modelPath, "model", "", "Model file (overrides paths.model)")
	return cmd
}
