package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"

	"github.com/himanishpuri/AcousticScene/internal/eval"
)

func newFeaturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "features",
		Short: "Inspect stored log-mel features",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored features",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			features, err := db.ListFeatures()
			if err != nil {
				return err
			}
			if len(features) == 0 {
				fmt.Println("📭 No features in database")
				return nil
			}

			fmt.Printf("📚 Found %d feature(s):\n\n", len(features))
			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "RECORDING\tFRAMES\tBINS\tUPDATED")
			for _, f := range features {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", f.RecordingID, f.Frames, f.Bins, f.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <recording-id>",
		Short: "Show shape and value range of a feature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			x, err := db.LoadFeature(args[0])
			if err != nil {
				return err
			}
			frames, bins := x.Dims()
			data := x.RawMatrix().Data
			fmt.Printf("🎼 %s\n", args[0])
			fmt.Printf("   Shape: %d frames x %d mel bins\n", frames, bins)
			fmt.Printf("   Min:   %.4f\n", floats.Min(data))
			fmt.Printf("   Max:   %.4f\n", floats.Max(data))
			fmt.Printf("   Mean:  %.4f\n", floats.Sum(data)/float64(len(data)))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <recording-id>",
		Short: "Delete a stored feature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.DeleteFeature(args[0]); err != nil {
				return err
			}
			fmt.Printf("✅ Deleted feature %s\n", args[0])
			return nil
		},
	})
	return cmd
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect persisted evaluation runs",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List evaluation runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.ListRuns(limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("📭 No evaluation runs")
				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tCLIPS\tEVENT_ACC\tFRAME_ACC\tMANIFEST")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%.4f\t%.4f\t%s\n",
					r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Clips, r.ClipAccuracy, r.FrameAccuracy, r.Manifest)
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list (0 for all)")
	cmd.AddCommand(list)

	var verbose bool
	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the report of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			run, err := db.GetRun(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("🧪 Run %s (%s)\n", run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("   Manifest: %s\n   Model:    %s\n\n", run.Manifest, run.Model)

			summary := &eval.Summary{
				ClipAccuracy:  run.ClipAccuracy,
				FrameAccuracy: run.FrameAccuracy,
				Confusion:     run.Confusion,
				Labels:        run.Labels,
				Clips:         make([]eval.ClipResult, len(run.Results)),
			}
			if _, err := summary.WriteTo(os.Stdout); err != nil {
				return err
			}

			if verbose {
				fmt.Println()
				tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "RECORDING\tTRUTH\tPREDICTED\tFRAMES\tFRAME_ACC")
				for _, c := range run.Results {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.3f\n", c.RecordingID, c.Truth, c.Predicted, c.Frames, c.FrameAccuracy)
				}
				return tw.Flush()
			}
			return nil
		},
	}
	show.Flags().BoolVarP(&verbose, "verbose", "v", false, "Also list per-clip outcomes")
	cmd.AddCommand(show)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete an evaluation run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.DeleteRun(args[0]); err != nil {
				return err
			}
			fmt.Printf("✅ Deleted run %s\n", args[0])
			return nil
		},
	})
	return cmd
}
