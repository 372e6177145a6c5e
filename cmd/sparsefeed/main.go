// Command sparsefeed inspects and prepares sparse training data files:
// format detection, binary cache prebuilding, and dataset statistics.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pellucid/sparsefeed/cache"
	"github.com/pellucid/sparsefeed/parser"
	"github.com/pellucid/sparsefeed/reader"
)

func main() {
	var verbose bool

	root := &cobra.Command{
		Use:           "sparsefeed",
		Short:         "Inspect and prepare sparse training data files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(detectCmd(), prebuildCmd(), statCmd())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect FILE...",
		Short: "Report the text format of each data file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				format, err := parser.Detect(path)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", path, format)
			}
			return nil
		},
	}
}

func prebuildCmd() *cobra.Command {
	var jobs int
	var force bool

	cmd := &cobra.Command{
		Use:   "prebuild FILE...",
		Short: "Parse data files and write their binary cache artifacts",
		Long: "Parse each data file and write its binary cache artifact so " +
			"training runs skip text parsing. Files with an up-to-date " +
			"artifact are left alone unless --force is given.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := new(errgroup.Group)
			g.SetLimit(jobs)
			for _, path := range args {
				path := path
				g.Go(func() error {
					return prebuild(path, force)
				})
			}
			return g.Wait()
		},
	}
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "number of files to build in parallel")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "rebuild even when the artifact is up to date")
	return cmd
}

func prebuild(path string, force bool) error {
	if !force && cache.Valid(path) {
		log.Info("cache up to date", "source", path)
		return nil
	}
	format, err := parser.Detect(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	batch, err := reader.ParseFile(path, format)
	if err != nil {
		return err
	}
	if err := cache.Store(path, format, batch); err != nil {
		return fmt.Errorf("store cache for %s: %w", path, err)
	}
	log.Info("built cache", "source", path, "format", format, "samples", batch.Len())
	return nil
}

func statCmd() *cobra.Command {
	var batchSize int

	cmd := &cobra.Command{
		Use:   "stat FILE",
		Short: "Stream a data file and report dataset statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return stat(cmd, args[0], batchSize)
		},
	}
	cmd.Flags().IntVar(&batchSize, "batch-size", 4096, "samples per streamed batch")
	return cmd
}

func stat(cmd *cobra.Command, path string, batchSize int) error {
	r := new(reader.StreamingReader)
	if err := r.Initialize(path, batchSize); err != nil {
		return err
	}
	defer r.Close()

	var (
		samples  int
		entries  int
		positive int
		maxIndex uint32
		maxField uint32
	)
	for {
		batch, err := r.Samples()
		if err != nil {
			return err
		}
		if batch.Len() == 0 {
			break
		}
		for _, s := range batch.Samples() {
			samples++
			if s.Label > 0 {
				positive++
			}
			entries += len(s.Entries)
			for _, e := range s.Entries {
				if e.Index > maxIndex {
					maxIndex = e.Index
				}
				if e.Field > maxField {
					maxField = e.Field
				}
			}
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "format:       %s\n", r.Format())
	fmt.Fprintf(out, "samples:      %d\n", samples)
	fmt.Fprintf(out, "entries:      %d\n", entries)
	fmt.Fprintf(out, "max index:    %d\n", maxIndex)
	if r.Format() == parser.FormatLibFFM {
		fmt.Fprintf(out, "max field:    %d\n", maxField)
	}
	fmt.Fprintf(out, "labels > 0:   %d (%.1f%%)\n", positive, percent(positive, samples))
	if artifact := cache.ArtifactPath(path); cache.Valid(path) {
		fmt.Fprintf(out, "cache:        %s (valid)\n", artifact)
	} else if _, err := os.Stat(artifact); err == nil {
		fmt.Fprintf(out, "cache:        %s (stale)\n", artifact)
	} else {
		fmt.Fprintf(out, "cache:        none\n")
	}
	return nil
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
