package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/genediff/internal/ingest"
)

var buildReportPath string

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Turn raw downloads into processed tables",
	Long: `Build reads the raw inputs from the raw data directory and writes the
processed TSV tables the comparison service loads:

  go-basic.obo         -> go_terms.tsv
  mart_export.txt.gz   -> ensembl_to_go.tsv, genes.tsv
  BIOGRID-*.tab3.txt   -> biogrid_ppi.tsv (physical interactions only)

Stages run concurrently. A missing input skips its stage with a warning.

Example:
  genediff build
  genediff build --raw-dir ./raw_data --processed-dir ./processed_data`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().String("raw-dir", "", "directory with raw downloads")
	buildCmd.Flags().String("biogrid-file", "", "explicit BioGRID tab3 file")
	buildCmd.Flags().Int("workers", 0, "concurrent stages")
	buildCmd.Flags().StringVar(&buildReportPath, "report", "", "write the build report as JSON to this path")

	_ = viper.BindPFlag("data.raw_dir", buildCmd.Flags().Lookup("raw-dir"))
	_ = viper.BindPFlag("data.biogrid_file", buildCmd.Flags().Lookup("biogrid-file"))
	_ = viper.BindPFlag("concurrency.workers", buildCmd.Flags().Lookup("workers"))

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	builder := ingest.NewBuilder(ingest.Options{
		RawDir:       cfg.Data.RawDir,
		ProcessedDir: cfg.Data.ProcessedDir,
		BioGRIDFile:  cfg.Data.BioGRIDFile,
		Workers:      cfg.Concurrency.Workers,
		Logger:       logger,
	})

	report, buildErr := builder.Build(ctx)
	printBuildReport(cmd.OutOrStdout(), report)

	if buildReportPath != "" {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return errors.Wrap(err, "marshal build report")
		}
		if err := os.WriteFile(buildReportPath, data, 0o644); err != nil {
			return errors.Wrap(err, "write build report")
		}
	}

	return buildErr
}

func printBuildReport(w io.Writer, report ingest.Report) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STAGE\tSTATUS\tROWS IN\tROWS OUT\tDURATION")
	for _, s := range report.Stages {
		status := "ok"
		switch {
		case s.Err != nil:
			status = "failed: " + s.Err.Error()
		case s.Skipped:
			status = "skipped"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", s.Stage, status, s.RowsIn, s.RowsOut, s.Duration.Round(time.Millisecond))
	}
	_ = tw.Flush()
}
