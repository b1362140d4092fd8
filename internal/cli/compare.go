package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ppiankov/genediff/internal/compare"
	"github.com/ppiankov/genediff/internal/model"
	"github.com/ppiankov/genediff/internal/report"
	"github.com/ppiankov/genediff/internal/store"
)

var (
	compareJSON string
	compareMD   string
)

var compareCmd = &cobra.Command{
	Use:   "compare <lists.json>",
	Short: "Compare two gene lists offline",
	Long: `Compare runs the same comparison as POST /compare against the local
processed tables. The input file has the request body shape:

  {"up_regulated": ["ENSG..."], "down_regulated": ["ENSG..."]}

Use "-" to read from stdin.

Example:
  genediff compare lists.json
  genediff compare lists.json --json result.json --md result.md
  genediff compare - --processed-dir ./processed_data < lists.json`,
	Args: cobra.ExactArgs(1),
	RunE: runCompare,
}

func init() {
	compareCmd.Flags().StringVar(&compareJSON, "json", "-", "output JSON path (- for stdout, empty to skip)")
	compareCmd.Flags().StringVar(&compareMD, "md", "", "output Markdown path (optional)")

	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	lists, err := readGeneLists(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}
	if err := compare.CheckLimit(lists, cfg.Server.MaxGenesPerList); err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	dataset, err := store.Load(ctx, cfg.Data.ProcessedDir)
	if err != nil {
		return errors.Wrap(err, "load processed tables")
	}

	result := compare.Run(dataset, lists)

	if compareJSON != "" {
		if err := writeOutput(cmd.OutOrStdout(), compareJSON, func(w io.Writer) error {
			return report.RenderJSON(w, result)
		}); err != nil {
			return err
		}
	}
	if compareMD != "" {
		notices, err := attributionNotices(cfg, logger)
		if err != nil {
			return err
		}
		if err := writeOutput(cmd.OutOrStdout(), compareMD, func(w io.Writer) error {
			return report.RenderMarkdown(w, result, notices)
		}); err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.ErrOrStderr(), report.Summary(result))
	return nil
}

func readGeneLists(stdin io.Reader, path string) (model.GeneLists, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return model.GeneLists{}, errors.Wrap(err, "open gene lists")
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	var lists model.GeneLists
	if err := json.NewDecoder(r).Decode(&lists); err != nil {
		return model.GeneLists{}, errors.Wrapf(err, "decode %s", path)
	}
	switch {
	case lists.UpRegulated == nil:
		return model.GeneLists{}, errors.Newf("%s: up_regulated is required", path)
	case lists.DownRegulated == nil:
		return model.GeneLists{}, errors.Newf("%s: down_regulated is required", path)
	}
	return lists, nil
}

func writeOutput(stdout io.Writer, path string, render func(io.Writer) error) error {
	if path == "-" {
		return render(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := render(f); err != nil {
		_ = f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}
