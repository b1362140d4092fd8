package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/ppiankov/genediff/internal/model"
	"github.com/ppiankov/genediff/internal/netutil"
	"github.com/ppiankov/genediff/internal/sources"
	"github.com/ppiankov/genediff/internal/worker"
)

// ErrValidation is returned when the attribution table has errors
var ErrValidation = errors.New("data source table has errors")

var (
	sourcesBuiltin   bool
	sourcesJSON      bool
	sourcesReach     bool
	sourcesTimeout   time.Duration
	sourcesWritePath string
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Inspect and validate the data source attribution table",
	Long: `The attribution table (DATA_SOURCES.md by default) lists every external
data source with its website, license and attribution requirement.`,
}

var sourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List data sources with their classified license terms",
	Args:  cobra.NoArgs,
	RunE:  runSourcesList,
}

var sourcesCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the table, optionally probing every website",
	Long: `Check validates every row: the name is present and unique, the website
is an absolute http(s) URL, the license maps to a known license and the
attribution requirement is consistent with it.

With --reachability every website is also probed with HEAD requests,
retrying transient failures.

Example:
  genediff sources check
  genediff sources check --reachability --json`,
	Args: cobra.NoArgs,
	RunE: runSourcesCheck,
}

var sourcesRenderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the table in canonical form, sorted by name",
	Args:  cobra.NoArgs,
	RunE:  runSourcesRender,
}

func init() {
	sourcesCmd.PersistentFlags().BoolVar(&sourcesBuiltin, "builtin", false, "use the built-in table instead of the configured file")
	sourcesCmd.PersistentFlags().BoolVar(&sourcesJSON, "json", false, "JSON output")

	sourcesCheckCmd.Flags().BoolVar(&sourcesReach, "reachability", false, "probe every website")
	sourcesCheckCmd.Flags().DurationVar(&sourcesTimeout, "timeout", 10*time.Second, "per-request timeout for probes")

	sourcesRenderCmd.Flags().StringVar(&sourcesWritePath, "write", "", "write to this path instead of stdout")

	rootCmd.AddCommand(sourcesCmd)
	sourcesCmd.AddCommand(sourcesListCmd, sourcesCheckCmd, sourcesRenderCmd)
}

type sourcesInput struct {
	cfg        *model.Config
	logger     *slog.Logger
	rows       []model.DataSource
	classifier *sources.LicenseClassifier
}

func readSources() (*sourcesInput, error) {
	cfg, logger, err := setup()
	if err != nil {
		return nil, err
	}
	classifier, err := sources.NewLicenseClassifier(&cfg.Sources)
	if err != nil {
		return nil, err
	}
	in := &sourcesInput{cfg: cfg, logger: logger, classifier: classifier}
	if sourcesBuiltin {
		in.rows = sources.Default()
		return in, nil
	}
	if in.rows, err = loadSources(cfg, logger); err != nil {
		return nil, err
	}
	return in, nil
}

type sourceView struct {
	model.DataSource
	LicenseKind     model.LicenseKind     `json:"license_kind"`
	RequirementKind model.RequirementKind `json:"requirement_kind"`
}

func runSourcesList(cmd *cobra.Command, args []string) error {
	in, err := readSources()
	if err != nil {
		return err
	}

	views := make([]sourceView, len(in.rows))
	for i, r := range in.rows {
		views[i] = sourceView{
			DataSource:      r,
			LicenseKind:     in.classifier.Classify(r.License),
			RequirementKind: sources.ClassifyRequirement(r.Requirement),
		}
	}

	out := cmd.OutOrStdout()
	if sourcesJSON {
		return writeJSON(out, views)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tWEBSITE\tLICENSE\tREQUIREMENT")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%s (%s)\t%s\n", v.Name, v.Website, v.License, v.LicenseKind, v.RequirementKind)
	}
	return tw.Flush()
}

func runSourcesCheck(cmd *cobra.Command, args []string) error {
	in, err := readSources()
	if err != nil {
		return err
	}
	cfg, rows := in.cfg, in.rows

	result := struct {
		Issues       []model.Issue        `json:"issues"`
		Reachability []model.Reachability `json:"reachability,omitempty"`
	}{Issues: sources.Validate(rows, in.classifier)}

	if sourcesReach {
		ctx, stop := signalContext(cmd.Context())
		defer stop()

		checker := sources.NewChecker(sources.CheckerOptions{
			HTTPClient: netutil.NewClient(sourcesTimeout, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy, maxRedirects),
			UserAgent:  cfg.HTTP.UserAgent,
			Workers:    cfg.Concurrency.CheckWorkers,
			Limiter:    worker.NewLimiterFromConfig(cfg.RateLimiting),
			Logger:     in.logger,
		})
		result.Reachability = checker.Check(ctx, rows)
	}

	out := cmd.OutOrStdout()
	if sourcesJSON {
		if err := writeJSON(out, result); err != nil {
			return err
		}
	} else {
		printIssues(out, len(rows), result.Issues)
		if sourcesReach {
			printReachability(out, result.Reachability)
		}
	}

	if sources.HasErrors(result.Issues) {
		return ErrValidation
	}
	for _, r := range result.Reachability {
		if !r.Reachable {
			return errors.Newf("%s is unreachable: %s", r.Source, r.Error)
		}
	}
	return nil
}

func printIssues(w io.Writer, rows int, issues []model.Issue) {
	if len(issues) == 0 {
		fmt.Fprintf(w, "%d data sources, no issues\n", rows)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tSOURCE\tFIELD\tSEVERITY\tMESSAGE")
	for _, is := range issues {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", is.Row+1, is.Source, is.Field, is.Severity, is.Message)
	}
	_ = tw.Flush()
}

func printReachability(w io.Writer, results []model.Reachability) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tURL\tSTATUS\tATTEMPTS\tERROR")
	for _, r := range results {
		status := "unreachable"
		if r.Reachable {
			status = "ok"
		}
		if r.StatusCode != 0 {
			status = fmt.Sprintf("%s (%d)", status, r.StatusCode)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", r.Source, r.URL, status, r.Attempts, r.Error)
	}
	_ = tw.Flush()
}

func runSourcesRender(cmd *cobra.Command, args []string) error {
	in, err := readSources()
	if err != nil {
		return err
	}
	table := sources.RenderMarkdown(in.rows)

	if sourcesWritePath == "" {
		_, err := io.WriteString(cmd.OutOrStdout(), table)
		return err
	}
	return errors.Wrap(os.WriteFile(sourcesWritePath, []byte(table), 0o644), "write table")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
