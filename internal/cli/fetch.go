package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/genediff/internal/biomart"
	"github.com/ppiankov/genediff/internal/cache"
	"github.com/ppiankov/genediff/internal/model"
	"github.com/ppiankov/genediff/internal/netutil"
	"github.com/ppiankov/genediff/internal/tsv"
	"github.com/ppiankov/genediff/internal/worker"
)

const maxRedirects = 5

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download data from upstream providers",
}

var fetchGenesCmd = &cobra.Command{
	Use:   "genes",
	Short: "Fetch human gene identifiers from Ensembl BioMart",
	Long: `Query Ensembl BioMart for Ensembl gene ids, Entrez ids and HGNC symbols
and write them as CSV. Rows without an Ensembl id or a symbol are dropped.

Responses are cached (memory and disk) so repeated runs do not hit the
server; pass --no-cache to force a fresh download.

Example:
  genediff fetch genes
  genediff fetch genes --output genes.csv --no-cache
  genediff fetch genes --filter chromosome_name=17`,
	Args: cobra.NoArgs,
	RunE: runFetchGenes,
}

func init() {
	fetchGenesCmd.Flags().String("output", "", "output CSV path")
	fetchGenesCmd.Flags().String("dataset", "", "BioMart dataset")
	fetchGenesCmd.Flags().String("url", "", "martservice URL")
	fetchGenesCmd.Flags().StringToString("filter", nil, "BioMart filter as name=value (repeatable)")
	fetchGenesCmd.Flags().Bool("no-cache", false, "disable the response cache")
	fetchGenesCmd.Flags().Duration("timeout", 0, "HTTP timeout")
	fetchGenesCmd.Flags().String("http-proxy", "", "HTTP proxy URL")
	fetchGenesCmd.Flags().String("https-proxy", "", "HTTPS proxy URL")

	_ = viper.BindPFlag("biomart.output", fetchGenesCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("biomart.dataset", fetchGenesCmd.Flags().Lookup("dataset"))
	_ = viper.BindPFlag("biomart.url", fetchGenesCmd.Flags().Lookup("url"))
	_ = viper.BindPFlag("biomart.filters", fetchGenesCmd.Flags().Lookup("filter"))
	_ = viper.BindPFlag("http.timeout", fetchGenesCmd.Flags().Lookup("timeout"))
	_ = viper.BindPFlag("http.http_proxy", fetchGenesCmd.Flags().Lookup("http-proxy"))
	_ = viper.BindPFlag("http.https_proxy", fetchGenesCmd.Flags().Lookup("https-proxy"))

	rootCmd.AddCommand(fetchCmd)
	fetchCmd.AddCommand(fetchGenesCmd)
}

func runFetchGenes(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	client := newBioMartClient(cfg, logger)
	genes, stats, err := client.FetchGenes(ctx, cfg.BioMart.Dataset, cfg.BioMart.Attributes, cfg.BioMart.Filters)
	if err != nil {
		return errors.Wrap(err, "fetch genes")
	}

	err = tsv.WriteFile(cfg.BioMart.Output, func(w io.Writer) error {
		return biomart.WriteGeneCSV(w, genes)
	})
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "gene identifiers written",
		"path", cfg.BioMart.Output, "fetched", stats.Fetched, "kept", stats.Kept)
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d genes (%d rows fetched) to %s\n", stats.Kept, stats.Fetched, cfg.BioMart.Output)
	return nil
}

func newBioMartClient(cfg *model.Config, logger *slog.Logger) *biomart.Client {
	httpClient := netutil.NewClient(cfg.HTTP.Timeout, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy, maxRedirects)

	var c cache.Cache = cache.Nop{}
	if cfg.Cache.Enabled {
		c = cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
	}

	var robots *netutil.RobotsChecker
	if cfg.HTTP.RespectRobots {
		robots = netutil.NewRobotsChecker(httpClient, cfg.HTTP.UserAgent)
	}

	return biomart.NewClient(biomart.Options{
		BaseURL:    cfg.BioMart.URL,
		UserAgent:  cfg.HTTP.UserAgent,
		MaxBytes:   cfg.HTTP.MaxBodyBytes,
		HTTPClient: httpClient,
		Cache:      c,
		CacheTTL:   cfg.Cache.DiskTTL,
		Limiter:    worker.NewLimiterFromConfig(cfg.RateLimiting),
		Robots:     robots,
		Logger:     logger,
	})
}

// signalContext is shared by long-running commands
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
