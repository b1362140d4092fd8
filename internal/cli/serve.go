package cli

import (
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/genediff/internal/model"
	"github.com/ppiankov/genediff/internal/server"
	"github.com/ppiankov/genediff/internal/sources"
	"github.com/ppiankov/genediff/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve gene list comparisons over HTTP",
	Long: `Serve loads the processed tables into memory and exposes:

  POST /compare   compare {"up_regulated": [...], "down_regulated": [...]}
  GET  /sources   attribution notices for the data sources
  GET  /healthz   liveness
  GET  /metrics   Prometheus metrics

Example:
  genediff serve
  genediff serve --addr :9000 --processed-dir ./processed_data`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address")
	serveCmd.Flags().Int("max-genes", 0, "maximum ids per list")

	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("server.max_genes_per_list", serveCmd.Flags().Lookup("max-genes"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	dataset, err := store.Load(ctx, cfg.Data.ProcessedDir)
	if err != nil {
		return errors.Wrap(err, "load processed tables")
	}
	stats := dataset.Stats()
	logger.InfoContext(ctx, "dataset loaded",
		"dir", cfg.Data.ProcessedDir,
		"genes", stats.Genes, "annotations", stats.Annotations,
		"terms", stats.Terms, "interactions", stats.Interactions)

	notices, err := attributionNotices(cfg, logger)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Dataset: dataset,
		Notices: notices,
		Config:  cfg.Server,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

// loadSources reads the configured attribution table, falling back to
// the built-in rows when the file does not exist
func loadSources(cfg *model.Config, logger *slog.Logger) ([]model.DataSource, error) {
	rows, err := sources.Load(cfg.Sources.TablePath)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("data source table not found, using built-in list", "path", cfg.Sources.TablePath)
		return sources.Default(), nil
	}
	return rows, err
}

func attributionNotices(cfg *model.Config, logger *slog.Logger) ([]model.Notice, error) {
	rows, err := loadSources(cfg, logger)
	if err != nil {
		return nil, err
	}
	classifier, err := sources.NewLicenseClassifier(&cfg.Sources)
	if err != nil {
		return nil, err
	}
	return sources.Attribution(rows, classifier), nil
}
