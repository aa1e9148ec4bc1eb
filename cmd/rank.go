package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/export"
	"github.com/sells-group/catalog-cli/internal/pipeline"
)

var (
	rankInput     string
	rankOutputDir string
	rankFormat    string
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Re-rank an existing catalog file without scraping",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		applyOutputFlags(cfg, rankOutputDir, rankFormat)
		if err := cfg.Validate("rank"); err != nil {
			return err
		}

		products, err := export.ReadCatalog(ctx, rankInput)
		if err != nil {
			return eris.Wrap(err, "rank")
		}
		zap.L().Info("rank: catalog loaded", zap.String("path", rankInput), zap.Int("products", len(products)))

		opts, err := pipelineOptions(cfg)
		if err != nil {
			return err
		}
		report, err := pipeline.New(nil, nil, nil, opts).Rank(products)
		if err != nil {
			return eris.Wrap(err, "rank")
		}

		export.PrintRanking(os.Stdout, report.Ranking)
		return nil
	},
}

func init() {
	rankCmd.Flags().StringVar(&rankInput, "input", "products_data.csv", "catalog file to rank (.csv or .xlsx)")
	rankCmd.Flags().StringVar(&rankOutputDir, "output-dir", "", "directory for the ranking file (overrides output.dir)")
	rankCmd.Flags().StringVar(&rankFormat, "format", "", "output format: csv or xlsx (overrides output.format)")
	rootCmd.AddCommand(rankCmd)
}
