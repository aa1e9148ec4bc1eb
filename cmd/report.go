package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/catalog-cli/internal/export"
	"github.com/sells-group/catalog-cli/internal/model"
)

var reportRanking bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the latest stored snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("report"); err != nil {
			return err
		}
		st, err := initStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		snap, err := st.LatestSnapshot(ctx)
		if err != nil {
			return eris.Wrap(err, "report")
		}
		if snap == nil {
			fmt.Fprintln(os.Stderr, "No snapshots found.")
			return nil
		}

		if reportRanking {
			export.PrintRanking(os.Stdout, snap.Ranking)
			return nil
		}
		formatSnapshot(os.Stdout, snap)
		return nil
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportRanking, "ranking", false, "print the leaderboard instead of the catalog")
	rootCmd.AddCommand(reportCmd)
}

// formatSnapshot writes the snapshot's catalog as a table.
func formatSnapshot(out io.Writer, snap *model.Snapshot) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle("Run %s (%s, %s)", truncateID(snap.RunID), snap.Source, snap.CreatedAt.Format("2006-01-02 15:04"))
	t.AppendHeader(table.Row{"Name", "Tagging", "Original", "Discount", "Rating", "Reviews"})
	for _, p := range snap.Products {
		t.AppendRow(table.Row{p.Name, p.Tagging, p.OriginalPrice, p.DiscountPrice, p.RatingScore, p.ReviewCount})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d products", len(snap.Products))})
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.Render()
}
