package export

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/rank"
)

// PrintTopExpensive renders the most expensive products as a table.
func PrintTopExpensive(w io.Writer, priced []rank.Priced) {
	t := newTable(w)
	t.SetTitle("Top %d most expensive products", len(priced))
	t.AppendHeader(table.Row{"#", "Name", "Final Price", "URL"})
	for i, p := range priced {
		t.AppendRow(table.Row{i + 1, p.Product.Name, model.FormatPrice(p.Value), p.Product.URL})
	}
	t.Render()
}

// PrintRanking renders ranked entries as a table.
func PrintRanking(w io.Writer, entries []model.RankedEntry) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Rank", "Name", "Rating", "Reviews", "Discount Price", "URL"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.Rank, e.Name, e.RatingScore, e.ReviewCount, e.DiscountPrice, e.URL})
	}
	t.Render()
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}
