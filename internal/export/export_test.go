package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/rank"
)

func sampleProducts() []*model.Product {
	return []*model.Product{
		{
			URL:           "https://shop.test/t/air-max/DD1234-101",
			Tagging:       "Just In | Sustainable",
			Name:          "Air Max, \"Retro\"",
			OriginalPrice: "₱8,895.00",
			DiscountPrice: "₱6,229.00",
			Sizes:         "EU 38 | EU 39",
			RatingScore:   "4.6",
			ReviewCount:   "312",
		},
		{
			URL:           "https://shop.test/t/pegasus/FD0001-001",
			Tagging:       "Sale",
			Name:          "Pegasus 41",
			OriginalPrice: "₱7,395.00",
			DiscountPrice: "₱5,549.00",
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatCSV, "csv": FormatCSV, "XLSX": FormatXLSX, " xlsx ": FormatXLSX} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("json")
	assert.Error(t, err)
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatXLSX, FormatForPath("out/products.XLSX"))
	assert.Equal(t, FormatCSV, FormatForPath("products_data.csv"))
	assert.Equal(t, FormatCSV, FormatForPath("products"))
	assert.Equal(t, "out/products_data.xlsx", WithExtension("out/products_data.csv", FormatXLSX))
	assert.Equal(t, "ranking.csv", WithExtension("ranking", FormatCSV))
}

func TestWriteCatalog_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "products_data.csv")
	require.NoError(t, WriteCatalog(path, FormatCSV, sampleProducts()))

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, model.CatalogColumns, rows[0])
	assert.Equal(t, "Air Max, \"Retro\"", rows[1][3])
	assert.Equal(t, "₱6,229.00", rows[1][6])
	assert.Equal(t, "", rows[2][12])
}

func TestWriteCatalog_EmptyWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products_data.csv")
	require.NoError(t, WriteCatalog(path, FormatCSV, nil))

	rows := readCSV(t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, model.CatalogColumns, rows[0])
}

func TestWriteRanking_CSV(t *testing.T) {
	products := sampleProducts()
	entries := []model.RankedEntry{
		model.NewRankedEntry(products[0], 1),
		model.NewRankedEntry(products[1], 1),
	}
	path := filepath.Join(t.TempDir(), "top_20_rating_review.csv")
	require.NoError(t, WriteRanking(path, FormatCSV, entries))

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, model.RankingColumns, rows[0])
	assert.Equal(t, []string{"1", "Air Max, \"Retro\"", "4.6", "312", "₱8,895.00", "₱6,229.00", products[0].URL}, rows[1])
	assert.Equal(t, "1", rows[2][0])
}

func TestWriteCatalog_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products_data.xlsx")
	require.NoError(t, WriteCatalog(path, FormatXLSX, sampleProducts()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	sheet := f.Sheets[0]
	assert.Equal(t, "Catalog", sheet.Name)
	require.Len(t, sheet.Rows, 3)
	assert.Equal(t, "Product_URL", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "312", sheet.Rows[1].Cells[13].String())
}

func TestReadCatalog_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, f := range []Format{FormatCSV, FormatXLSX} {
		t.Run(string(f), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "products_data."+string(f))
			want := sampleProducts()
			require.NoError(t, WriteCatalog(path, f, want))

			got, err := ReadCatalog(ctx, path)
			require.NoError(t, err)
			require.Len(t, got, len(want))
			for i := range want {
				assert.Equal(t, *want[i], *got[i])
			}
		})
	}
}

func TestReadCatalog_SkipsRowsWithoutURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	content := "Product_URL,Product_Name,Review_Count\n,orphan,10\nhttps://shop.test/a,A,200\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := ReadCatalog(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Name)
	assert.Equal(t, "200", got[0].ReviewCount)
}

func TestReadCatalog_NormalizesEditedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "products.csv")
	content := "Product_URL,Product_Tagging,Original_Price,Discount_Price\n" +
		"https://shop.test/a, Sale ||  Just In |,\"7,395\",\"₱5,549.00\"\n" +
		"https://shop.test/b, | ,Free,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := ReadCatalog(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Sale | Just In", got[0].Tagging)
	assert.Equal(t, "₱7,395", got[0].OriginalPrice)
	assert.Equal(t, "₱5,549.00", got[0].DiscountPrice)

	assert.Empty(t, got[1].Tagging)
	assert.Equal(t, "Free", got[1].OriginalPrice)
	assert.Empty(t, got[1].DiscountPrice)
}

func TestReadCatalog_MissingFile(t *testing.T) {
	_, err := ReadCatalog(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestPrintTopExpensive(t *testing.T) {
	products := sampleProducts()
	priced := []rank.Priced{
		{Product: products[0], Value: decimal.RequireFromString("6229")},
		{Product: products[1], Value: decimal.RequireFromString("5549")},
	}
	var buf bytes.Buffer
	PrintTopExpensive(&buf, priced)

	out := buf.String()
	assert.Contains(t, out, "Top 2 most expensive products")
	assert.Contains(t, out, "₱6,229.00")
	assert.Contains(t, out, "Pegasus 41")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("₱6,229.00")), bytes.Index(buf.Bytes(), []byte("₱5,549.00")))
}

func TestPrintRanking(t *testing.T) {
	var buf bytes.Buffer
	PrintRanking(&buf, []model.RankedEntry{{Rank: 3, Name: "Dunk Low", RatingScore: "4.8", ReviewCount: "151"}})
	assert.Contains(t, buf.String(), "Dunk Low")
	assert.Contains(t, buf.String(), "151")
}
