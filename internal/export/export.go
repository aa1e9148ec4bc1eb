// Package export writes catalog and ranking tables to CSV or XLSX files and
// reads a previously written catalog back in.
package export

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/catalog-cli/internal/model"
)

// Format is an output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx", case-insensitively. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("export: unknown format %q", s)
	}
}

// FormatForPath picks the format matching the file extension.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// WithExtension replaces the extension of path with the one for f.
func WithExtension(path string, f Format) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "." + string(f)
}

// WriteCatalog writes products in CatalogColumns order. An empty slice still
// produces a header-only file.
func WriteCatalog(path string, f Format, products []*model.Product) error {
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		rows = append(rows, p.Row())
	}
	return write(path, f, "Catalog", model.CatalogColumns, rows)
}

// WriteRanking writes ranked entries in RankingColumns order.
func WriteRanking(path string, f Format, entries []model.RankedEntry) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, e.Row())
	}
	return write(path, f, "Ranking", model.RankingColumns, rows)
}

func write(path string, f Format, sheet string, header []string, rows [][]string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := mkdirAll(dir); err != nil {
			return err
		}
	}
	switch f {
	case FormatXLSX:
		return writeXLSX(path, sheet, header, rows)
	case FormatCSV, "":
		return writeCSV(path, header, rows)
	default:
		return eris.Errorf("export: unknown format %q", f)
	}
}
