package export

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/catalog-cli/internal/fetcher"
	"github.com/sells-group/catalog-cli/internal/model"
)

// ReadCatalog loads a catalog file written by WriteCatalog. The format is
// picked from the extension. Rows without a product URL are skipped.
func ReadCatalog(ctx context.Context, path string) ([]*model.Product, error) {
	if FormatForPath(path) == FormatXLSX {
		return readCatalogXLSX(path)
	}
	return readCatalogCSV(ctx, path)
}

func readCatalogCSV(ctx context.Context, path string) ([]*model.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "export: open catalog")
	}
	defer f.Close() //nolint:errcheck

	records, errs := fetcher.StreamCSV(ctx, f, fetcher.CSVOptions{})
	var products []*model.Product
	for rec := range records {
		if p := fromRecord(rec); p != nil {
			products = append(products, p)
		}
	}
	if err := <-errs; err != nil {
		return nil, eris.Wrapf(err, "export: read catalog %s", path)
	}
	return products, nil
}

func readCatalogXLSX(path string) ([]*model.Product, error) {
	records, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	if err != nil {
		return nil, eris.Wrapf(err, "export: read catalog %s", path)
	}
	var products []*model.Product
	for _, rec := range records {
		if p := fromRecord(rec); p != nil {
			products = append(products, p)
		}
	}
	return products, nil
}

// fromRecord maps one row back to a Product. Prices typed without the
// currency symbol get it, and tagging is re-joined without blank labels.
func fromRecord(rec fetcher.Record) *model.Product {
	p := model.ProductFromRow(rec)
	if p.URL == "" {
		return nil
	}
	p.OriginalPrice = model.FormatPriceText(p.OriginalPrice)
	p.DiscountPrice = model.FormatPriceText(p.DiscountPrice)
	p.Tagging = strings.Join(model.SplitTags(p.Tagging), model.TagSeparator)
	return &p
}
