package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProduct_RowMatchesColumns(t *testing.T) {
	t.Parallel()

	p := Product{URL: "https://www.nike.com/ph/t/a", Name: "Air", ReviewCount: "12"}
	row := p.Row()

	assert.Len(t, row, len(CatalogColumns))
	assert.Equal(t, "https://www.nike.com/ph/t/a", row[0])
	assert.Equal(t, "Air", row[3])
	assert.Equal(t, "12", row[13])
}

func TestProductFromRow_RoundTripsRow(t *testing.T) {
	t.Parallel()

	p := Product{
		URL: "u", ImageURL: "i", Tagging: "Just In", Name: "n", Description: "d",
		OriginalPrice: "₱2", DiscountPrice: "₱1", Sizes: "7 | 8", Vouchers: "v",
		AvailableColors: "2 Colors", ColorShown: "Black", StyleCode: "DD1", RatingScore: "4.5", ReviewCount: "200",
	}
	row := make(map[string]string, len(CatalogColumns))
	for i, v := range p.Row() {
		row[CatalogColumns[i]] = v
	}

	assert.Equal(t, p, ProductFromRow(row))
}

func TestProduct_OnSale(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		p    Product
		want bool
	}{
		{"no discount", Product{OriginalPrice: "₱100"}, false},
		{"discount below original", Product{OriginalPrice: "₱100", DiscountPrice: "₱80"}, true},
		{"discount equals original", Product{OriginalPrice: "₱100", DiscountPrice: "₱100"}, false},
		{"original unknown", Product{DiscountPrice: "₱80"}, true},
		{"discount unparsable", Product{OriginalPrice: "₱100", DiscountPrice: "sale"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.p.OnSale())
		})
	}
}

func TestSplitTags(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"Just In", "Bestseller"}, SplitTags("Just In | Bestseller"))
	assert.Nil(t, SplitTags("  "))
}

func TestRankedEntry_Row(t *testing.T) {
	t.Parallel()

	p := &Product{Name: "Pegasus", RatingScore: "4.8", ReviewCount: "300", URL: "u"}
	e := NewRankedEntry(p, 3)

	assert.Equal(t, []string{"3", "Pegasus", "4.8", "300", "", "", "u"}, e.Row())
	assert.Len(t, e.Row(), len(RankingColumns))
}
