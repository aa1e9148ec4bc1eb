// Package rank derives the ranked views of a catalog: the most expensive
// discounted products and the rating/review leaderboard.
package rank

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/sells-group/catalog-cli/internal/model"
)

// Defaults used by the pipeline.
const (
	DefaultReviewThreshold = 150
	DefaultTopN            = 20
	DefaultExpensiveN      = 10
)

// Priced pairs a product with its parsed discount price.
type Priced struct {
	Product *model.Product
	Value   decimal.Decimal
}

// TopExpensive returns up to n products ordered by discount price, highest
// first. Products whose discount price does not parse are left out. Equal
// prices keep their input order. n <= 0 returns every priced product.
func TopExpensive(products []*model.Product, n int) []Priced {
	priced := make([]Priced, 0, len(products))
	for _, p := range products {
		if v, ok := model.ParsePrice(p.DiscountPrice); ok {
			priced = append(priced, Priced{Product: p, Value: v})
		}
	}
	slices.SortStableFunc(priced, func(a, b Priced) int {
		return b.Value.Cmp(a.Value)
	})
	return head(priced, n)
}

type scored struct {
	product *model.Product
	rating  decimal.Decimal
	reviews int
}

// Competition ranks products with more than threshold reviews by rating,
// then review count, both descending. Entries with equal rating and review
// count share a rank; any other entry is ranked by its 1-based position, so
// ranks skip after a tie. The first n entries are returned; n <= 0 returns
// all of them. An unparsable rating counts as zero.
func Competition(products []*model.Product, threshold, n int) []model.RankedEntry {
	eligible := make([]scored, 0, len(products))
	for _, p := range products {
		reviews, err := strconv.Atoi(strings.TrimSpace(p.ReviewCount))
		if err != nil || reviews <= threshold {
			continue
		}
		eligible = append(eligible, scored{product: p, rating: parseRating(p.RatingScore), reviews: reviews})
	}

	slices.SortStableFunc(eligible, func(a, b scored) int {
		if c := b.rating.Cmp(a.rating); c != 0 {
			return c
		}
		return cmp.Compare(b.reviews, a.reviews)
	})

	entries := make([]model.RankedEntry, 0, len(eligible))
	rank := 0
	for i, s := range eligible {
		if i == 0 || !s.rating.Equal(eligible[i-1].rating) || s.reviews != eligible[i-1].reviews {
			rank = i + 1
		}
		entries = append(entries, model.NewRankedEntry(s.product, rank))
	}
	return head(entries, n)
}

func parseRating(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func head[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
