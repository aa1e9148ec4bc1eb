package model

import "strconv"

// RankingColumns is the fixed column order of the ranking output.
var RankingColumns = []string{
	"Rank",
	"Product_Name",
	"Rating_Score",
	"Review_Count",
	"Original_Price",
	"Discount_Price",
	"Product_URL",
}

// RankedEntry is a read-only projection of a Product with the rank assigned
// by one ranking invocation.
type RankedEntry struct {
	Rank          int    `json:"rank"`
	Name          string `json:"name"`
	RatingScore   string `json:"rating_score"`
	ReviewCount   string `json:"review_count"`
	OriginalPrice string `json:"original_price"`
	DiscountPrice string `json:"discount_price"`
	URL           string `json:"url"`
}

// NewRankedEntry projects p with the given rank.
func NewRankedEntry(p *Product, rank int) RankedEntry {
	return RankedEntry{
		Rank:          rank,
		Name:          p.Name,
		RatingScore:   p.RatingScore,
		ReviewCount:   p.ReviewCount,
		OriginalPrice: p.OriginalPrice,
		DiscountPrice: p.DiscountPrice,
		URL:           p.URL,
	}
}

// Row returns the entry's values in RankingColumns order.
func (e RankedEntry) Row() []string {
	return []string{
		strconv.Itoa(e.Rank),
		e.Name,
		e.RatingScore,
		e.ReviewCount,
		e.OriginalPrice,
		e.DiscountPrice,
		e.URL,
	}
}
