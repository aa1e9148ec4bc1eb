package model

import "strings"

// TagSeparator joins promotional labels and available sizes.
const TagSeparator = " | "

// Product is a single catalog listing, keyed by its canonical detail-page URL.
// Listing-derived fields (URL, Name, Tagging, prices) are set once at assembly;
// detail fields are filled in by enrichment.
type Product struct {
	URL             string `json:"url"`
	ImageURL        string `json:"image_url"`
	Tagging         string `json:"tagging"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	OriginalPrice   string `json:"original_price"`
	DiscountPrice   string `json:"discount_price"`
	Sizes           string `json:"sizes"`
	Vouchers        string `json:"vouchers"`
	AvailableColors string `json:"available_colors"`
	ColorShown      string `json:"color_shown"`
	StyleCode       string `json:"style_code"`
	RatingScore     string `json:"rating_score"`
	ReviewCount     string `json:"review_count"`
}

// CatalogColumns is the fixed column order of the catalog output.
var CatalogColumns = []string{
	"Product_URL",
	"Product_Image_URL",
	"Product_Tagging",
	"Product_Name",
	"Product_Description",
	"Original_Price",
	"Discount_Price",
	"Sizes_Available",
	"Vouchers",
	"Available_Colors",
	"Color_Shown",
	"Style_Code",
	"Rating_Score",
	"Review_Count",
}

// Row returns the product's values in CatalogColumns order.
func (p *Product) Row() []string {
	return []string{
		p.URL,
		p.ImageURL,
		p.Tagging,
		p.Name,
		p.Description,
		p.OriginalPrice,
		p.DiscountPrice,
		p.Sizes,
		p.Vouchers,
		p.AvailableColors,
		p.ColorShown,
		p.StyleCode,
		p.RatingScore,
		p.ReviewCount,
	}
}

// ProductFromRow builds a Product from values keyed by catalog column name.
// Unknown columns are ignored and missing ones stay empty.
func ProductFromRow(row map[string]string) Product {
	return Product{
		URL:             row["Product_URL"],
		ImageURL:        row["Product_Image_URL"],
		Tagging:         row["Product_Tagging"],
		Name:            row["Product_Name"],
		Description:     row["Product_Description"],
		OriginalPrice:   row["Original_Price"],
		DiscountPrice:   row["Discount_Price"],
		Sizes:           row["Sizes_Available"],
		Vouchers:        row["Vouchers"],
		AvailableColors: row["Available_Colors"],
		ColorShown:      row["Color_Shown"],
		StyleCode:       row["Style_Code"],
		RatingScore:     row["Rating_Score"],
		ReviewCount:     row["Review_Count"],
	}
}

// HasTagging reports whether the product carries at least one label.
func (p *Product) HasTagging() bool {
	return strings.TrimSpace(p.Tagging) != ""
}

// HasDiscount reports whether a discount price is present.
func (p *Product) HasDiscount() bool {
	return strings.TrimSpace(p.DiscountPrice) != ""
}

// OnSale reports whether the product is discounted. When both prices parse,
// the discount must be strictly below the original.
func (p *Product) OnSale() bool {
	if !p.HasDiscount() {
		return false
	}
	discount, okDiscount := ParsePrice(p.DiscountPrice)
	original, okOriginal := ParsePrice(p.OriginalPrice)
	if okDiscount && okOriginal {
		return discount.LessThan(original)
	}
	return true
}

// SplitTags returns the individual labels of a pipe-joined field.
func SplitTags(s string) []string {
	var out []string
	for _, part := range strings.Split(s, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
