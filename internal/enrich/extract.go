package enrich

import (
	"bytes"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/catalog-cli/internal/model"
)

// SizeSelector matches the size options shown as in stock.
const SizeSelector = "li[data-qa='size-available'], button[data-qa='size-available']"

// Alternative is one regular expression and the capture group it reads.
type Alternative struct {
	Re    *regexp.Regexp
	Group int
}

// Pattern extracts one field from page text by trying its alternatives in
// order. The first alternative that matches with a non-empty group wins.
type Pattern struct {
	Name         string
	Alternatives []Alternative
}

// Find returns the trimmed capture of the first matching alternative.
func (p Pattern) Find(text string) (string, bool) {
	for _, alt := range p.Alternatives {
		m := alt.Re.FindStringSubmatch(text)
		if alt.Group >= len(m) {
			continue
		}
		if v := strings.TrimSpace(m[alt.Group]); v != "" {
			return v, true
		}
	}
	return "", false
}

// ratingReviews matches "4.6 (312 Reviews)". When it misses, rating and
// review count fall back to independent patterns.
var ratingReviews = regexp.MustCompile(`([0-5](?:\.\d)?)\s*\((\d+)\s*Reviews?\)`)

// Detail page patterns.
var (
	ColorShown = Pattern{Name: "color_shown", Alternatives: []Alternative{
		{Re: regexp.MustCompile(`(?i)(?:Colour|Color) Shown:\s*([^\n]+)`), Group: 1},
	}}
	StyleCode = Pattern{Name: "style_code", Alternatives: []Alternative{
		{Re: regexp.MustCompile(`(?i)Style(?:\s*Code)?:\s*([A-Za-z0-9-]+)`), Group: 1},
	}}
	RatingScore = Pattern{Name: "rating_score", Alternatives: []Alternative{
		{Re: ratingReviews, Group: 1},
		{Re: regexp.MustCompile(`([0-5](?:\.\d)?)\s*Rating`), Group: 1},
	}}
	ReviewCount = Pattern{Name: "review_count", Alternatives: []Alternative{
		{Re: ratingReviews, Group: 2},
		{Re: regexp.MustCompile(`(\d+)\s*Reviews?`), Group: 1},
	}}
)

var voucherTerms = []string{"voucher", "promo", "member", "% off"}

const maxVoucherLen = 120

// Details holds the fields read from a detail page. Empty means not found.
type Details struct {
	Sizes       string
	ColorShown  string
	StyleCode   string
	RatingScore string
	ReviewCount string
	Vouchers    string
}

// Apply copies the found fields onto p. Fields that were not found, and
// every listing-derived field, are left as they are.
func (d Details) Apply(p *model.Product) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&p.Sizes, d.Sizes)
	set(&p.ColorShown, d.ColorShown)
	set(&p.StyleCode, d.StyleCode)
	set(&p.RatingScore, d.RatingScore)
	set(&p.ReviewCount, d.ReviewCount)
	set(&p.Vouchers, d.Vouchers)
}

// Extract parses a detail page. Each field is extracted independently.
func Extract(html []byte) (Details, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return Details{}, eris.Wrap(err, "enrich: parse detail page")
	}

	lines := TextLines(doc.Selection)
	text := strings.Join(lines, "\n")

	var d Details
	d.Sizes = strings.Join(sizes(doc), model.TagSeparator)
	d.ColorShown, _ = ColorShown.Find(text)
	d.StyleCode, _ = StyleCode.Find(text)
	d.RatingScore, _ = RatingScore.Find(text)
	d.ReviewCount, _ = ReviewCount.Find(text)
	d.Vouchers, _ = voucherLine(lines)
	return d, nil
}

func sizes(doc *goquery.Document) []string {
	var out []string
	doc.Find(SizeSelector).Each(func(_ int, s *goquery.Selection) {
		if label := strings.TrimSpace(s.Text()); label != "" && !slices.Contains(out, label) {
			out = append(out, label)
		}
	})
	return out
}

// TextLines flattens the visible text under sel into trimmed, non-empty
// lines, one per text node. Script and style contents are skipped.
func TextLines(sel *goquery.Selection) []string {
	var lines []string
	var walk func(*goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Contents().Each(func(_ int, c *goquery.Selection) {
			switch goquery.NodeName(c) {
			case "#text":
				if t := strings.TrimSpace(c.Text()); t != "" {
					lines = append(lines, t)
				}
			case "#comment", "script", "style", "noscript", "template":
			default:
				walk(c)
			}
		})
	}
	walk(sel)
	return lines
}

// voucherLine returns the first short line mentioning a promotion.
func voucherLine(lines []string) (string, bool) {
	for _, line := range lines {
		if utf8.RuneCountInString(line) >= maxVoucherLen {
			continue
		}
		lower := strings.ToLower(line)
		for _, term := range voucherTerms {
			if strings.Contains(lower, term) {
				return line, true
			}
		}
	}
	return "", false
}
