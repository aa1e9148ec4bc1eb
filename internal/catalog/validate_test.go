package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/catalog-cli/internal/model"
)

func TestValidate(t *testing.T) {
	in := []*model.Product{
		{URL: "a", Tagging: "Just In", DiscountPrice: "₱1,234.50"},
		{URL: "b", Tagging: "  ", DiscountPrice: "₱900.00"},
		{URL: "c", Tagging: "Sale", DiscountPrice: " "},
		{URL: "d"},
		{URL: "e", Tagging: "Bestseller | Sale", DiscountPrice: "call"},
	}
	before := *in[1]

	out := Validate(in)
	assert.Len(t, in, 5)
	assert.Equal(t, before, *in[1])
	assert.Equal(t, []string{"a", "e"}, urls(out))
	for _, p := range out {
		assert.NotEmpty(t, p.Tagging)
		assert.NotEmpty(t, p.DiscountPrice)
	}
	// Same handles, not copies.
	assert.Same(t, in[0], out[0])
}

func TestValidate_Empty(t *testing.T) {
	assert.Empty(t, Validate(nil))
}

func TestCountEmptyTagging(t *testing.T) {
	in := []*model.Product{{Tagging: ""}, {Tagging: " "}, {Tagging: "Just In"}}
	assert.Equal(t, 2, CountEmptyTagging(in))
	assert.Zero(t, CountEmptyTagging(nil))
}
