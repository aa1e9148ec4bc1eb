package payload

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_PreservesMemberOrder(t *testing.T) {
	v, err := Decode([]byte(`{"b": 1, "a": [true, null, "x"], "c": {"z": 2.5}}`))
	require.NoError(t, err)

	members := v.Members()
	require.Len(t, members, 3)
	assert.Equal(t, "b", members[0].Key)
	assert.Equal(t, "a", members[1].Key)
	assert.Equal(t, "c", members[2].Key)

	items := v.Get("a").Items()
	require.Len(t, items, 3)
	assert.True(t, items[0].BoolValue())
	assert.True(t, items[1].IsNull())
	assert.Equal(t, "x", items[2].Str())

	n, ok := v.Path("c", "z").Num()
	require.True(t, ok)
	assert.Equal(t, "2.5", n.String())
}

func TestDecode_DuplicateKeyTakesLastValue(t *testing.T) {
	v, err := Decode([]byte(`{"a": 1, "b": 2, "a": 3}`))
	require.NoError(t, err)

	require.Len(t, v.Members(), 2)
	n, _ := v.Get("a").Int()
	assert.Equal(t, 3, n)
	assert.Equal(t, "a", v.Members()[0].Key)
}

func TestDecode_Errors(t *testing.T) {
	for _, input := range []string{``, `{`, `{"a": undefined}`, `{} {}`, `<html></html>`} {
		_, err := Decode([]byte(input))
		assert.Error(t, err, "input %q", input)
	}
}

func TestDecodeLenient_ReplacesUndefined(t *testing.T) {
	v, err := DecodeLenient([]byte(`{"a": undefined, "b": "undefined", "c": [undefined]}`))
	require.NoError(t, err)

	assert.True(t, v.Get("a").IsNull())
	assert.Equal(t, "undefined", v.Get("b").Str())
	assert.True(t, v.Get("c").Items()[0].IsNull())
}

func TestDecodeLenient_JSON5Fallback(t *testing.T) {
	v, err := DecodeLenient([]byte(`{zeta: "one", alpha: [1, 2,]}`))
	require.NoError(t, err)

	assert.Equal(t, "one", v.Get("zeta").Str())
	assert.Len(t, v.Get("alpha").Items(), 2)
	// JSON5 objects come back with sorted keys.
	assert.Equal(t, "alpha", v.Members()[0].Key)
}

func TestDecodeLenient_Garbage(t *testing.T) {
	_, err := DecodeLenient([]byte(`function() { return 1 }`))
	assert.Error(t, err)
}

func TestDecode_RejectsDeepNesting(t *testing.T) {
	deep := bytes.Repeat([]byte("["), 8<<20)

	_, err := Decode(deep)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooDeep))

	_, err = DecodeLenient(deep)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooDeep))

	_, err = DecodeLenient(bytes.Repeat([]byte("{a:"), MaxDepth+1))
	assert.True(t, errors.Is(err, ErrTooDeep))
}

func TestDecode_NestingAtLimit(t *testing.T) {
	doc := append(bytes.Repeat([]byte("["), MaxDepth), bytes.Repeat([]byte("]"), MaxDepth)...)
	v, err := Decode(doc)
	require.NoError(t, err)
	assert.True(t, v.IsList())
}

func TestCheckDepth_IgnoresQuotedBrackets(t *testing.T) {
	assert.NoError(t, checkDepth([]byte(`{"a": "[[[[", 'b': '{{{{'}`), 1))
	assert.NoError(t, checkDepth([]byte(`{"a": "\\"}`), 1))
	assert.Error(t, checkDepth([]byte(`{"a": [1]}`), 1))
}

func TestReplaceUndefined_Boundaries(t *testing.T) {
	got := string(replaceUndefined([]byte(`{"k": undefinedValue, "j": undefined, "s": "a \" undefined"}`)))
	assert.Equal(t, `{"k": undefinedValue, "j": null, "s": "a \" undefined"}`, got)
}

func TestValue_Truthy(t *testing.T) {
	assert.False(t, (*Value)(nil).Truthy())
	assert.False(t, NewNull().Truthy())
	assert.False(t, NewString("").Truthy())
	assert.True(t, NewString("x").Truthy())
	assert.False(t, NewNumber("0").Truthy())
	assert.True(t, NewNumber("3").Truthy())
	assert.False(t, NewList().Truthy())
	assert.False(t, NewMap().Truthy())
	assert.True(t, NewMap(Member{Key: "a", Value: NewNull()}).Truthy())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "map", Map.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
