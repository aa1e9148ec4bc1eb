package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/titanous/json5"
)

// MaxDepth bounds the nesting of objects and arrays a document may have.
const MaxDepth = 1000

// ErrTooDeep is returned for documents nested deeper than MaxDepth.
var ErrTooDeep = eris.New("payload: document nested too deeply")

// Decode parses a strict JSON document, keeping object members in document
// order. Numbers keep their literal text.
func Decode(data []byte) (*Value, error) {
	if err := checkDepth(data, MaxDepth); err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, eris.Wrap(err, "payload: decode")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, eris.New("payload: decode: trailing data after document")
	}
	return v, nil
}

// DecodeLenient parses script-embedded state that may not be strict JSON.
// It first substitutes the bare literal undefined with null and retries
// strict decoding, then falls back to JSON5 (unquoted keys, single quotes,
// trailing commas). JSON5 objects come back with their keys sorted.
func DecodeLenient(data []byte) (*Value, error) {
	if err := checkDepth(data, MaxDepth); err != nil {
		return nil, err
	}
	if v, err := Decode(data); err == nil {
		return v, nil
	}

	sanitized := replaceUndefined(data)
	if v, err := Decode(sanitized); err == nil {
		return v, nil
	}

	var raw any
	if err := json5.Unmarshal(sanitized, &raw); err != nil {
		return nil, eris.Wrap(err, "payload: decode lenient")
	}
	return fromAny(raw), nil
}

// checkDepth scans data for object and array nesting beyond limit. Brackets
// inside single or double quoted strings are ignored.
func checkDepth(data []byte, limit int) error {
	depth := 0
	var quote byte
	escaped := false
	for _, c := range data {
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{', '[':
			depth++
			if depth > limit {
				return ErrTooDeep
			}
		case '}', ']':
			if depth > 0 {
				depth--
			}
		}
	}
	return nil
}

func decodeValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, eris.Errorf("unexpected delimiter %q", t)
		}
	case string:
		return NewString(t), nil
	case json.Number:
		return NewNumber(t), nil
	case bool:
		return NewBool(t), nil
	case nil:
		return NewNull(), nil
	default:
		return nil, eris.Errorf("unexpected token %v", tok)
	}
}

func decodeObject(dec *json.Decoder) (*Value, error) {
	var members []Member
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, eris.Errorf("object key is %T, want string", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		// A repeated key keeps its first position and takes the last value.
		if i, dup := index[key]; dup {
			members[i].Value = val
			continue
		}
		index[key] = len(members)
		members = append(members, Member{Key: key, Value: val})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return NewMap(members...), nil
}

func decodeArray(dec *json.Decoder) (*Value, error) {
	items := []*Value{}
	for dec.More() {
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		items = append(items, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return NewList(items...), nil
}

// fromAny converts a generic decoded tree into a Value.
func fromAny(raw any) *Value {
	switch t := raw.(type) {
	case nil:
		return NewNull()
	case bool:
		return NewBool(t)
	case float64:
		return NewNumber(json.Number(strconv.FormatFloat(t, 'f', -1, 64)))
	case json.Number:
		return NewNumber(t)
	case string:
		return NewString(t)
	case []any:
		items := make([]*Value, 0, len(t))
		for _, item := range t {
			items = append(items, fromAny(item))
		}
		return NewList(items...)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		members := make([]Member, 0, len(keys))
		for _, k := range keys {
			members = append(members, Member{Key: k, Value: fromAny(t[k])})
		}
		return NewMap(members...)
	default:
		return NewNull()
	}
}

var (
	undefinedLit = []byte("undefined")
	nullLit      = []byte("null")
)

// replaceUndefined rewrites the bare identifier undefined to null, leaving
// string literals alone.
func replaceUndefined(data []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(data))

	var quote byte
	escaped := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if quote != 0 {
			out.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
			out.WriteByte(c)
			continue
		}
		if bytes.HasPrefix(data[i:], undefinedLit) && isBoundary(data, i-1) && isBoundary(data, i+len(undefinedLit)) {
			out.Write(nullLit)
			i += len(undefinedLit) - 1
			continue
		}
		out.WriteByte(c)
	}
	return out.Bytes()
}

func isBoundary(data []byte, i int) bool {
	if i < 0 || i >= len(data) {
		return true
	}
	c := data[i]
	return !(c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z')
}
