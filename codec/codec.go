// Package codec converts between the raw values a collaborator records
// (usually strings) and the domain values a form stores. Decode goes from
// wire to domain, Encode goes back for display.
package codec

import (
	"fmt"
	"strconv"
	"strings"
)

// Codec is a bidirectional value transformation.
type Codec interface {
	Decode(raw any) (any, error)
	Encode(v any) (any, error)
}

// SetValueAs adapts a Codec's decode direction to the RegisterOpts.SetValueAs
// hook. A decode failure leaves the raw value untouched so the rule engine
// can report it.
func SetValueAs(c Codec) func(any) any {
	return func(raw any) any {
		v, err := c.Decode(raw)
		if err != nil {
			return raw
		}
		return v
	}
}

// Identity returns a Codec that performs no transformation.
func Identity() Codec { return identityCodec{} }

type identityCodec struct{}

func (identityCodec) Decode(raw any) (any, error) { return raw, nil }
func (identityCodec) Encode(v any) (any, error)   { return v, nil }

// Trimmed returns a Codec that strips surrounding whitespace from string
// input. Non-strings pass through.
func Trimmed() Codec { return trimmedCodec{} }

type trimmedCodec struct{}

func (trimmedCodec) Decode(raw any) (any, error) {
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s), nil
	}
	return raw, nil
}
func (trimmedCodec) Encode(v any) (any, error) { return v, nil }

// Number returns a Codec that converts between numeric strings and float64.
func Number() Codec { return numberCodec{} }

type numberCodec struct{}

func (numberCodec) Decode(raw any) (any, error) {
	switch n := raw.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", n)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("cannot interpret %T as number", raw)
	}
}

func (numberCodec) Encode(v any) (any, error) {
	f, ok := v.(float64)
	if !ok {
		return nil, fmt.Errorf("cannot encode %T as numeric string", v)
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}
