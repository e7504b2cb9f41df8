package codec

import (
	"fmt"
	"time"
)

// TimeRFC3339 returns a Codec that converts between RFC 3339 strings and
// time.Time. Bare dates ("2006-01-02") are accepted on decode; encode is
// always canonical RFC 3339 in UTC.
func TimeRFC3339() Codec { return rfc3339Codec{} }

type rfc3339Codec struct{}

func (rfc3339Codec) Decode(raw any) (any, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t, nil
		}
		if t, err := time.Parse("2006-01-02", v); err == nil {
			return t, nil
		}
		return nil, fmt.Errorf("invalid RFC3339 time: %q", v)
	default:
		return nil, fmt.Errorf("cannot interpret %T as time", raw)
	}
}

func (rfc3339Codec) Encode(v any) (any, error) {
	t, ok := v.(time.Time)
	if !ok {
		return nil, fmt.Errorf("cannot encode %T as RFC3339 string", v)
	}
	return t.UTC().Format(time.RFC3339), nil
}
