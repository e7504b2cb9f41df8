package codec_test

import (
	"context"
	"testing"
	"time"

	"github.com/reforma-go/reforma"
	"github.com/reforma-go/reforma/codec"
)

func TestNumberRoundTrip(t *testing.T) {
	c := codec.Number()
	v, err := c.Decode(" 42.5 ")
	if err != nil || v != 42.5 {
		t.Fatalf("decode: %v %v", v, err)
	}
	s, err := c.Encode(42.5)
	if err != nil || s != "42.5" {
		t.Fatalf("encode: %v %v", s, err)
	}
	if _, err := c.Decode("nope"); err == nil {
		t.Fatalf("bad input accepted")
	}
}

func TestTimeRFC3339(t *testing.T) {
	c := codec.TimeRFC3339()
	v, err := c.Decode("2024-03-01T10:00:00Z")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !v.(time.Time).Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("got %v", v)
	}
	if _, err := c.Decode("2024-03-01"); err != nil {
		t.Fatalf("bare date rejected: %v", err)
	}
	s, err := c.Encode(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	if err != nil || s != "2024-03-01T10:00:00Z" {
		t.Fatalf("encode: %v %v", s, err)
	}
}

func TestTrimmed(t *testing.T) {
	c := codec.Trimmed()
	v, _ := c.Decode("  x  ")
	if v != "x" {
		t.Fatalf("got %q", v)
	}
	n, _ := c.Decode(7)
	if n != 7 {
		t.Fatalf("non-string transformed: %v", n)
	}
}

func TestSetValueAsKeepsRawOnFailure(t *testing.T) {
	f := codec.SetValueAs(codec.Number())
	if got := f("12"); got != 12.0 {
		t.Fatalf("got %v", got)
	}
	if got := f("not-a-number"); got != "not-a-number" {
		t.Fatalf("raw not preserved: %v", got)
	}
}

func TestCodecOnForm(t *testing.T) {
	ctx := context.Background()
	f := reforma.New()
	defer f.Close()
	b := f.Register("amount", reforma.RegisterOpts{
		SetValueAs: codec.SetValueAs(codec.Number()),
		Min:        &reforma.BoundRule{Value: 10, Message: "too small"},
	})
	if err := b.RecordChange(ctx, " 5 "); err != nil {
		t.Fatalf("change: %v", err)
	}
	if v, _ := f.GetValue("amount"); v != 5.0 {
		t.Fatalf("value = %v", v)
	}
	if valid, err := f.Trigger(ctx); err != nil || valid {
		t.Fatalf("valid=%v err=%v", valid, err)
	}
}
