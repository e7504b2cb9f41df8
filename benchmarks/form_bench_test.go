package benchmarks

import (
	"context"
	"strconv"
	"testing"

	"github.com/reforma-go/reforma"
)

func BenchmarkRecordChange(b *testing.B) {
	ctx := context.Background()
	f := reforma.New()
	defer f.Close()
	bind := f.Register("user.profile.name")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bind.RecordChange(ctx, strconv.Itoa(i))
	}
}

func BenchmarkRecordChangeValidating(b *testing.B) {
	ctx := context.Background()
	f := reforma.New(reforma.Options{Mode: reforma.ModeOnChange})
	defer f.Close()
	bind := f.Register("name", reforma.RegisterOpts{
		Required:  &reforma.RequiredRule{},
		MinLength: &reforma.LengthRule{Value: 3},
	})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bind.RecordChange(ctx, "abcdef")
	}
}

func BenchmarkTriggerWideForm(b *testing.B) {
	ctx := context.Background()
	f := reforma.New()
	defer f.Close()
	for i := 0; i < 50; i++ {
		p := "field" + strconv.Itoa(i)
		f.Register(p, reforma.RegisterOpts{Required: &reforma.RequiredRule{}, Value: "v"})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = f.Trigger(ctx)
	}
}

func BenchmarkArrayAppendRemove(b *testing.B) {
	ctx := context.Background()
	f := reforma.New()
	defer f.Close()
	arr := f.FieldArray("items")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = arr.Append(ctx, map[string]any{"sku": i})
		_ = arr.Remove(ctx, 0)
	}
}

func BenchmarkWatchDispatch(b *testing.B) {
	ctx := context.Background()
	f := reforma.New()
	defer f.Close()
	for i := 0; i < 8; i++ {
		sub := f.Watch(func(reforma.WatchEvent) {}, "hot")
		defer sub.Unsubscribe()
	}
	bind := f.Register("hot")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bind.RecordChange(ctx, i)
	}
}

func BenchmarkStateSnapshot(b *testing.B) {
	ctx := context.Background()
	f := reforma.New()
	defer f.Close()
	for i := 0; i < 20; i++ {
		_ = f.SetValue(ctx, "a.b"+strconv.Itoa(i), i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = f.GetFormState()
	}
}
