// Package middleware wraps external resolvers with boundary concerns:
// deadlines, panic containment, and error-payload shaping.
package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/reforma-go/reforma"
)

// WithTimeout bounds each resolver invocation by d. The resolver sees a
// derived context; on expiry the context error is returned as a resolver
// failure.
func WithTimeout(r reforma.Resolver, d time.Duration) reforma.Resolver {
	return func(ctx context.Context, values map[string]any, rc reforma.ResolverContext) (reforma.ResolverResult, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return r(ctx, values, rc)
	}
}

// WithRecover converts a resolver panic into a resolver failure instead of
// unwinding through the form's validation pass.
func WithRecover(r reforma.Resolver) reforma.Resolver {
	return func(ctx context.Context, values map[string]any, rc reforma.ResolverContext) (res reforma.ResolverResult, err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("resolver panic: %v", p)
			}
		}()
		return r(ctx, values, rc)
	}
}

// Chain composes middlewares right to left: Chain(r, a, b) runs a(b(r)).
func Chain(r reforma.Resolver, mw ...func(reforma.Resolver) reforma.Resolver) reforma.Resolver {
	for i := len(mw) - 1; i >= 0; i-- {
		r = mw[i](r)
	}
	return r
}

// ErrorPayload shapes an error tree for JSON responses.
func ErrorPayload(errs reforma.ErrorTree) map[string]any {
	fields := make(map[string]any, len(errs))
	for path, fe := range errs {
		fields[path] = map[string]any{"type": fe.Type, "message": fe.Message}
	}
	return map[string]any{"errors": fields}
}
