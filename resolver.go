package reforma

import "context"

// ResolverContext is the metadata handed to a Resolver alongside the value
// snapshot: which fields are being validated and how failures should be
// collected.
type ResolverContext struct {
	// Fields maps each requested path to its registered options (rule set
	// included, for resolvers that want to consult them).
	Fields map[string]RegisterOpts
	// Names lists the paths the resolver is asked to validate.
	Names []string
	// CriteriaMode is the form's failure-collection mode.
	CriteriaMode CriteriaMode
	// Context is Options.ResolverContext, passed through untouched.
	Context any
}

// ResolverResult is a resolver's verdict. Errors must be keyed by the names
// the resolver was asked to validate; omitting a name declares that field
// valid. Values, when non-nil, replace the snapshot handed to submit
// callbacks (schema adapters use this for coerced output).
type ResolverResult struct {
	Values map[string]any
	Errors ErrorTree
}

// Resolver performs whole-form external validation. It must be pure with
// respect to its inputs. A returned error is a resolver failure (not a
// field error) and propagates to the caller of Trigger or submit.
type Resolver func(ctx context.Context, values map[string]any, rc ResolverContext) (ResolverResult, error)
