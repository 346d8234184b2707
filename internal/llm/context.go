package llm

import "context"

type purposeKey struct{}

// DefaultPurpose labels calls made without WithPurpose.
const DefaultPurpose = "unknown"

// WithPurpose tags ctx with what a call is for ("rebut", "evaluate", "hint",
// "proxy"). The tag is recorded with each logged request and drives the
// per-purpose usage report.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the tag set by WithPurpose, or DefaultPurpose.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok && v != "" {
		return v
	}
	return DefaultPurpose
}
