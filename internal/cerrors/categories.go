package cerrors

import "maps"

// Category represents the broad category of an error for classification and routing.
type Category string

const (
	// CategoryConfig represents user-facing configuration and input errors.
	CategoryConfig     Category = "config"
	CategoryValidation Category = "validation"

	// CategoryParse represents structural-summary errors from a language parser.
	CategoryParse Category = "parse"

	// CategoryFingerprint represents malformed fingerprint input.
	CategoryFingerprint Category = "fingerprint"

	// CategoryExtract represents protected-region extraction failures
	// (unbalanced or nested markers in a document).
	CategoryExtract Category = "extract"

	// CategoryMerge represents merge-engine failures.
	CategoryMerge Category = "merge"

	// CategoryGenerate represents content-generator collaborator failures.
	CategoryGenerate Category = "generate"

	// CategoryStore represents document store I/O failures.
	CategoryStore Category = "store"

	// CategoryInternal represents unexpected internal errors.
	CategoryInternal Category = "internal"
)

// Severity represents how serious an error is for the current run.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	// SeverityFatal aborts the whole run, not just one unit.
	SeverityFatal Severity = "fatal"
)

// RetryStrategy indicates whether and how an operation may be retried.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryImmediate  RetryStrategy = "immediate"
	RetryBackoff    RetryStrategy = "backoff"
	RetryUserAction RetryStrategy = "user_action"
)

// Context carries structured key-value context attached to an error.
type Context map[string]any

// Set returns a copy of the context with the key set.
func (c Context) Set(key string, value any) Context {
	out := make(Context, len(c)+1)
	maps.Copy(out, c)
	out[key] = value
	return out
}
