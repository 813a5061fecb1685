package cerrors

// Builder provides a fluent API for creating ClassifiedError instances.
type Builder struct {
	category Category
	severity Severity
	retry    RetryStrategy
	message  string
	cause    error
	context  Context
}

// New creates a new Builder with the specified category and message.
func New(category Category, message string) *Builder {
	return &Builder{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
		context:  make(Context),
	}
}

// Wrap creates a new Builder that wraps an existing error.
func Wrap(err error, category Category, message string) *Builder {
	b := New(category, message)
	b.cause = err
	return b
}

// WithSeverity sets the error severity.
func (b *Builder) WithSeverity(severity Severity) *Builder {
	b.severity = severity
	return b
}

// WithRetry sets the retry strategy.
func (b *Builder) WithRetry(strategy RetryStrategy) *Builder {
	b.retry = strategy
	return b
}

// WithContext adds a context key-value pair.
func (b *Builder) WithContext(key string, value any) *Builder {
	b.context = b.context.Set(key, value)
	return b
}

// Fatal sets the severity to fatal.
func (b *Builder) Fatal() *Builder {
	return b.WithSeverity(SeverityFatal)
}

// Warning sets the severity to warning.
func (b *Builder) Warning() *Builder {
	return b.WithSeverity(SeverityWarning)
}

// Retryable sets the retry strategy to backoff.
func (b *Builder) Retryable() *Builder {
	return b.WithRetry(RetryBackoff)
}

// UserAction sets the retry strategy to require user action.
func (b *Builder) UserAction() *Builder {
	return b.WithRetry(RetryUserAction)
}

// Build creates the final ClassifiedError.
func (b *Builder) Build() *ClassifiedError {
	return &ClassifiedError{
		category: b.category,
		severity: b.severity,
		retry:    b.retry,
		message:  b.message,
		cause:    b.cause,
		context:  b.context,
	}
}
