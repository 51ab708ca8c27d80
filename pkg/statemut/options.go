package statemut

import (
	"go.uber.org/zap"
)

// ProductionCaller is reported as the caller of a failed operation unless
// WithCaller supplies a name.
const ProductionCaller = "-production-build-"

// MongoIDField is the default identifier field used by DeleteItemFromStateArrayByID.
const MongoIDField = "_id"

// Setter commits a new container value into storage owned by the caller.
type Setter[T any] func(T)

// Option configures a single operation call.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	caller  string
	idField string
}

// WithLogger sets the logger receiving diagnostics. The default is zap.L().
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCaller names the call site reported in diagnostics.
func WithCaller(name string) Option {
	return func(o *options) {
		if name != "" {
			o.caller = name
		}
	}
}

// WithIDField overrides the record field matched by DeleteItemFromStateArrayByID.
func WithIDField(field string) Option {
	return func(o *options) {
		if field != "" {
			o.idField = field
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		logger:  zap.L(),
		caller:  ProductionCaller,
		idField: MongoIDField,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// fail logs the diagnostic for a failed precondition and returns it as an error.
func (o *options) fail(op string, kind error, key string, value any, message string) error {
	err := &ValidationError{
		Operation: op,
		Caller:    o.caller,
		Kind:      kind,
		Key:       key,
		Value:     value,
		message:   message,
	}

	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("caller", o.caller),
		zap.String("kind", KindName(kind)),
		zap.Any("value", value),
	}
	if key != "" {
		fields = append(fields, zap.String("key", key))
	}
	o.logger.Error(message, fields...)

	return err
}

func commit[T any](set Setter[T], value T) T {
	if set != nil {
		set(value)
	}
	return value
}
