package statemut

import (
	"fmt"
	"reflect"
	"slices"
)

// Diagnostic messages, one per failed precondition.
const (
	msgNotArray       = "state variable is not an array"
	msgMissingItem    = "array does not contain the target item"
	msgDuplicateItem  = "array already contains the target item"
	msgNotObject      = "state variable is not an object"
	msgMissingKey     = "object does not contain the target property"
	msgNonNumericProp = "target property does not hold a number"
	msgNonNumericArg  = "amount is not a finite number"
	msgOutOfRange     = "result does not fit the property type"
)

// ValidateArray reports whether v is a slice. A nil slice of a concrete type
// is an empty array; an untyped nil is not an array.
func ValidateArray(v any, opts ...Option) error {
	return checkArray(newOptions(opts), "ValidateArray", v)
}

// ValidateArrayContains reports whether state is an array holding item.
func ValidateArrayContains[S ~[]E, E comparable](state S, item E, opts ...Option) error {
	return checkContains[E](newOptions(opts), "ValidateArrayContains", state, item, equal[E])
}

// ValidateArrayExcludes reports whether state is an array not holding item.
func ValidateArrayExcludes[S ~[]E, E comparable](state S, item E, opts ...Option) error {
	return checkExcludes[E](newOptions(opts), "ValidateArrayExcludes", state, item, equal[E])
}

// ValidateObject reports whether v is a non-nil map.
func ValidateObject(v any, opts ...Option) error {
	return checkObject(newOptions(opts), "ValidateObject", v)
}

// ValidateObjectProperty reports whether obj is a map that has key.
func ValidateObjectProperty[M ~map[K]V, K comparable, V any](obj M, key K, opts ...Option) error {
	return checkProperty(newOptions(opts), "ValidateObjectProperty", obj, key)
}

// ValidateObjectNumericProperty reports whether obj has key and its value can
// take part in arithmetic.
func ValidateObjectNumericProperty[M ~map[string]V, V any](obj M, key string, opts ...Option) error {
	return checkNumericProperty(newOptions(opts), "ValidateObjectNumericProperty", obj, key)
}

// AsStateArray returns v as a dynamically typed array, the form produced by
// decoding a JSON array into an interface value. A nil []any stands for a
// JSON null and is rejected.
func AsStateArray(v any, opts ...Option) ([]any, error) {
	o := newOptions(opts)
	arr, ok := v.([]any)
	if !ok || arr == nil {
		return nil, o.fail("AsStateArray", ErrShape, "", v, msgNotArray)
	}
	return arr, nil
}

// AsStateObject returns v as a dynamically typed object, the form produced
// by decoding a JSON object into an interface value.
func AsStateObject(v any, opts ...Option) (map[string]any, error) {
	o := newOptions(opts)
	obj, ok := v.(map[string]any)
	if !ok || obj == nil {
		return nil, o.fail("AsStateObject", ErrShape, "", v, msgNotObject)
	}
	return obj, nil
}

func equal[E comparable](a, b E) bool {
	return a == b
}

func checkArray(o *options, op string, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return o.fail(op, ErrShape, "", v, msgNotArray)
	}
	return nil
}

func checkContains[E any](o *options, op string, state []E, item E, eq func(a, b E) bool) error {
	if !slices.ContainsFunc(state, func(v E) bool { return eq(v, item) }) {
		return o.fail(op, ErrMembership, "", item, msgMissingItem)
	}
	return nil
}

func checkExcludes[E any](o *options, op string, state []E, item E, eq func(a, b E) bool) error {
	if slices.ContainsFunc(state, func(v E) bool { return eq(v, item) }) {
		return o.fail(op, ErrMembership, "", item, msgDuplicateItem)
	}
	return nil
}

func checkObject(o *options, op string, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.IsNil() {
		return o.fail(op, ErrShape, "", v, msgNotObject)
	}
	return nil
}

func checkProperty[M ~map[K]V, K comparable, V any](o *options, op string, obj M, key K) error {
	if err := checkObject(o, op, obj); err != nil {
		return err
	}
	if _, ok := obj[key]; !ok {
		return o.fail(op, ErrPropertyMissing, fmt.Sprint(key), key, msgMissingKey)
	}
	return nil
}

func checkNumericProperty[M ~map[string]V, V any](o *options, op string, obj M, key string) error {
	if err := checkProperty(o, op, obj, key); err != nil {
		return err
	}
	if value := obj[key]; !numericLike(value) {
		return o.fail(op, ErrNonNumericValue, key, value, msgNonNumericProp)
	}
	return nil
}
