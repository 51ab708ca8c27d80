package statemut

import (
	"fmt"
	"maps"
)

// SetStateObjectProperty passes set a shallow copy of obj with key set to
// value. It fails when obj is a nil map.
func SetStateObjectProperty[M ~map[K]V, K comparable, V any](obj M, set Setter[M], key K, value V, opts ...Option) (M, error) {
	o := newOptions(opts)
	if err := checkObject(o, "SetStateObjectProperty", obj); err != nil {
		return nil, err
	}

	next := maps.Clone(obj)
	next[key] = value

	return commit(set, next), nil
}

// IncrementDecrementStateObjectProperty adds amount to the value under key and
// passes set a shallow copy of obj holding the result. A negative amount
// decrements.
//
// The stored value keeps its type: a string holding a number is read as an
// integer and written back as a string, numbers stay numbers of the same Go
// type. amount may be a finite number or a string holding one; DefaultAmount
// is the conventional step. A result outside the range of the stored type
// (a uint going below zero, an int8 past 127) is a NonNumericValue failure
// and nothing is committed.
func IncrementDecrementStateObjectProperty[M ~map[string]V, V any](
	obj M,
	set Setter[M],
	key string,
	amount any,
	opts ...Option,
) (M, error) {
	const op = "IncrementDecrementStateObjectProperty"

	o := newOptions(opts)
	if err := checkNumericProperty(o, op, obj, key); err != nil {
		return nil, err
	}

	step, ok := parseAmount(amount)
	if !ok {
		return nil, o.fail(op, ErrNonNumericValue, key, amount, msgNonNumericArg)
	}

	current := obj[key]
	updated, msg := addAmount(current, step)
	if msg != "" {
		return nil, o.fail(op, ErrNonNumericValue, key, current, msg)
	}
	value, ok := updated.(V)
	if !ok {
		return nil, o.fail(op, ErrNonNumericValue, key, current, msgNonNumericProp)
	}

	next := maps.Clone(obj)
	next[key] = value

	return commit(set, next), nil
}

// IncrementDecrementNumberProperty is the statically typed form of
// IncrementDecrementStateObjectProperty for maps of numbers. A sum that
// wraps around or becomes infinite is rejected.
func IncrementDecrementNumberProperty[M ~map[K]N, K comparable, N Number](
	obj M,
	set Setter[M],
	key K,
	amount N,
	opts ...Option,
) (M, error) {
	const op = "IncrementDecrementNumberProperty"

	o := newOptions(opts)
	if err := checkProperty(o, op, obj, key); err != nil {
		return nil, err
	}

	sum, ok := addNumber(obj[key], amount)
	if !ok {
		return nil, o.fail(op, ErrNonNumericValue, fmt.Sprint(key), amount, msgOutOfRange)
	}

	next := maps.Clone(obj)
	next[key] = sum

	return commit(set, next), nil
}
