package statemut

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/exp/constraints"
)

// DefaultAmount is the step used when a caller has no specific amount.
const DefaultAmount = 1

// Number is the set of Go types that IncrementDecrementNumberProperty accepts.
type Number interface {
	constraints.Integer | constraints.Float
}

// numericLike reports whether v can take part in increment arithmetic.
func numericLike(v any) bool {
	if n, ok := v.(json.Number); ok {
		_, err := n.Float64()
		return err == nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	case reflect.String:
		_, ok := parseEncodedInt(rv.String())
		return ok
	default:
		return false
	}
}

// parseEncodedInt reads a string holding a number and returns its integer
// part: "42" is 42, " 7.9 " is 7, "-3e2" is -3. The whole string must be a
// finite number and start with at least one digit after the optional sign.
func parseEncodedInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}

	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// amount is a parsed increment step. Integral steps are kept as int64 so
// large values stay exact.
type amount struct {
	i     int64
	f     float64
	exact bool
}

// parseAmount reads an increment step. Strings are read as encoded integers.
// NaN, infinities and unsigned values above math.MaxInt64 are rejected.
func parseAmount(v any) (amount, bool) {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return amount{i: i, exact: true}, true
		}
		f, err := n.Float64()
		if err != nil {
			return amount{}, false
		}
		return floatAmount(f)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return amount{i: rv.Int(), exact: true}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return amount{}, false
		}
		return amount{i: int64(u), exact: true}, true
	case reflect.Float32, reflect.Float64:
		return floatAmount(rv.Float())
	case reflect.String:
		n, ok := parseEncodedInt(rv.String())
		return amount{i: n, exact: true}, ok
	default:
		return amount{}, false
	}
}

func floatAmount(f float64) (amount, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return amount{}, false
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return amount{i: int64(f), exact: true}, true
	}
	return amount{f: f}, true
}

func (a amount) float() float64 {
	if a.exact {
		return float64(a.i)
	}
	return a.f
}

// integer returns the step truncated toward zero.
func (a amount) integer() (int64, bool) {
	if a.exact {
		return a.i, true
	}
	t := math.Trunc(a.f)
	if t < math.MinInt64 || t >= math.MaxInt64 {
		return 0, false
	}
	return int64(t), true
}

// addAmount adds step to current, keeping the concrete type of current.
// String-encoded values stay strings; numbers stay numbers of the same type.
// On failure it returns the diagnostic message: a result that does not fit
// the type of current is never produced.
func addAmount(current any, step amount) (any, string) {
	if n, ok := current.(json.Number); ok {
		if i, err := n.Int64(); err == nil && step.exact {
			sum, ok := addInt(i, step.i)
			if !ok {
				return nil, msgOutOfRange
			}
			return json.Number(strconv.FormatInt(sum, 10)), ""
		}
		f, err := n.Float64()
		if err != nil {
			return nil, msgNonNumericProp
		}
		sum := f + step.float()
		if math.IsInf(sum, 0) {
			return nil, msgOutOfRange
		}
		return json.Number(formatNumber(sum)), ""
	}

	rv := reflect.ValueOf(current)
	if !rv.IsValid() {
		return nil, msgNonNumericProp
	}
	out := reflect.New(rv.Type()).Elem()

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		d, ok := step.integer()
		if !ok {
			return nil, msgOutOfRange
		}
		sum, ok := addInt(rv.Int(), d)
		if !ok || out.OverflowInt(sum) {
			return nil, msgOutOfRange
		}
		out.SetInt(sum)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		d, ok := step.integer()
		if !ok {
			return nil, msgOutOfRange
		}
		sum, ok := addUint(rv.Uint(), d)
		if !ok || out.OverflowUint(sum) {
			return nil, msgOutOfRange
		}
		out.SetUint(sum)
	case reflect.Float32, reflect.Float64:
		sum := rv.Float() + step.float()
		if math.IsInf(sum, 0) || out.OverflowFloat(sum) {
			return nil, msgOutOfRange
		}
		out.SetFloat(sum)
	case reflect.String:
		base, ok := parseEncodedInt(rv.String())
		if !ok {
			return nil, msgNonNumericProp
		}
		if !step.exact {
			out.SetString(formatNumber(float64(base) + step.f))
			break
		}
		sum, ok := addInt(base, step.i)
		if !ok {
			return nil, msgOutOfRange
		}
		out.SetString(strconv.FormatInt(sum, 10))
	default:
		return nil, msgNonNumericProp
	}

	return out.Interface(), ""
}

// addInt returns a+b, or false when the sum overflows int64.
func addInt(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}

// addUint returns u+d, or false when the result is negative or overflows
// uint64.
func addUint(u uint64, d int64) (uint64, bool) {
	if d >= 0 {
		sum := u + uint64(d)
		return sum, sum >= u
	}
	neg := uint64(-(d + 1)) + 1
	if neg > u {
		return 0, false
	}
	return u - neg, true
}

// addNumber returns a+b for any Number type, or false when the sum leaves
// the range of N.
func addNumber[N Number](a, b N) (N, bool) {
	f := float64(b)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) || math.IsInf(float64(sum), 0) {
		return 0, false
	}
	return sum, true
}

// formatNumber renders n in its shortest decimal form without an exponent.
func formatNumber[N Number](n N) string {
	f := float64(n)
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
