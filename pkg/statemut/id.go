package statemut

import (
	"fmt"
	"reflect"
	"strconv"
)

// Identifiable is implemented by records that carry their own identifier.
type Identifiable interface {
	StateID() string
}

// NormalizeID returns the string form an identifier is compared by.
// Numbers use their shortest decimal form, so 1 and 1.0 both become "1".
func NormalizeID(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}

	rv := reflect.ValueOf(id)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return formatNumber(rv.Float())
	default:
		return fmt.Sprint(id)
	}
}

// recordID reads the identifier of a record. Only string identifiers count.
func recordID(record any, field string) (string, bool) {
	switch r := record.(type) {
	case Identifiable:
		return r.StateID(), true
	case map[string]any:
		id, ok := r[field].(string)
		return id, ok
	case map[string]string:
		id, ok := r[field]
		return id, ok
	default:
		return "", false
	}
}
