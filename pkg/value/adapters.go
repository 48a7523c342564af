package value

import (
	"reflect"
	"sort"
	"time"
)

// FromAny adapts an arbitrary host Go value into a Value. It is the
// "closed set of built-in adapters" named in DESIGN.md: primitives map
// directly, slices/arrays become Sequences, maps become Mappings
// (key-sorted for determinism when the source map has no inherent order),
// and structs become Mappings keyed by exported field name (or by a
// `tpl:"name"` struct tag when present), so a caller can hand a host
// struct straight into a render context and have `.Field` attribute
// lookups work.
func FromAny(x any) Value {
	if x == nil {
		return None
	}
	if v, ok := x.(Value); ok {
		return v
	}
	if v, ok := x.(*Value); ok {
		if v == nil {
			return None
		}
		return *v
	}
	switch t := x.(type) {
	case bool:
		return NewBool(t)
	case string:
		return NewString(t)
	case int:
		return NewNumber(float64(t))
	case int8:
		return NewNumber(float64(t))
	case int16:
		return NewNumber(float64(t))
	case int32:
		return NewNumber(float64(t))
	case int64:
		return NewNumber(float64(t))
	case uint:
		return NewNumber(float64(t))
	case uint8:
		return NewNumber(float64(t))
	case uint16:
		return NewNumber(float64(t))
	case uint32:
		return NewNumber(float64(t))
	case uint64:
		return NewNumber(float64(t))
	case float32:
		return NewNumber(float64(t))
	case float64:
		return NewNumber(t)
	case time.Time:
		return NewDateTime(t)
	case time.Duration:
		return NewDuration(t)
	case []Value:
		return NewSequence(t)
	case []Pair:
		return NewMapping(t)
	case map[string]any:
		return mapToValue(t)
	}

	rv := reflect.ValueOf(x)
	return fromReflect(rv)
}

func fromReflect(rv reflect.Value) Value {
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return None
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Bool:
		return NewBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewNumber(float64(rv.Int()))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return NewNumber(float64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return NewNumber(rv.Float())
	case reflect.String:
		return NewString(rv.String())
	case reflect.Slice, reflect.Array:
		n := rv.Len()
		elems := make([]Value, n)
		for i := 0; i < n; i++ {
			elems[i] = fromReflect(rv.Index(i))
		}
		return NewSequence(elems)
	case reflect.Map:
		keys := rv.MapKeys()
		skeys := make([]string, len(keys))
		for i, k := range keys {
			skeys[i] = toKeyString(k)
		}
		sort.Strings(skeys)
		byKey := make(map[string]reflect.Value, len(keys))
		for _, k := range keys {
			byKey[toKeyString(k)] = rv.MapIndex(k)
		}
		entries := make([]Pair, len(skeys))
		for i, k := range skeys {
			entries[i] = Pair{Key: k, Value: fromReflect(byKey[k])}
		}
		return NewMapping(entries)
	case reflect.Struct:
		return structToValue(rv)
	default:
		return None
	}
}

func toKeyString(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	return FromAny(k.Interface()).String()
}

func structToValue(rv reflect.Value) Value {
	rt := rv.Type()
	var entries []Pair
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if f.PkgPath != "" { // unexported
			continue
		}
		name := f.Name
		if tag := f.Tag.Get("tpl"); tag != "" {
			if tag == "-" {
				continue
			}
			name = tag
		}
		entries = append(entries, Pair{Key: name, Value: fromReflect(rv.Field(i))})
	}
	return NewMapping(entries)
}

func mapToValue(m map[string]any) Value {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entries := make([]Pair, len(keys))
	for i, k := range keys {
		entries[i] = Pair{Key: k, Value: FromAny(m[k])}
	}
	return NewMapping(entries)
}
