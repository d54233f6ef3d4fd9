package record

import (
	"reflect"
	"strconv"
	"time"
)

// Difference is one path-addressed change between two record snapshots.
// InitialValue/Value are nil when the path is absent on that side.
type Difference struct {
	Path         string `json:"path" bson:"path"`
	InitialValue any    `json:"initialValue" bson:"initialValue"`
	Value        any    `json:"value" bson:"value"`
}

// metadataKeys fixes the comparison order of metadata fields; it mirrors the
// stored document key order.
var metadataKeys = []struct {
	key string
	get func(Metadata) any
}{
	{"label", func(m Metadata) any { return m.Label }},
	{"entity", func(m Metadata) any { return m.Entity }},
	{"authorization", func(m Metadata) any { return m.Authorization }},
	{"created_at", func(m Metadata) any { return m.CreatedAt }},
	{"created_by", func(m Metadata) any { return m.CreatedBy }},
	{"updated_at", func(m Metadata) any { return m.UpdatedAt }},
	{"updated_by", func(m Metadata) any { return m.UpdatedBy }},
	{"description", func(m Metadata) any { return m.Description }},
}

// Diff lists the structural differences between two snapshots of a record,
// depth-first and in deterministic order: _id, then metadata keys in declared
// order, then values by index.
//
// Values are compared positionally, not by label. Reordering fields therefore
// reports per-index differences even though the set is unchanged; this is the
// documented policy, kept for compatibility with stored suggestions and
// history. When one side has fewer values, the missing entries compare
// against nil and count as differences.
//
// Diffing a record against itself or a field-by-field clone yields no entries.
func Diff(before, after Record, pathPrefix string) []Difference {
	eq := newEquality()
	var diffs []Difference

	if before.ID != after.ID {
		diffs = append(diffs, Difference{
			Path:         pathPrefix + "._id",
			InitialValue: before.ID,
			Value:        after.ID,
		})
	}

	for _, mk := range metadataKeys {
		oldV, newV := mk.get(before.Metadata), mk.get(after.Metadata)
		if !eq.deepEqual(oldV, newV) {
			diffs = append(diffs, Difference{
				Path:         pathPrefix + ".metadata." + mk.key,
				InitialValue: oldV,
				Value:        newV,
			})
		}
	}

	n := len(before.Values)
	if len(after.Values) > n {
		n = len(after.Values)
	}
	for i := 0; i < n; i++ {
		var oldV, newV any
		if i < len(before.Values) {
			oldV = before.Values[i].Value
		}
		if i < len(after.Values) {
			newV = after.Values[i].Value
		}
		if !eq.deepEqual(oldV, newV) {
			diffs = append(diffs, Difference{
				Path:         pathPrefix + ".values[" + strconv.Itoa(i) + "].value",
				InitialValue: oldV,
				Value:        newV,
			})
		}
	}

	return diffs
}

// DeepEqual is the diff engine's structural equality, exposed for consumers
// that compare single values (suggestion no-op detection). Arrays compare by
// length and per-index, objects by key set and per-key, primitives strictly;
// shared or cyclic substructure terminates via the memoized-pair guard.
func DeepEqual(a, b any) bool {
	return newEquality().deepEqual(a, b)
}

// visit keys the memoized-pair guard. Two nodes are identified by their data
// pointers; re-encountering a pair already under comparison short-circuits to
// equal instead of looping on cyclic or shared substructure.
type visit struct {
	a1, a2 uintptr
	typ    reflect.Type
}

type equality struct {
	seen map[visit]bool
}

func newEquality() *equality {
	return &equality{seen: make(map[visit]bool)}
}

func (e *equality) deepEqual(a, b any) bool {
	return e.valueEqual(reflect.ValueOf(a), reflect.ValueOf(b))
}

var timeType = reflect.TypeOf(time.Time{})

func (e *equality) valueEqual(v1, v2 reflect.Value) bool {
	if !v1.IsValid() || !v2.IsValid() {
		return v1.IsValid() == v2.IsValid()
	}

	for v1.Kind() == reflect.Interface {
		if v1.IsNil() {
			return !v2.IsValid() || (v2.Kind() == reflect.Interface && v2.IsNil())
		}
		v1 = v1.Elem()
	}
	for v2.Kind() == reflect.Interface {
		if v2.IsNil() {
			return false
		}
		v2 = v2.Elem()
	}

	// Document numbers decode as float64, int32 or int64 depending on the
	// codec; they are one number type as far as comparison is concerned.
	if isNumeric(v1) && isNumeric(v2) {
		return numValue(v1) == numValue(v2)
	}

	if v1.Type() != v2.Type() {
		return false
	}

	switch v1.Kind() {
	case reflect.String:
		return v1.String() == v2.String()
	case reflect.Bool:
		return v1.Bool() == v2.Bool()
	case reflect.Slice:
		if v1.Len() != v2.Len() {
			return false
		}
		if v1.Len() == 0 {
			return true
		}
		if e.remembered(v1, v2) {
			return true
		}
		for i := 0; i < v1.Len(); i++ {
			if !e.valueEqual(v1.Index(i), v2.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Map:
		if v1.Len() != v2.Len() {
			return false
		}
		if v1.Len() == 0 {
			return true
		}
		if e.remembered(v1, v2) {
			return true
		}
		for _, k := range v1.MapKeys() {
			e1, e2 := v1.MapIndex(k), v2.MapIndex(k)
			if !e2.IsValid() || !e.valueEqual(e1, e2) {
				return false
			}
		}
		return true
	case reflect.Ptr:
		if v1.IsNil() || v2.IsNil() {
			return v1.IsNil() == v2.IsNil()
		}
		if v1.Pointer() == v2.Pointer() {
			return true
		}
		if e.remembered(v1, v2) {
			return true
		}
		return e.valueEqual(v1.Elem(), v2.Elem())
	case reflect.Struct:
		if v1.Type() == timeType {
			t1 := v1.Interface().(time.Time)
			t2 := v2.Interface().(time.Time)
			return t1.Equal(t2)
		}
		for i := 0; i < v1.NumField(); i++ {
			if !e.valueEqual(v1.Field(i), v2.Field(i)) {
				return false
			}
		}
		return true
	default:
		return v1.Interface() == v2.Interface()
	}
}

// remembered records the pair as compared-equal-so-far, reciprocally, and
// reports whether it was already being compared.
func (e *equality) remembered(v1, v2 reflect.Value) bool {
	k := visit{a1: v1.Pointer(), a2: v2.Pointer(), typ: v1.Type()}
	if e.seen[k] {
		return true
	}
	e.seen[k] = true
	e.seen[visit{a1: v2.Pointer(), a2: v1.Pointer(), typ: v1.Type()}] = true
	return false
}

func isNumeric(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func numValue(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	default:
		return float64(v.Int())
	}
}
