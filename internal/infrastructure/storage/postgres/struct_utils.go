package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns returns the column names of T's "db" tags in field order.
// Embedded structs contribute their columns in place.
//
// Usage:
//
//	columns := ExtractDBColumns[receipt.Header]()
//	// ["id", "user_id", "invoice_number", "subtotal", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	return columnsOf(reflect.TypeOf(zero))
}

func columnsOf(t reflect.Type) []string {
	meta := metadataFor(t)
	cols := make([]string, 0, len(meta.fields))
	for _, f := range meta.fields {
		if f.embedded {
			cols = append(cols, columnsOf(t.Field(f.index).Type)...)
			continue
		}
		cols = append(cols, f.column)
	}
	return cols
}

type fieldInfo struct {
	index    int
	column   string
	embedded bool
}

type typeMetadata struct {
	fields []fieldInfo
}

// map[reflect.Type]*typeMetadata
var typeCache sync.Map

func metadataFor(t reflect.Type) *typeMetadata {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{}
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.Anonymous {
				meta.fields = append(meta.fields, fieldInfo{index: i, embedded: true})
				continue
			}
			tag := field.Tag.Get("db")
			if tag == "" || tag == "-" {
				continue
			}
			meta.fields = append(meta.fields, fieldInfo{index: i, column: tag})
		}
	}

	actual, _ := typeCache.LoadOrStore(t, meta)
	return actual.(*typeMetadata)
}

// StructToMap converts a struct to a column map using its "db" tags.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := metadataFor(rv.Type())
	res := make(map[string]any, len(meta.fields))
	for _, f := range meta.fields {
		if f.embedded {
			for k, val := range StructToMap(rv.Field(f.index).Interface()) {
				res[k] = val
			}
			continue
		}
		res[f.column] = rv.Field(f.index).Interface()
	}
	return res
}

// StructValues returns the values of v for columns, in that order.
// It feeds COPY sources and multi-row inserts.
func StructValues(v any, columns []string) []any {
	m := StructToMap(v)
	vals := make([]any, len(columns))
	for i, c := range columns {
		vals[i] = m[c]
	}
	return vals
}
