package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns returns the column names from T's "db" tags, walking
// embedded structs (entity.Document, lineitem.Totals) in field order.
//
//	columns := ExtractDBColumns[order.Order]()
//	// ["id", "version", "created_at", ..., "code", "seq", ..., "customer_id", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	meta := metadataOf(reflect.TypeOf(zero))
	cols := make([]string, 0, len(meta.fields))
	for _, f := range meta.fields {
		cols = append(cols, f.column)
	}
	return cols
}

type fieldInfo struct {
	index  []int
	column string
}

type typeMetadata struct {
	fields []fieldInfo
}

var typeCache sync.Map // map[reflect.Type]*typeMetadata

func metadataOf(t reflect.Type) *typeMetadata {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := typeCache.Load(t); ok {
		return cached.(*typeMetadata)
	}

	meta := &typeMetadata{}
	if t.Kind() == reflect.Struct {
		collectFields(t, nil, meta)
	}
	typeCache.Store(t, meta)
	return meta
}

func collectFields(t reflect.Type, prefix []int, meta *typeMetadata) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		tag := field.Tag.Get("db")
		if field.Anonymous && tag == "" && field.Type.Kind() == reflect.Struct {
			collectFields(field.Type, index, meta)
			continue
		}
		if tag == "" || tag == "-" || !field.IsExported() {
			continue
		}
		meta.fields = append(meta.fields, fieldInfo{index: index, column: tag})
	}
}

// StructToMap converts a struct to a column map using "db" tags.
func StructToMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	meta := metadataOf(rv.Type())
	res := make(map[string]any, len(meta.fields))
	for _, f := range meta.fields {
		res[f.column] = rv.FieldByIndex(f.index).Interface()
	}
	return res
}

// StructValues returns the values of v for columns, in order.
func StructValues(v any, columns []string) []any {
	m := StructToMap(v)
	out := make([]any, len(columns))
	for i, col := range columns {
		out[i] = m[col]
	}
	return out
}
