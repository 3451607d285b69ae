package persistence

import (
	"reflect"
	"strings"

	"gorm.io/gorm/schema"
)

var naming = schema.NamingStrategy{}

// Changes turns an update payload into the columns it sets. Only non-nil
// pointer, map and slice fields count, so absent fields keep their value
func Changes(payload interface{}) map[string]interface{} {
	out := map[string]interface{}{}
	if payload == nil {
		return out
	}
	if m, ok := payload.(map[string]interface{}); ok {
		for k, v := range m {
			out[k] = v
		}
		return out
	}

	v := reflect.ValueOf(payload)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return out
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return out
	}
	collect(v, out)
	return out
}

func collect(v reflect.Value, out map[string]interface{}) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		fv := v.Field(i)
		if f.Anonymous && fv.Kind() == reflect.Struct {
			collect(fv, out)
			continue
		}
		column, skip := columnOf(f)
		if skip {
			continue
		}
		switch fv.Kind() {
		case reflect.Ptr:
			if !fv.IsNil() {
				out[column] = fv.Elem().Interface()
			}
		case reflect.Map, reflect.Slice:
			if !fv.IsNil() {
				out[column] = fv.Interface()
			}
		}
	}
}

func columnOf(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("gorm")
	if tag == "-" {
		return "", true
	}
	for _, part := range strings.Split(tag, ";") {
		if strings.HasPrefix(part, "column:") {
			return strings.TrimPrefix(part, "column:"), false
		}
	}
	return naming.ColumnName("", f.Name), false
}
