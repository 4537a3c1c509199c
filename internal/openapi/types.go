package openapi

import (
	"reflect"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// TypeMapping is an OpenAPI type/format pair.
type TypeMapping struct {
	Type   string // OpenAPI type: string, integer, number, boolean
	Format string // OpenAPI format: int32, int64, double, etc.
}

// MapGoKind maps a Go field kind to its OpenAPI type. Unknown kinds map to
// string.
func MapGoKind(k reflect.Kind) TypeMapping {
	switch k {
	case reflect.Int, reflect.Int32, reflect.Int16, reflect.Int8,
		reflect.Uint, reflect.Uint32, reflect.Uint16, reflect.Uint8:
		return TypeMapping{"integer", "int32"}
	case reflect.Int64, reflect.Uint64:
		return TypeMapping{"integer", "int64"}
	case reflect.Float32:
		return TypeMapping{"number", "float"}
	case reflect.Float64:
		return TypeMapping{"number", "double"}
	case reflect.Bool:
		return TypeMapping{"boolean", ""}
	default:
		return TypeMapping{"string", ""}
	}
}

// structSchema builds an object schema from v's exported json-tagged fields.
// Fields with a "required" validate rule are listed as required.
func structSchema(v interface{}) *openapi3.SchemaRef {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	schema := &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: openapi3.Schemas{},
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" || !f.IsExported() {
			continue
		}

		var prop *openapi3.Schema
		if f.Type.Kind() == reflect.Slice {
			m := MapGoKind(f.Type.Elem().Kind())
			prop = &openapi3.Schema{Type: &openapi3.Types{"array"}, Items: &openapi3.SchemaRef{Value: columnTypeSchema(m)}}
		} else {
			prop = columnTypeSchema(MapGoKind(f.Type.Kind()))
		}
		schema.Properties[name] = &openapi3.SchemaRef{Value: prop}

		for _, rule := range strings.Split(f.Tag.Get("validate"), ",") {
			if rule == "required" {
				schema.Required = append(schema.Required, name)
			}
		}
	}
	return &openapi3.SchemaRef{Value: schema}
}

func columnTypeSchema(m TypeMapping) *openapi3.Schema {
	s := &openapi3.Schema{Type: &openapi3.Types{m.Type}}
	if m.Format != "" {
		s.Format = m.Format
	}
	return s
}
