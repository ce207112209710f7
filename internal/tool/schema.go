//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

// Package tool contains internal helpers shared by tool implementations.
package tool

import (
	"reflect"
	"strings"

	"github.com/insighthr/hragent/tool"
)

// GenerateJSONSchema generates a basic JSON schema from a reflect.Type.
// Field names follow the json tag; fields tagged with a description tag get
// the description copied into the schema. Non-pointer fields without
// omitempty are required.
func GenerateJSONSchema(t reflect.Type) *tool.Schema {
	if t == nil {
		return &tool.Schema{Type: "object"}
	}
	switch t.Kind() {
	case reflect.Struct:
		schema := &tool.Schema{Type: "object", Properties: map[string]*tool.Schema{}}
		var required []string
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name, omitEmpty, skip := parseJSONTag(field)
			if skip {
				continue
			}
			fieldSchema := fieldSchema(field.Type)
			if desc := field.Tag.Get("description"); desc != "" {
				fieldSchema.Description = desc
			}
			schema.Properties[name] = fieldSchema
			if field.Type.Kind() != reflect.Ptr && !omitEmpty {
				required = append(required, name)
			}
		}
		schema.Required = required
		return schema
	case reflect.Ptr:
		return GenerateJSONSchema(t.Elem())
	default:
		return fieldSchema(t)
	}
}

func parseJSONTag(field reflect.StructField) (name string, omitEmpty, skip bool) {
	name = field.Name
	jsonTag := field.Tag.Get("json")
	if jsonTag == "-" {
		return "", false, true
	}
	if jsonTag == "" {
		return name, false, false
	}
	if commaIdx := strings.Index(jsonTag, ","); commaIdx != -1 {
		if jsonTag[:commaIdx] != "" {
			name = jsonTag[:commaIdx]
		}
		omitEmpty = strings.Contains(jsonTag[commaIdx:], "omitempty")
	} else {
		name = jsonTag
	}
	return name, omitEmpty, false
}

func fieldSchema(t reflect.Type) *tool.Schema {
	switch t.Kind() {
	case reflect.String:
		return &tool.Schema{Type: "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &tool.Schema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &tool.Schema{Type: "number"}
	case reflect.Bool:
		return &tool.Schema{Type: "boolean"}
	case reflect.Slice, reflect.Array:
		return &tool.Schema{Type: "array", Items: fieldSchema(t.Elem())}
	case reflect.Map:
		return &tool.Schema{Type: "object", AdditionalProperties: fieldSchema(t.Elem())}
	case reflect.Ptr:
		return fieldSchema(t.Elem())
	case reflect.Struct:
		return GenerateJSONSchema(t)
	default:
		return &tool.Schema{Type: "object"}
	}
}
