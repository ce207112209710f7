//
// Copyright (C) 2025 InsightHR. All rights reserved.
//
// hragent is licensed under the Apache License Version 2.0.
//

package tool

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateJSONSchemaKinds(t *testing.T) {
	type nested struct {
		Flag bool `json:"flag"`
	}
	type input struct {
		Name     string            `json:"name" description:"Display name."`
		Count    int               `json:"count,omitempty"`
		Ratio    float64           `json:"ratio"`
		Tags     []string          `json:"tags,omitempty"`
		Labels   map[string]string `json:"labels,omitempty"`
		Inner    nested            `json:"inner"`
		Optional *string           `json:"optional,omitempty"`
		Ignored  string            `json:"-"`
		hidden   string
	}
	_ = input{hidden: ""}

	schema := GenerateJSONSchema(reflect.TypeOf(input{}))
	require.Equal(t, "object", schema.Type)

	assert.Equal(t, "string", schema.Properties["name"].Type)
	assert.Equal(t, "Display name.", schema.Properties["name"].Description)
	assert.Equal(t, "integer", schema.Properties["count"].Type)
	assert.Equal(t, "number", schema.Properties["ratio"].Type)
	assert.Equal(t, "array", schema.Properties["tags"].Type)
	assert.Equal(t, "string", schema.Properties["tags"].Items.Type)
	assert.Equal(t, "object", schema.Properties["labels"].Type)
	assert.Equal(t, "object", schema.Properties["inner"].Type)
	assert.Equal(t, "boolean", schema.Properties["inner"].Properties["flag"].Type)
	assert.Equal(t, "string", schema.Properties["optional"].Type)

	assert.NotContains(t, schema.Properties, "Ignored")
	assert.NotContains(t, schema.Properties, "hidden")

	// Pointer fields and omitempty fields are optional.
	assert.ElementsMatch(t, []string{"name", "ratio", "inner"}, schema.Required)
}

func TestGenerateJSONSchemaEmptyStruct(t *testing.T) {
	schema := GenerateJSONSchema(reflect.TypeOf(struct{}{}))
	assert.Equal(t, "object", schema.Type)
	assert.Empty(t, schema.Required)
}

func TestGenerateJSONSchemaNil(t *testing.T) {
	schema := GenerateJSONSchema(nil)
	assert.Equal(t, "object", schema.Type)
}
