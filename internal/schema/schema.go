// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package schema describes configuration structs as JSON Schema or Markdown,
// using their yaml and docdesc struct tags.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
)

// JSONSchemaDraft is the dialect of generated schemas.
const JSONSchemaDraft = "https://json-schema.org/draft/2020-12/schema"

// ErrNotStruct is returned when the definition is not a struct or a pointer to one.
var ErrNotStruct = errors.New("expected struct type")

// Field represents a field in a JSON schema.
type Field struct {
	Name        string           `json:"name"`
	Type        string           `json:"type"`
	Description string           `json:"description,omitempty"`
	Required    bool             `json:"required,omitempty"`
	Properties  map[string]Field `json:"properties,omitempty"`
	Items       *Field           `json:"items,omitempty"`
	Enum        []string         `json:"enum,omitempty"`
	Default     any              `json:"default,omitempty"`
}

// Schema represents a complete JSON schema for a configuration document.
type Schema struct {
	Title       string
	Description string
	Fields      []Field // Ordered: first, then the rest lexically, then last
}

// Generator provides methods to generate schemas from struct definitions.
// Fields named in First are listed before the others and fields named in Last
// after them.
type Generator struct {
	First []string
	Last  []string
}

// NewGenerator creates a new Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate generates a schema from a definition struct.
func (g *Generator) Generate(title, description string, def any) (*Schema, error) {
	fields, err := g.extractFields(reflect.TypeOf(def))
	if err != nil {
		return nil, err
	}

	return &Schema{
		Title:       title,
		Description: description,
		Fields:      g.sortFields(fields),
	}, nil
}

// WriteJSONSchema writes s as an indented JSON Schema document.
func (s *Schema) WriteJSONSchema(w io.Writer) error {
	properties := make(map[string]any, len(s.Fields))

	required := make([]string, 0)

	for _, f := range s.Fields {
		properties[f.Name] = schemaFieldToProperty(f)

		if f.Required {
			required = append(required, f.Name)
		}
	}

	root := map[string]any{
		"$schema":              JSONSchemaDraft,
		"type":                 "object",
		"title":                s.Title,
		"description":          s.Description,
		"properties":           properties,
		"additionalProperties": false,
	}

	if len(required) > 0 {
		root["required"] = required
	}

	b, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return err //nolint:wrapcheck
	}

	_, err = w.Write(append(b, '\n'))

	return err //nolint:wrapcheck
}

// WriteMarkdownDoc writes s as a Markdown list of keys.
func (s *Schema) WriteMarkdownDoc(w io.Writer) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", s.Title)

	if s.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", s.Description)
	}

	sb.WriteString("## Keys\n\n")

	for _, f := range s.Fields {
		qualifier := f.Type
		if !f.Required {
			qualifier += ", optional"
		}

		fmt.Fprintf(&sb, "- **%s** (%s)", f.Name, qualifier)

		if f.Description != "" {
			fmt.Fprintf(&sb, ": %s", f.Description)
		}

		if len(f.Enum) > 0 {
			fmt.Fprintf(&sb, " One of `%s`.", strings.Join(f.Enum, "`, `"))
		}

		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())

	return err //nolint:wrapcheck
}

// extractFields extracts schema fields from a struct type using reflection.
func (g *Generator) extractFields(t reflect.Type) ([]Field, error) {
	if t == nil {
		return nil, fmt.Errorf("%w, got nil", ErrNotStruct)
	}

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w, got %s", ErrNotStruct, t.Kind())
	}

	var fields []Field

	for i := range t.NumField() {
		field := t.Field(i)

		// Embedded structs promote their fields even when the type is unexported.
		if field.Anonymous {
			embedded, err := g.extractFields(field.Type)
			if err != nil {
				return nil, err
			}

			fields = append(fields, embedded...)

			continue
		}

		if !field.IsExported() {
			continue
		}

		if f, ok := fieldToSchemaField(field); ok {
			fields = append(fields, f)
		}
	}

	return fields, nil
}

// fieldToSchemaField converts a struct field. Pointer and map fields are
// optional, as are fields tagged omitempty. The docenum tag lists allowed
// values separated by "|".
func fieldToSchemaField(field reflect.StructField) (Field, bool) {
	yamlTag := field.Tag.Get("yaml")
	if yamlTag == "-" {
		return Field{}, false
	}

	name := strings.ToLower(field.Name)
	if tagName, _, _ := strings.Cut(yamlTag, ","); tagName != "" {
		name = tagName
	}

	optional := strings.Contains(yamlTag, "omitempty") ||
		field.Type.Kind() == reflect.Ptr ||
		field.Type.Kind() == reflect.Map

	f := Field{
		Name:        name,
		Type:        getSchemaType(field.Type),
		Description: field.Tag.Get("docdesc"),
		Required:    !optional,
	}

	if enum := field.Tag.Get("docenum"); enum != "" {
		f.Enum = strings.Split(enum, "|")
	}

	if field.Type.Kind() == reflect.Map {
		f.Items = &Field{Type: getSchemaType(field.Type.Elem())}
	}

	return f, true
}

// getSchemaType converts a Go type to a JSON schema type.
func getSchemaType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return getSchemaType(t.Elem())
	default:
		return "string"
	}
}

// sortFields orders fields: First in the given order, the rest lexically, then Last.
func (g *Generator) sortFields(fields []Field) []Field {
	byName := make(map[string]Field, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	pinned := make(map[string]bool, len(g.First)+len(g.Last))
	result := make([]Field, 0, len(fields))

	for _, name := range g.First {
		if f, ok := byName[name]; ok {
			result = append(result, f)
			pinned[name] = true
		}
	}

	for _, name := range g.Last {
		pinned[name] = true
	}

	var others []Field

	for _, f := range fields {
		if !pinned[f.Name] {
			others = append(others, f)
		}
	}

	sort.Slice(others, func(i, j int) bool {
		return others[i].Name < others[j].Name
	})

	result = append(result, others...)

	for _, name := range g.Last {
		if f, ok := byName[name]; ok {
			result = append(result, f)
		}
	}

	return result
}

// schemaFieldToProperty converts a Field to a JSON schema property.
func schemaFieldToProperty(field Field) map[string]any {
	prop := map[string]any{
		"type": field.Type,
	}

	if field.Description != "" {
		prop["description"] = field.Description
	}

	if field.Default != nil {
		prop["default"] = field.Default
	}

	if len(field.Enum) > 0 {
		prop["enum"] = field.Enum
	}

	if field.Type == "array" && field.Items != nil {
		prop["items"] = schemaFieldToProperty(*field.Items)
	}

	if field.Type == "object" && field.Items != nil {
		prop["additionalProperties"] = schemaFieldToProperty(*field.Items)
	}

	if field.Type == "object" && len(field.Properties) > 0 {
		properties := make(map[string]any, len(field.Properties))
		for name, sub := range field.Properties {
			properties[name] = schemaFieldToProperty(sub)
		}

		prop["properties"] = properties
	}

	return prop
}
