package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Generator builds a JSON Schema from a Go type using reflection.
type Generator struct {
	// visited tracks struct types on the current path to break recursion.
	visited map[reflect.Type]bool
}

// NewGenerator creates a new Generator instance.
func NewGenerator() *Generator {
	return &Generator{visited: make(map[reflect.Type]bool)}
}

// For generates a JSON Schema for the type parameter T. T must resolve to an
// object-shaped schema (a struct or a map) to be usable as a structured
// output contract.
func For[T any]() (*JSONSchema, error) {
	var zero T
	return NewGenerator().Generate(reflect.TypeOf(zero))
}

// Generate builds a JSON Schema from a Go type. It supports structs, slices,
// maps, pointers, and primitives.
//
// Struct fields use the "json" tag for naming and the "jsonschema" tag for
// constraints: required, description=..., enum=a,b,c, minimum=0, maximum=10,
// minLength=1, maxLength=100, pattern=..., format=email.
//
// Fields without an omitempty json option and without a pointer type are
// marked required by default; jsonschema:"required" forces it explicitly.
func (g *Generator) Generate(t reflect.Type) (*JSONSchema, error) {
	g.visited = make(map[reflect.Type]bool)
	return g.generate(t)
}

func (g *Generator) generate(t reflect.Type) (*JSONSchema, error) {
	if t == nil {
		return nil, fmt.Errorf("cannot generate schema for nil type")
	}

	if t.Kind() == reflect.Ptr {
		return g.generate(t.Elem())
	}

	if t == reflect.TypeOf(time.Time{}) {
		return NewStringSchema().WithFormat(FormatDateTime), nil
	}

	if g.visited[t] {
		// Recursive types collapse to a bare object placeholder.
		return &JSONSchema{Type: TypeObject}, nil
	}

	switch t.Kind() {
	case reflect.String:
		return NewStringSchema(), nil
	case reflect.Bool:
		return NewBooleanSchema(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return NewIntegerSchema(), nil
	case reflect.Float32, reflect.Float64:
		return NewNumberSchema(), nil
	case reflect.Slice, reflect.Array:
		elem, err := g.generate(t.Elem())
		if err != nil {
			return nil, fmt.Errorf("failed to generate schema for array element: %w", err)
		}
		return NewArraySchema(elem), nil
	case reflect.Map:
		// Map keys are open-ended: an object with additional properties
		// allowed and no declared property set.
		s := NewObjectSchema()
		allowed := true
		s.AdditionalProperties = &allowed
		return s, nil
	case reflect.Struct:
		return g.generateStruct(t)
	case reflect.Interface:
		// any maps to an unconstrained schema.
		return &JSONSchema{}, nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", t.Kind())
	}
}

func (g *Generator) generateStruct(t reflect.Type) (*JSONSchema, error) {
	g.visited[t] = true
	defer func() { g.visited[t] = false }()

	s := NewObjectSchema()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		fieldName, omitempty := jsonFieldName(field)
		if fieldName == "-" {
			continue
		}

		fieldSchema, err := g.generate(field.Type)
		if err != nil {
			return nil, fmt.Errorf("failed to generate schema for field %s: %w", field.Name, err)
		}
		if err := applySchemaTag(fieldSchema, field); err != nil {
			return nil, fmt.Errorf("failed to apply jsonschema tag for field %s: %w", field.Name, err)
		}

		if isFieldRequired(field, omitempty) {
			s.Required = append(s.Required, fieldName)
		}
		s.AddProperty(fieldName, fieldSchema)
	}
	return s, nil
}

func jsonFieldName(field reflect.StructField) (name string, omitempty bool) {
	jsonTag := field.Tag.Get("json")
	if jsonTag == "" {
		return field.Name, false
	}
	parts := strings.Split(jsonTag, ",")
	name = parts[0]
	if name == "" {
		name = field.Name
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty
}

func isFieldRequired(field reflect.StructField, omitempty bool) bool {
	options := parseTagOptions(field.Tag.Get("jsonschema"))
	if _, ok := options["required"]; ok {
		return true
	}
	if omitempty || field.Type.Kind() == reflect.Ptr {
		return false
	}
	return true
}

func applySchemaTag(s *JSONSchema, field reflect.StructField) error {
	tag := field.Tag.Get("jsonschema")
	if tag == "" {
		return nil
	}
	options := parseTagOptions(tag)

	if desc, ok := options["description"]; ok {
		s.Description = desc
	}
	if enumStr, ok := options["enum"]; ok {
		values := strings.Split(enumStr, ",")
		s.Enum = make([]any, len(values))
		for i, v := range values {
			s.Enum[i] = strings.TrimSpace(v)
		}
	}
	if minLen, ok := options["minLength"]; ok {
		v, err := strconv.Atoi(minLen)
		if err != nil {
			return fmt.Errorf("invalid minLength %q", minLen)
		}
		s.MinLength = &v
	}
	if maxLen, ok := options["maxLength"]; ok {
		v, err := strconv.Atoi(maxLen)
		if err != nil {
			return fmt.Errorf("invalid maxLength %q", maxLen)
		}
		s.MaxLength = &v
	}
	if pattern, ok := options["pattern"]; ok {
		s.Pattern = pattern
	}
	if format, ok := options["format"]; ok {
		s.Format = StringFormat(format)
	}
	if min, ok := options["minimum"]; ok {
		v, err := strconv.ParseFloat(min, 64)
		if err != nil {
			return fmt.Errorf("invalid minimum %q", min)
		}
		s.Minimum = &v
	}
	if max, ok := options["maximum"]; ok {
		v, err := strconv.ParseFloat(max, 64)
		if err != nil {
			return fmt.Errorf("invalid maximum %q", max)
		}
		s.Maximum = &v
	}
	return nil
}

// parseTagOptions splits "required,description=...,enum=a,b,c" into a map.
// Values may contain commas only for enum, which consumes the remainder after
// its key; other options must not embed commas.
func parseTagOptions(tag string) map[string]string {
	options := make(map[string]string)
	if tag == "" {
		return options
	}

	parts := strings.Split(tag, ",")
	for i := 0; i < len(parts); i++ {
		part := parts[i]
		key, value, hasValue := strings.Cut(part, "=")
		if !hasValue {
			options[key] = ""
			continue
		}
		if key == "enum" {
			// enum swallows every remaining comma-separated token.
			options[key] = strings.Join(append([]string{value}, parts[i+1:]...), ",")
			return options
		}
		options[key] = value
	}
	return options
}
