package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func personSchema() *JSONSchema {
	return NewObjectSchema().
		AddProperty("name", NewStringSchema()).
		AddProperty("age", NewIntegerSchema()).
		AddRequired("name", "age")
}

func TestSafeValidate_Valid(t *testing.T) {
	value, verrs := personSchema().SafeValidate([]byte(`{"name":"Al","age":30}`))
	require.Nil(t, verrs)

	obj, ok := value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Al", obj["name"])
	assert.Equal(t, float64(30), obj["age"])
}

func TestSafeValidate_MissingRequired(t *testing.T) {
	_, verrs := personSchema().SafeValidate([]byte(`{"name":"Al"}`))
	require.NotNil(t, verrs)
	require.Len(t, verrs.Errors, 1)
	assert.Equal(t, "age", verrs.Errors[0].Path)
	assert.Equal(t, "required field is missing", verrs.Errors[0].Message)
}

func TestSafeValidate_TypeMismatch(t *testing.T) {
	_, verrs := personSchema().SafeValidate([]byte(`{"name":"Al","age":"thirty"}`))
	require.NotNil(t, verrs)
	assert.Equal(t, "age", verrs.Errors[0].Path)
	assert.Contains(t, verrs.Errors[0].Message, "expected integer")
}

func TestSafeValidate_NestedPath(t *testing.T) {
	s := NewObjectSchema().
		AddProperty("owner", NewObjectSchema().
			AddProperty("email", NewStringSchema().WithFormat(FormatEmail)).
			AddRequired("email")).
		AddRequired("owner")

	_, verrs := s.SafeValidate([]byte(`{"owner":{"email":"not-an-email"}}`))
	require.NotNil(t, verrs)
	assert.Equal(t, "owner.email", verrs.Errors[0].Path)
	assert.Contains(t, verrs.Errors[0].Message, "format")
}

func TestSafeValidate_ArrayItems(t *testing.T) {
	s := NewObjectSchema().
		AddProperty("tags", NewArraySchema(NewStringSchema())).
		AddRequired("tags")

	_, verrs := s.SafeValidate([]byte(`{"tags":["ok",7]}`))
	require.NotNil(t, verrs)
	assert.Equal(t, "tags[1]", verrs.Errors[0].Path)
}

func TestSafeValidate_Enum(t *testing.T) {
	s := NewObjectSchema().
		AddProperty("label", NewEnumSchema("positive", "negative", "neutral")).
		AddRequired("label")

	_, verrs := s.SafeValidate([]byte(`{"label":"positive"}`))
	assert.Nil(t, verrs)

	_, verrs = s.SafeValidate([]byte(`{"label":"angry"}`))
	require.NotNil(t, verrs)
	assert.Equal(t, "label", verrs.Errors[0].Path)
}

func TestSafeValidate_NumericBounds(t *testing.T) {
	s := NewObjectSchema().
		AddProperty("score", NewNumberSchema().WithRange(0, 1)).
		AddRequired("score")

	_, verrs := s.SafeValidate([]byte(`{"score":0.5}`))
	assert.Nil(t, verrs)

	_, verrs = s.SafeValidate([]byte(`{"score":1.5}`))
	require.NotNil(t, verrs)
	assert.Contains(t, verrs.Errors[0].Message, "exceeds maximum")
}

func TestSafeValidate_AdditionalPropertiesDisallowed(t *testing.T) {
	disallow := false
	s := personSchema()
	s.AdditionalProperties = &disallow

	_, verrs := s.SafeValidate([]byte(`{"name":"Al","age":30,"extra":true}`))
	require.NotNil(t, verrs)
	assert.Equal(t, "extra", verrs.Errors[0].Path)
	assert.Equal(t, "additional property not allowed", verrs.Errors[0].Message)
}

func TestSafeValidate_InvalidJSON(t *testing.T) {
	_, verrs := personSchema().SafeValidate([]byte(`{name: Al}`))
	require.NotNil(t, verrs)
	assert.Contains(t, verrs.Errors[0].Message, "invalid JSON")
}

func TestSafeValidate_MultipleIssues(t *testing.T) {
	_, verrs := personSchema().SafeValidate([]byte(`{}`))
	require.NotNil(t, verrs)
	assert.Len(t, verrs.Errors, 2)
	assert.Contains(t, verrs.Error(), "2 errors")
}

func TestParseStrict(t *testing.T) {
	value, err := personSchema().ParseStrict([]byte(`{"name":"Al","age":30}`))
	require.NoError(t, err)
	assert.NotNil(t, value)

	_, err = personSchema().ParseStrict([]byte(`{"name":"Al"}`))
	require.Error(t, err)
	// Strict errors carry only the first violation, not the accumulated list.
	assert.Contains(t, err.Error(), "strict validation failed")
	assert.Contains(t, err.Error(), "age")
}
