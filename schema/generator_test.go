package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAddress struct {
	City string `json:"city"`
	Zip  string `json:"zip,omitempty"`
}

type testPerson struct {
	Name    string       `json:"name" jsonschema:"description=full name,minLength=1"`
	Age     int          `json:"age" jsonschema:"minimum=0,maximum=150"`
	Email   string       `json:"email,omitempty" jsonschema:"format=email"`
	Mood    string       `json:"mood" jsonschema:"enum=happy,sad,neutral"`
	Address *testAddress `json:"address"`
	Tags    []string     `json:"tags"`
	Born    time.Time    `json:"born"`
	skip    string       //nolint:unused
	Ignored string       `json:"-"`
}

func TestFor_Struct(t *testing.T) {
	s, err := For[testPerson]()
	require.NoError(t, err)
	require.True(t, s.IsObject())

	assert.Equal(t, []string{"name", "age", "email", "mood", "address", "tags", "born"}, s.PropertyNames())
	assert.Equal(t, "name", s.FirstProperty())

	name := s.Properties["name"]
	assert.Equal(t, TypeString, name.Type)
	assert.Equal(t, "full name", name.Description)
	require.NotNil(t, name.MinLength)
	assert.Equal(t, 1, *name.MinLength)

	age := s.Properties["age"]
	assert.Equal(t, TypeInteger, age.Type)
	require.NotNil(t, age.Minimum)
	assert.Equal(t, float64(0), *age.Minimum)
	require.NotNil(t, age.Maximum)
	assert.Equal(t, float64(150), *age.Maximum)

	assert.Equal(t, FormatEmail, s.Properties["email"].Format)
	assert.Equal(t, []any{"happy", "sad", "neutral"}, s.Properties["mood"].Enum)

	assert.Equal(t, TypeArray, s.Properties["tags"].Type)
	assert.Equal(t, TypeString, s.Properties["tags"].Items.Type)

	assert.Equal(t, TypeString, s.Properties["born"].Type)
	assert.Equal(t, FormatDateTime, s.Properties["born"].Format)

	// Unexported and json:"-" fields are skipped.
	assert.NotContains(t, s.Properties, "skip")
	assert.NotContains(t, s.Properties, "Ignored")
}

func TestFor_RequiredRules(t *testing.T) {
	s, err := For[testPerson]()
	require.NoError(t, err)

	// Plain fields are required, omitempty and pointer fields are not.
	assert.Contains(t, s.Required, "name")
	assert.Contains(t, s.Required, "age")
	assert.Contains(t, s.Required, "tags")
	assert.NotContains(t, s.Required, "email")
	assert.NotContains(t, s.Required, "address")

	// Nested struct required rules apply independently.
	addr := s.Properties["address"]
	assert.Contains(t, addr.Required, "city")
	assert.NotContains(t, addr.Required, "zip")
}

func TestFor_ExplicitRequired(t *testing.T) {
	type withExplicit struct {
		Note *string `json:"note" jsonschema:"required"`
	}
	s, err := For[withExplicit]()
	require.NoError(t, err)
	assert.Contains(t, s.Required, "note")
}

type testNode struct {
	Value int       `json:"value"`
	Next  *testNode `json:"next"`
}

func TestFor_RecursiveType(t *testing.T) {
	s, err := For[testNode]()
	require.NoError(t, err)

	next := s.Properties["next"]
	require.NotNil(t, next)
	assert.Equal(t, TypeObject, next.Type)
	// The recursive reference collapses to a bare object.
	assert.Empty(t, next.Properties)
}

func TestFor_Map(t *testing.T) {
	s, err := For[map[string]int]()
	require.NoError(t, err)
	assert.True(t, s.IsObject())
	require.NotNil(t, s.AdditionalProperties)
	assert.True(t, *s.AdditionalProperties)
}

func TestFor_Primitive(t *testing.T) {
	s, err := For[string]()
	require.NoError(t, err)
	assert.Equal(t, TypeString, s.Type)
	assert.False(t, s.IsObject())
}

func TestGenerate_UnsupportedType(t *testing.T) {
	type withChan struct {
		C chan int `json:"c"`
	}
	_, err := For[withChan]()
	assert.Error(t, err)
}
