package completion

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/schemaflow/schema"
	"github.com/BaSui01/schemaflow/testutil/mocks"
	"github.com/BaSui01/schemaflow/types"
)

func pointSchema() *schema.JSONSchema {
	return schema.NewObjectSchema().
		AddProperty("x", schema.NewNumberSchema()).
		AddRequired("x")
}

func TestComposeRequest_Schemaless(t *testing.T) {
	comp, err := composeRequest(Options{SystemMessage: Text("be terse")}, true)
	require.NoError(t, err)
	assert.Equal(t, "be terse", comp.systemMessage)
	assert.Empty(t, comp.tools)
	assert.Empty(t, comp.responsePrefix)
	assert.Empty(t, comp.schemaInstructions)
}

func TestComposeRequest_FunctionCalling(t *testing.T) {
	comp, err := composeRequest(Options{Schema: pointSchema()}, true)
	require.NoError(t, err)

	require.Len(t, comp.tools, 1)
	assert.Equal(t, structuredToolName, comp.tools[0].Name)
	assert.Contains(t, string(comp.tools[0].Parameters), `"x"`)
	assert.Equal(t, structuredToolName, comp.toolChoice)

	// Function-calling delivery uses no instruction channel.
	assert.Empty(t, comp.schemaInstructions)
	assert.Empty(t, comp.responsePrefix)
}

func TestComposeRequest_TextOnly(t *testing.T) {
	comp, err := composeRequest(Options{
		Schema:        pointSchema(),
		SystemMessage: Text("  be terse  "),
	}, false)
	require.NoError(t, err)

	assert.Empty(t, comp.tools)
	assert.Contains(t, comp.schemaInstructions, `"x"`)
	assert.Equal(t, `{ "x": `, comp.responsePrefix)

	assert.True(t, strings.HasPrefix(comp.systemMessage, "Respond only in JSON conforming to this schema:"))
	assert.Contains(t, comp.systemMessage, "be terse")
	assert.Equal(t, comp.systemMessage, strings.TrimSpace(comp.systemMessage))
}

func TestComposeRequest_LazySystemMessage(t *testing.T) {
	comp, err := composeRequest(Options{
		SystemMessage: TextFunc(func() string { return "produced" }),
	}, false)
	require.NoError(t, err)
	assert.Equal(t, "produced", comp.systemMessage)
}

func TestComposeRequest_NonObjectSchema(t *testing.T) {
	for _, s := range []*schema.JSONSchema{
		schema.NewStringSchema(),
		schema.NewArraySchema(schema.NewStringSchema()),
		schema.NewNumberSchema(),
	} {
		_, err := composeRequest(Options{Schema: s}, true)
		require.Error(t, err)
		assert.True(t, types.IsCode(err, types.ErrInvalidSchema))
	}
}

func TestComplete_NonObjectSchemaFailsBeforeDispatch(t *testing.T) {
	mock := mocks.NewProvider(mocks.WithFunctionCalling(true))
	client := New(mock)

	_, err := client.Complete(context.Background(), "m", Text("hi"),
		&Options{Schema: schema.NewArraySchema(schema.NewStringSchema())})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrInvalidSchema))
	assert.Equal(t, 0, mock.Calls())
}
