package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessage_Roles(t *testing.T) {
	assert.Equal(t, RoleSystem, NewSystemMessage("s").Role)
	assert.Equal(t, RoleUser, NewUserMessage("u").Role)
	assert.Equal(t, RoleAssistant, NewAssistantMessage("a").Role)
	assert.False(t, NewUserMessage("u").Timestamp.IsZero())
}

func TestMessage_ToolCallNamed(t *testing.T) {
	msg := NewAssistantMessage("").WithToolCalls([]ToolCall{
		{ID: "1", Name: "other", Arguments: json.RawMessage(`{}`)},
		{ID: "2", Name: "structured_response", Arguments: json.RawMessage(`{"x":1}`)},
	})

	tc := msg.ToolCallNamed("structured_response")
	require.NotNil(t, tc)
	assert.Equal(t, "2", tc.ID)

	assert.Nil(t, msg.ToolCallNamed("missing"))
	assert.Nil(t, NewAssistantMessage("plain text").ToolCallNamed("structured_response"))
}

func TestCloneHistory(t *testing.T) {
	orig := []Message{NewUserMessage("one"), NewUserMessage("two")}
	clone := CloneHistory(orig)

	clone = append(clone, NewUserMessage("three"))
	clone[0].Content = "mutated"

	assert.Len(t, orig, 2)
	assert.Equal(t, "one", orig[0].Content)
	assert.Len(t, clone, 3)
}
