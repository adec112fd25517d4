package completion

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/schemaflow/llm"
	"github.com/BaSui01/schemaflow/testutil/mocks"
	"github.com/BaSui01/schemaflow/types"
)

func lastUserContent(req *llm.ChatRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == types.RoleUser {
			return req.Messages[i].Content
		}
	}
	return ""
}

func TestComplete_Schemaless(t *testing.T) {
	mock := mocks.NewProvider()
	mock.EnqueueText("hello world")
	client := New(mock)

	resp, err := client.Complete(context.Background(), "m", Text("hi"), nil)
	require.NoError(t, err)
	assert.Equal(t, "hello world", resp.Data)
	assert.Equal(t, 1, mock.Calls())
}

func TestComplete_EmptyResponse(t *testing.T) {
	mock := mocks.NewProvider()
	mock.EnqueueEmpty()
	client := New(mock)

	_, err := client.Complete(context.Background(), "m", Text("hi"), nil)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.ErrEmptyResponse))
}

func TestComplete_MessageAssembly(t *testing.T) {
	mock := mocks.NewProvider()
	mock.EnqueueText("ok")
	client := New(mock)

	history := []types.Message{
		types.NewUserMessage("earlier question"),
		types.NewAssistantMessage("earlier answer"),
	}
	_, err := client.Complete(context.Background(), "m", Text("now this"), &Options{
		SystemMessage:  Text("be terse"),
		MessageHistory: history,
	})
	require.NoError(t, err)

	req := mock.Request(0)
	require.Len(t, req.Messages, 4)
	assert.Equal(t, types.RoleSystem, req.Messages[0].Role)
	assert.Equal(t, "be terse", req.Messages[0].Content)
	assert.Equal(t, "earlier question", req.Messages[1].Content)
	assert.Equal(t, "earlier answer", req.Messages[2].Content)
	assert.Equal(t, "now this", req.Messages[3].Content)
	assert.NotEmpty(t, req.TraceID)
	assert.Equal(t, "m", req.Model)
}

func TestComplete_PassThroughOptions(t *testing.T) {
	mock := mocks.NewProvider()
	mock.EnqueueText("ok")
	client := New(mock)

	_, err := client.Complete(context.Background(), "m", Text("hi"), &Options{
		MaxTokens:   128,
		Temperature: Float32(0.2),
		TopP:        Float32(0.9),
		Stop:        []string{"END"},
		Metadata:    map[string]string{"tenant": "t1"},
	})
	require.NoError(t, err)

	req := mock.Request(0)
	assert.Equal(t, 128, req.MaxTokens)
	assert.Equal(t, float32(0.2), req.Temperature)
	assert.Equal(t, float32(0.9), req.TopP)
	assert.Equal(t, []string{"END"}, req.Stop)
	assert.Equal(t, "t1", req.Metadata["tenant"])
}

func TestComplete_OverflowPropagatesWithoutAutoSlice(t *testing.T) {
	mock := mocks.NewProvider()
	mock.EnqueueError(llm.NewTokenOverflowError(100, "mock", ""))
	client := New(mock)

	_, err := client.Complete(context.Background(), "m", Text(strings.Repeat("a", 1000)), nil)
	require.Error(t, err)
	overflow, ok := llm.AsTokenOverflow(err)
	require.True(t, ok)
	assert.Equal(t, 100, overflow.OverflowTokens)
	assert.Equal(t, 1, mock.Calls())
}

func TestComplete_AutoSliceRetriesWithTruncatedMessage(t *testing.T) {
	mock := mocks.NewProvider()
	mock.EnqueueError(llm.NewTokenOverflowError(100, "mock", ""))
	mock.EnqueueText("fits now")
	client := New(mock)

	resp, err := client.Complete(context.Background(), "m",
		Text(strings.Repeat("a", 1000)), &Options{AutoSlice: Bool(true)})
	require.NoError(t, err)
	assert.Equal(t, "fits now", resp.Data)

	require.Equal(t, 2, mock.Calls())
	assert.Len(t, lastUserContent(mock.Request(0)), 1000)
	assert.Len(t, lastUserContent(mock.Request(1)), 600)
}

func TestComplete_AutoSliceKeepsRuneBoundary(t *testing.T) {
	mock := mocks.NewProvider()
	mock.EnqueueError(llm.NewTokenOverflowError(10, "mock", ""))
	mock.EnqueueText("fits now")
	client := New(mock)

	// 250 three-byte runes = 750 bytes; 750 - 40 = 710 lands mid-rune and
	// must back off to 708.
	resp, err := client.Complete(context.Background(), "m",
		Text(strings.Repeat("界", 250)), &Options{AutoSlice: Bool(true)})
	require.NoError(t, err)
	assert.Equal(t, "fits now", resp.Data)

	require.Equal(t, 2, mock.Calls())
	retry := lastUserContent(mock.Request(1))
	assert.True(t, utf8.ValidString(retry))
	assert.Len(t, retry, 708)
}

func TestComplete_AutoSliceUnrecoverableReRaisesOriginal(t *testing.T) {
	mock := mocks.NewProvider()
	mock.EnqueueError(llm.NewTokenOverflowError(100, "mock", ""))
	mock.EnqueueError(llm.NewTokenOverflowError(200, "mock", ""))
	client := New(mock)

	_, err := client.Complete(context.Background(), "m",
		Text(strings.Repeat("a", 1000)), &Options{AutoSlice: Bool(true)})
	require.Error(t, err)

	// The 600-char retry overflowed by 200 tokens; 600-800 is negative, so
	// that overflow comes back unchanged and no third attempt is made.
	overflow, ok := llm.AsTokenOverflow(err)
	require.True(t, ok)
	assert.Equal(t, 200, overflow.OverflowTokens)
	assert.Equal(t, 2, mock.Calls())
	assert.Len(t, lastUserContent(mock.Request(1)), 600)
}

func TestComplete_NonOverflowErrorPropagates(t *testing.T) {
	mock := mocks.NewProvider()
	upstream := types.NewError(types.ErrRateLimited, "slow down").WithRetryable(true)
	mock.EnqueueError(upstream)
	client := New(mock)

	_, err := client.Complete(context.Background(), "m", Text("hi"),
		&Options{AutoSlice: Bool(true)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, upstream))
	assert.Equal(t, 1, mock.Calls())
}

func TestComplete_ClientDefaults(t *testing.T) {
	mock := mocks.NewProvider()
	mock.EnqueueText("ok")
	client := New(mock, WithDefaults(Options{MaxTokens: 64}))

	_, err := client.Complete(context.Background(), "m", Text("hi"), &Options{Temperature: Float32(0.5)})
	require.NoError(t, err)

	req := mock.Request(0)
	assert.Equal(t, 64, req.MaxTokens)
	assert.Equal(t, float32(0.5), req.Temperature)
}
