package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-lizarazo/coursechat/internal/log"
	"github.com/p-lizarazo/coursechat/internal/testutil"
)

// fakeRunner implements ToolRunner for tests.
type fakeRunner struct {
	output string
	err    error
	calls  []fakeRunnerCall
}

type fakeRunnerCall struct {
	name  string
	input any
}

func (f *fakeRunner) Execute(_ context.Context, name string, input any) (string, error) {
	f.calls = append(f.calls, fakeRunnerCall{name: name, input: input})
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

type testHarness struct {
	gen    *Generator
	mock   *testutil.MockLLM
	runner *fakeRunner
}

func newHarness(t *testing.T, maxToolRounds int) *testHarness {
	t.Helper()

	g := genkit.Init(context.Background())
	mock := testutil.NewMockLLM("fallback answer")
	mock.RegisterModel(g)

	dummy := genkit.DefineTool(g, "search_course_content", "search",
		func(_ *ai.ToolContext, _ struct {
			Query string `json:"query"`
		}) (string, error) {
			return "", nil
		})

	runner := &fakeRunner{output: "tool output"}
	gen, err := New(g, runner, []ai.Tool{dummy}, Config{
		ModelName:     "mock/test-model",
		Temperature:   0,
		MaxTokens:     800,
		MaxToolRounds: maxToolRounds,
	}, log.NewNop())
	require.NoError(t, err)

	return &testHarness{gen: gen, mock: mock, runner: runner}
}

func TestGenerate_DirectAnswer(t *testing.T) {
	h := newHarness(t, 2)
	h.mock.EnqueueText("Paris is the capital of France.")

	answer, err := h.gen.Generate(context.Background(), "What is the capital of France?", "")
	require.NoError(t, err)
	assert.Equal(t, "Paris is the capital of France.", answer)

	calls := h.mock.Calls()
	require.Len(t, calls, 1, "no tool use means a single model call")
	assert.True(t, calls[0].HadTools, "tools are offered on the first call")
	assert.Empty(t, h.runner.calls)
}

func TestGenerate_SingleToolRound(t *testing.T) {
	h := newHarness(t, 2)
	h.runner.output = "[Intro to MCP - Lesson 1]\nMCP servers expose tools."
	h.mock.EnqueueToolRequests(&ai.ToolRequest{
		Ref:   "call-1",
		Name:  "search_course_content",
		Input: map[string]any{"query": "MCP servers"},
	})
	h.mock.EnqueueText("MCP servers expose tools to models.")

	answer, err := h.gen.Generate(context.Background(), "What do MCP servers do?", "")
	require.NoError(t, err)
	assert.Equal(t, "MCP servers expose tools to models.", answer)

	require.Len(t, h.runner.calls, 1)
	assert.Equal(t, "search_course_content", h.runner.calls[0].name)

	calls := h.mock.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, 1, calls[1].ToolMessages, "tool results are fed back to the model")
	require.Len(t, calls[1].ToolOutputs, 1)
	assert.Contains(t, calls[1].ToolOutputs[0], "MCP servers expose tools.")
}

func TestGenerate_ToolErrorDegradesToMessage(t *testing.T) {
	h := newHarness(t, 2)
	h.runner.err = errors.New("database unreachable")
	h.mock.EnqueueToolRequests(&ai.ToolRequest{
		Ref:   "call-1",
		Name:  "search_course_content",
		Input: map[string]any{"query": "x"},
	})
	h.mock.EnqueueText("I could not search the materials.")

	answer, err := h.gen.Generate(context.Background(), "question", "")
	require.NoError(t, err, "tool failure must not fail the query")
	assert.Equal(t, "I could not search the materials.", answer)

	calls := h.mock.Calls()
	require.Len(t, calls, 2)
	require.Len(t, calls[1].ToolOutputs, 1)
	assert.Contains(t, calls[1].ToolOutputs[0], "Tool execution failed")
	assert.Contains(t, calls[1].ToolOutputs[0], "database unreachable")
}

func TestGenerate_RoundLimitForcesAnswer(t *testing.T) {
	h := newHarness(t, 2)
	req := &ai.ToolRequest{Ref: "r", Name: "search_course_content", Input: map[string]any{"query": "q"}}
	h.mock.EnqueueToolRequests(req)
	h.mock.EnqueueToolRequests(req)
	// A third tool request would be scripted here if the model were
	// offered tools again; instead the final call gets none.
	h.mock.EnqueueText("Final synthesized answer.")

	answer, err := h.gen.Generate(context.Background(), "deep question", "")
	require.NoError(t, err)
	assert.Equal(t, "Final synthesized answer.", answer)

	calls := h.mock.Calls()
	require.Len(t, calls, 3)
	assert.True(t, calls[0].HadTools)
	assert.True(t, calls[1].HadTools)
	assert.False(t, calls[2].HadTools, "final call withholds tools")
	assert.Equal(t, 2, calls[2].ToolMessages, "both rounds' results are present")
	assert.Len(t, h.runner.calls, 2)
}

func TestGenerate_EmptyResponseFallback(t *testing.T) {
	h := newHarness(t, 2)
	h.mock.EnqueueText("")

	answer, err := h.gen.Generate(context.Background(), "q", "")
	require.NoError(t, err)
	assert.Equal(t, fallbackMessage, answer)
}

func TestGenerate_HistoryInjectedIntoSystemPrompt(t *testing.T) {
	h := newHarness(t, 2)
	h.mock.EnqueueText("answer")

	history := "User: What is RAG?\nAssistant: Retrieval-augmented generation."
	_, err := h.gen.Generate(context.Background(), "And how does it search?", history)
	require.NoError(t, err)

	calls := h.mock.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].System, "Previous conversation:")
	assert.Contains(t, calls[0].System, "What is RAG?")
	assert.Equal(t, "And how does it search?", calls[0].LastUserText)
}

func TestNew_Validation(t *testing.T) {
	g := genkit.Init(context.Background())
	runner := &fakeRunner{}

	_, err := New(nil, runner, nil, Config{ModelName: "m"}, nil)
	require.Error(t, err)

	_, err = New(g, nil, nil, Config{ModelName: "m"}, nil)
	require.Error(t, err)

	_, err = New(g, runner, nil, Config{}, nil)
	require.Error(t, err, "model name is required")

	gen, err := New(g, runner, nil, Config{ModelName: "m"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, gen.cfg.MaxToolRounds, "non-positive rounds fall back to 2")
}
