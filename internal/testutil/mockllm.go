// Package testutil provides deterministic model and embedder mocks for
// tests that exercise generation and retrieval without network access.
package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// MockLLM provides scripted LLM responses for testing. Each call pops
// the next enqueued turn; when the script is exhausted the fallback text
// is returned.
//
// Thread-safe for concurrent use.
type MockLLM struct {
	mu       sync.Mutex
	script   []mockTurn
	fallback string
	calls    []MockCall
}

type mockTurn struct {
	text         string
	toolRequests []*ai.ToolRequest
}

// MockCall records a single call to the mock model.
type MockCall struct {
	System       string   // system prompt text
	LastUserText string   // last user message text
	ToolMessages int      // tool-role messages in the request
	ToolOutputs  []string // rendered tool response outputs, in order
	HadTools     bool     // whether tool definitions were present
}

// NewMockLLM creates a mock LLM with the given fallback response.
func NewMockLLM(fallback string) *MockLLM {
	return &MockLLM{fallback: fallback}
}

// EnqueueText scripts a plain text turn.
func (m *MockLLM) EnqueueText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, mockTurn{text: text})
}

// EnqueueToolRequests scripts a turn that requests tool calls.
func (m *MockLLM) EnqueueToolRequests(reqs ...*ai.ToolRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, mockTurn{toolRequests: reqs})
}

// Calls returns a copy of all recorded calls.
func (m *MockLLM) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]MockCall, len(m.calls))
	copy(cp, m.calls)
	return cp
}

// RegisterModel registers the mock as a Genkit model named
// "mock/test-model" and returns its reference.
func (m *MockLLM) RegisterModel(g *genkit.Genkit) ai.Model {
	return genkit.DefineModel(g, "mock/test-model", &ai.ModelOptions{
		Label: "Mock Test Model",
		Supports: &ai.ModelSupports{
			Multiturn:  true,
			Tools:      true,
			SystemRole: true,
		},
	}, m.generate)
}

func (m *MockLLM) generate(_ context.Context, req *ai.ModelRequest, _ ai.ModelStreamCallback) (*ai.ModelResponse, error) {
	call := MockCall{HadTools: len(req.Tools) > 0}
	for _, msg := range req.Messages {
		switch msg.Role {
		case ai.RoleSystem:
			call.System = msg.Text()
		case ai.RoleUser:
			call.LastUserText = msg.Text()
		case ai.RoleTool:
			call.ToolMessages++
			for _, p := range msg.Content {
				if p.ToolResponse != nil {
					call.ToolOutputs = append(call.ToolOutputs, fmt.Sprint(p.ToolResponse.Output))
				}
			}
		}
	}

	m.mu.Lock()
	var turn mockTurn
	if len(m.script) > 0 {
		turn = m.script[0]
		m.script = m.script[1:]
	} else {
		turn = mockTurn{text: m.fallback}
	}
	m.calls = append(m.calls, call)
	m.mu.Unlock()

	var parts []*ai.Part
	for _, tr := range turn.toolRequests {
		parts = append(parts, &ai.Part{Kind: ai.PartToolRequest, ToolRequest: tr})
	}
	if turn.text != "" || len(parts) == 0 {
		parts = append(parts, ai.NewTextPart(turn.text))
	}

	return &ai.ModelResponse{
		Request: req,
		Message: &ai.Message{Role: ai.RoleModel, Content: parts},
	}, nil
}

// MockEmbedder provides deterministic embedding vectors for testing.
// Vectors are derived from the content hash unless an explicit mapping
// is registered, so identical text always embeds identically.
//
// Thread-safe for concurrent use.
type MockEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	dim     int
}

// NewMockEmbedder creates a mock embedder with the given dimensionality.
func NewMockEmbedder(dim int) *MockEmbedder {
	return &MockEmbedder{vectors: make(map[string][]float32), dim: dim}
}

// SetVector registers an explicit vector for a content string. Use this
// to control exact cosine similarity between test inputs.
func (e *MockEmbedder) SetVector(content string, vec []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.vectors[content] = vec
}

// RegisterEmbedder registers the mock as a Genkit embedder named
// "mock/test-embedder".
func (e *MockEmbedder) RegisterEmbedder(g *genkit.Genkit) ai.Embedder {
	return genkit.DefineEmbedder(g, "mock/test-embedder", &ai.EmbedderOptions{
		Label:      "Mock Test Embedder",
		Dimensions: e.dim,
	}, e.embed)
}

func (e *MockEmbedder) embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	embeddings := make([]*ai.Embedding, len(req.Input))
	for i, doc := range req.Input {
		embeddings[i] = &ai.Embedding{Embedding: e.vectorFor(documentText(doc))}
	}
	return &ai.EmbedResponse{Embeddings: embeddings}, nil
}

func (e *MockEmbedder) vectorFor(content string) []float32 {
	e.mu.Lock()
	if v, ok := e.vectors[content]; ok {
		e.mu.Unlock()
		return v
	}
	e.mu.Unlock()
	return deterministicVector(content, e.dim)
}

func documentText(doc *ai.Document) string {
	var sb strings.Builder
	for _, p := range doc.Content {
		if p.Kind == ai.PartText {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// deterministicVector generates a normalized vector from the SHA-256 of
// content. The same content always produces the same vector.
func deterministicVector(content string, dim int) []float32 {
	hash := sha256.Sum256([]byte(content))
	vec := make([]float32, dim)

	for i := range vec {
		idx := (i * 4) % len(hash)
		bits := binary.LittleEndian.Uint32([]byte{
			hash[idx%32],
			hash[(idx+1)%32],
			hash[(idx+2)%32],
			hash[(idx+3)%32],
		})
		vec[i] = (float32(bits)/float32(math.MaxUint32))*2 - 1
	}

	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	norm = float32(math.Sqrt(float64(norm)))
	if norm > 0 {
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}
