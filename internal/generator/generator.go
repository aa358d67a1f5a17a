// Package generator drives the LLM conversation for one query: it sends
// the prompt, dispatches the model's tool requests, and runs follow-up
// rounds until the model answers in text.
package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"google.golang.org/genai"

	"github.com/p-lizarazo/coursechat/internal/log"
)

// ToolRunner executes one model tool request and renders its output as
// text. Defined by the consumer; *tools.Executor satisfies it.
type ToolRunner interface {
	Execute(ctx context.Context, name string, input any) (string, error)
}

// Config holds the generation parameters.
type Config struct {
	// ModelName is the full Genkit model name, e.g. "googleai/gemini-2.5-flash".
	ModelName string
	// Temperature for generation. Retrieval answers want 0.
	Temperature float32
	// MaxTokens caps the response length.
	MaxTokens int
	// MaxToolRounds caps sequential tool-calling rounds before the model
	// is forced to answer. Non-positive values fall back to 2.
	MaxToolRounds int
}

// Generator produces answers with optional tool use.
type Generator struct {
	g      *genkit.Genkit
	runner ToolRunner
	tools  []ai.Tool
	cfg    Config
	logger log.Logger
}

// New creates a Generator. tools are the references passed to each
// generation request; they must already be registered with g.
func New(g *genkit.Genkit, runner ToolRunner, toolRefs []ai.Tool, cfg Config, logger log.Logger) (*Generator, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if runner == nil {
		return nil, fmt.Errorf("tool runner is required")
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = 2
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Generator{g: g, runner: runner, tools: toolRefs, cfg: cfg, logger: logger}, nil
}

// Generate answers query, giving the model up to MaxToolRounds rounds of
// tool use. history, when non-empty, is prior conversation text injected
// into the system prompt. Tool failures degrade into text fed back to
// the model instead of failing the query.
func (gen *Generator) Generate(ctx context.Context, query, history string) (string, error) {
	system := systemPrompt
	if history != "" {
		system += "\n\nPrevious conversation:\n" + history
	}

	messages := []*ai.Message{ai.NewUserMessage(ai.NewTextPart(query))}

	refs := make([]ai.ToolRef, len(gen.tools))
	for i, t := range gen.tools {
		refs[i] = t
	}

	for round := 0; round < gen.cfg.MaxToolRounds; round++ {
		resp, err := genkit.Generate(ctx, gen.g,
			ai.WithModelName(gen.cfg.ModelName),
			ai.WithSystem(system),
			ai.WithMessages(messages...),
			ai.WithTools(refs...),
			ai.WithReturnToolRequests(true),
			ai.WithConfig(gen.generationConfig()),
		)
		if err != nil {
			return "", fmt.Errorf("generating response: %w", err)
		}

		requests := resp.ToolRequests()
		if len(requests) == 0 {
			return gen.finalText(resp), nil
		}

		gen.logger.Debug("model requested tools", "round", round+1, "count", len(requests))

		messages = append(messages, resp.Message)
		parts := make([]*ai.Part, 0, len(requests))
		for _, req := range requests {
			output, err := gen.runner.Execute(ctx, req.Name, req.Input)
			if err != nil {
				gen.logger.Warn("tool execution failed", "tool", req.Name, "error", err)
				output = fmt.Sprintf("Tool execution failed: %v", err)
			}
			parts = append(parts, ai.NewToolResponsePart(&ai.ToolResponse{
				Name:   req.Name,
				Ref:    req.Ref,
				Output: output,
			}))
		}
		messages = append(messages, ai.NewMessage(ai.RoleTool, nil, parts...))
	}

	// Rounds exhausted: force a text answer by withholding the tools.
	resp, err := genkit.Generate(ctx, gen.g,
		ai.WithModelName(gen.cfg.ModelName),
		ai.WithSystem(system),
		ai.WithMessages(messages...),
		ai.WithConfig(gen.generationConfig()),
	)
	if err != nil {
		return "", fmt.Errorf("generating final response: %w", err)
	}
	return gen.finalText(resp), nil
}

func (gen *Generator) generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(gen.cfg.Temperature),
		MaxOutputTokens: int32(gen.cfg.MaxTokens),
	}
}

func (gen *Generator) finalText(resp *ai.ModelResponse) string {
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		gen.logger.Warn("model returned empty response")
		return fallbackMessage
	}
	return text
}
