package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/firebase/genkit/go/genkit"

	"github.com/p-lizarazo/coursechat/internal/log"
)

// Executor dispatches the model's tool requests to registered tools and
// renders their output as text for the next generation round.
type Executor struct {
	g      *genkit.Genkit
	logger log.Logger
}

// NewExecutor creates an Executor bound to a Genkit instance.
func NewExecutor(g *genkit.Genkit, logger log.Logger) *Executor {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Executor{g: g, logger: logger}
}

// Execute looks up a registered tool by name and runs it with the raw
// input from a model tool request.
func (e *Executor) Execute(ctx context.Context, name string, input any) (string, error) {
	tool := genkit.LookupTool(e.g, name)
	if tool == nil {
		return "", fmt.Errorf("unknown tool %q", name)
	}

	out, err := tool.RunRaw(ctx, input)
	if err != nil {
		return "", fmt.Errorf("running tool %q: %w", name, err)
	}

	switch v := out.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("encoding output of tool %q: %w", name, err)
		}
		return string(b), nil
	}
}
