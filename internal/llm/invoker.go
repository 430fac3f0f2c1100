// Package llm wraps the chat model behind a narrow generation interface.
// The pipeline only needs "messages in, raw text out"; everything
// model-specific (backend selection, truncation, token caps) is contained
// here so the pipeline can be tested against a deterministic stub.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/docqa-ai/docqa-go/internal/budget"
)

// ErrGenerationBackend is wrapped around any error raised by the external
// model call. The pipeline never retries: a malformed or oversized prompt
// is unlikely to succeed on immediate retry, so the error surfaces to the
// caller as-is.
var ErrGenerationBackend = errors.New("llm: generation backend failure")

// Params holds the per-call generation options.
type Params struct {
	// MaxOutputTokens caps the number of tokens the model may generate.
	// Zero means the backend default.
	MaxOutputTokens int

	// Truncate silently clips over-budget prompts instead of handing them
	// to the backend unchanged. Clipping removes context from the end; the
	// question is preserved.
	Truncate bool
}

// Generator produces raw text for a rendered prompt. Implementations are
// synchronous and cancellable only at the granularity of the whole call.
type Generator interface {
	Generate(ctx context.Context, msgs []*schema.Message, params Params) (string, error)
}

// ModelInvoker implements Generator on top of an eino chat model.
type ModelInvoker struct {
	// chat is the backend chat model constructed by the provider factory.
	chat model.BaseChatModel

	// maxInputTokens is the estimated prompt budget applied when
	// Params.Truncate is set.
	maxInputTokens int
}

// NewModelInvoker constructs a ModelInvoker. maxInputTokens ≤ 0 selects
// budget.DefaultMaxInputTokens.
func NewModelInvoker(chat model.BaseChatModel, maxInputTokens int) (*ModelInvoker, error) {
	if chat == nil {
		return nil, fmt.Errorf("llm: chat model must not be nil")
	}
	if maxInputTokens <= 0 {
		maxInputTokens = budget.DefaultMaxInputTokens
	}
	return &ModelInvoker{chat: chat, maxInputTokens: maxInputTokens}, nil
}

// Generate sends the prompt to the backend and returns the raw generated
// text, untouched. Answer extraction (stripping chat markup) is the
// pipeline's job — the invoker does not know which markers its backend uses.
func (v *ModelInvoker) Generate(ctx context.Context, msgs []*schema.Message, params Params) (string, error) {
	if len(msgs) == 0 {
		return "", fmt.Errorf("llm: empty prompt")
	}

	if params.Truncate {
		msgs = budget.Clip(msgs, v.maxInputTokens)
	}

	var opts []model.Option
	if params.MaxOutputTokens > 0 {
		opts = append(opts, model.WithMaxTokens(params.MaxOutputTokens))
	}

	out, err := v.chat.Generate(ctx, msgs, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGenerationBackend, err)
	}
	if out == nil {
		return "", fmt.Errorf("%w: backend returned no message", ErrGenerationBackend)
	}

	return out.Content, nil
}
