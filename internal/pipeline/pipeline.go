// Package pipeline composes retrieval, prompt assembly, and generation into
// a single answer pipeline. The composition is an eino chain compiled once
// at construction time: the query forks into a retrieval branch and a
// passthrough branch, the two join in the prompt assembler, and the rendered
// prompt feeds the generation invoker. Each stage has a fixed input/output
// type, so a wiring mistake is a compile error in the chain, not a runtime
// surprise deep in a request.
package pipeline

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/docqa-ai/docqa-go/internal/llm"
	"github.com/docqa-ai/docqa-go/internal/prompt"
	"github.com/docqa-ai/docqa-go/internal/rag"
)

// Parallel branch keys joined by the assembler stage.
const (
	keyContext  = "context"
	keyQuestion = "question"
)

// Config holds the dependencies and policy for constructing a Pipeline.
type Config struct {
	// Retriever fetches relevant documents for the query.
	Retriever rag.Retriever

	// Assembler renders retrieved context and the question into chat messages.
	Assembler prompt.Assembler

	// Generator produces raw text from the assembled prompt.
	Generator llm.Generator

	// TopK is the number of documents retrieved per query. Defaults to 1.
	TopK int

	// Params are the generation options applied to every call.
	Params llm.Params

	// Markers are the end-of-turn strings stripped from raw model output
	// during answer extraction. Defaults to DefaultMarkers. The exact
	// marker set is a property of the generation backend's chat format,
	// not of this pipeline.
	Markers []string
}

// Pipeline answers natural-language questions over the ingested corpus.
// It is stateless between calls: one query in, one answer out.
type Pipeline struct {
	run compose.Runnable[string, string]
}

// New validates the config, builds the chain, and compiles it.
func New(ctx context.Context, cfg *Config) (*Pipeline, error) {
	if cfg.Retriever == nil {
		return nil, fmt.Errorf("pipeline: retriever must not be nil")
	}
	if cfg.Assembler == nil {
		return nil, fmt.Errorf("pipeline: assembler must not be nil")
	}
	if cfg.Generator == nil {
		return nil, fmt.Errorf("pipeline: generator must not be nil")
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = 1
	}
	markers := cfg.Markers
	if markers == nil {
		markers = DefaultMarkers
	}

	// The two branches have no ordering dependency: retrieval never sees
	// the passthrough and vice versa, so the parallel node may run them in
	// any order (or concurrently) without changing the result.
	fork := compose.NewParallel().
		AddLambda(keyContext, compose.InvokableLambda(func(ctx context.Context, query string) (string, error) {
			docs, err := cfg.Retriever.Retrieve(ctx, query, topK)
			if err != nil {
				return "", fmt.Errorf("pipeline: retrieval failed: %w", err)
			}
			return rag.RenderContext(docs), nil
		})).
		AddLambda(keyQuestion, compose.InvokableLambda(func(_ context.Context, query string) (string, error) {
			return query, nil
		}))

	assemble := compose.InvokableLambda(func(_ context.Context, joined map[string]any) ([]*schema.Message, error) {
		contextText, ok := joined[keyContext].(string)
		if !ok {
			return nil, fmt.Errorf("pipeline: missing context branch output")
		}
		question, ok := joined[keyQuestion].(string)
		if !ok {
			return nil, fmt.Errorf("pipeline: missing question branch output")
		}
		return cfg.Assembler.Messages(contextText, question), nil
	})

	generate := compose.InvokableLambda(func(ctx context.Context, msgs []*schema.Message) (string, error) {
		raw, err := cfg.Generator.Generate(ctx, msgs, cfg.Params)
		if err != nil {
			return "", fmt.Errorf("pipeline: generation failed: %w", err)
		}
		return ExtractAnswer(raw, markers), nil
	})

	run, err := compose.NewChain[string, string]().
		AppendParallel(fork).
		AppendLambda(assemble).
		AppendLambda(generate).
		Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline: compile failed: %w", err)
	}

	return &Pipeline{run: run}, nil
}

// Answer runs the full pipeline for one query and returns the extracted
// answer. Errors from any stage propagate unchanged — nothing is swallowed
// or retried, so the caller sees exactly what failed.
func (p *Pipeline) Answer(ctx context.Context, query string) (string, error) {
	if query == "" {
		return "", fmt.Errorf("pipeline: query must not be empty")
	}
	return p.run.Invoke(ctx, query)
}
