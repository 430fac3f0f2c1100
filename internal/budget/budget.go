// Package budget provides token budget estimation and prompt clipping for
// the generation invoker. Because the system supports multiple LLM backends
// with different tokenizers, this package uses a conservative character-based
// heuristic: 1 token ≈ 4 characters (English prose). This deliberately
// under-estimates token counts to leave headroom for model-specific overhead.
package budget

import (
	"github.com/cloudwego/eino/schema"
)

const (
	// charsPerToken is the conservative character-to-token ratio used for
	// estimation. 4 chars/token is standard for English prose; using 3
	// would be more aggressive but risks overflowing context windows.
	charsPerToken = 4

	// DefaultMaxInputTokens is the default prompt budget in tokens.
	// Conservative enough to fit within 8k-context models while leaving
	// room for the output.
	DefaultMaxInputTokens = 6000
)

// Estimate returns a rough token count for s using the character heuristic.
func Estimate(s string) int {
	n := len(s) / charsPerToken
	if n == 0 && len(s) > 0 {
		return 1
	}
	return n
}

// EstimateMessages returns the estimated total token count for a slice of
// schema.Message values, summing role + content for each message.
func EstimateMessages(msgs []*schema.Message) int {
	total := 0
	for _, m := range msgs {
		// Each message carries a small per-message overhead (~4 tokens in most APIs).
		total += 4
		total += Estimate(string(m.Role))
		total += Estimate(m.Content)
	}
	return total
}

// Clip shortens an over-budget prompt until its estimated token count fits
// within maxTokens. The longest message is clipped first — in a RAG prompt
// that is the context-bearing message, which degrades most gracefully when
// cut from the end. The question and role structure are preserved as long
// as any context remains to give up. The input slice is not modified;
// clipped messages are copies.
func Clip(msgs []*schema.Message, maxTokens int) []*schema.Message {
	if EstimateMessages(msgs) <= maxTokens {
		return msgs
	}

	out := make([]*schema.Message, len(msgs))
	copy(out, msgs)

	for EstimateMessages(out) > maxTokens {
		longest := -1
		for i, m := range out {
			if m.Content == "" {
				continue
			}
			if longest < 0 || len(m.Content) > len(out[longest].Content) {
				longest = i
			}
		}
		if longest < 0 {
			// Nothing left to clip.
			return out
		}

		excess := (EstimateMessages(out) - maxTokens) * charsPerToken
		clipped := *out[longest]
		if excess >= len(clipped.Content) {
			clipped.Content = ""
		} else {
			clipped.Content = clipped.Content[:len(clipped.Content)-excess]
		}
		out[longest] = &clipped
	}
	return out
}
