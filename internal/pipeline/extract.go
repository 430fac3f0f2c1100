package pipeline

import (
	"strings"
)

// DefaultMarkers covers the end-of-turn conventions of the chat formats the
// supported backends emit. A backend that leaks its template into the raw
// output produces something like
//
//	...question<|eot_id|>assistant\n\nANSWER<|eot_id|>
//
// and the answer is the last non-empty segment between markers.
var DefaultMarkers = []string{
	"<|eot_id|>",    // llama 3
	"<|im_end|>",    // chatml (qwen, many ollama models)
	"<end_of_turn>", // gemma
	"</s>",          // llama 2, mistral
}

// headerPrefixes are role headers some chat formats prepend to the generated
// segment. They are stripped after marker splitting. The bare "assistant\n"
// form requires the trailing newline so an answer that legitimately starts
// with the word is left alone.
var headerPrefixes = []string{
	"<|start_header_id|>assistant<|end_header_id|>",
	"assistant:",
	"assistant\n",
}

// ExtractAnswer strips chat-format markup from raw model output and returns
// the newly generated answer span. Output that contains no markers is
// returned whitespace-trimmed, which is the common case for backends that
// decode only the new tokens.
func ExtractAnswer(raw string, markers []string) string {
	answer := raw
	for _, marker := range markers {
		if !strings.Contains(answer, marker) {
			continue
		}
		// Keep the last non-empty segment: earlier segments replay the
		// prompt, the final one is the generated turn.
		segments := strings.Split(answer, marker)
		for i := len(segments) - 1; i >= 0; i-- {
			if strings.TrimSpace(segments[i]) != "" {
				answer = segments[i]
				break
			}
		}
	}

	answer = strings.TrimSpace(answer)
	for _, prefix := range headerPrefixes {
		if rest, ok := strings.CutPrefix(answer, prefix); ok {
			answer = strings.TrimSpace(rest)
			break
		}
	}
	return answer
}
