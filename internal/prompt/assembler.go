// Package prompt turns retrieved context and a user question into the chat
// messages handed to the generation model. Assembly is pure string
// substitution: templates are validated once at construction time and never
// change afterwards, so rendering cannot fail and identical inputs always
// produce identical output.
package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// Placeholder names recognised in templates.
const (
	PlaceholderContext  = "{context}"
	PlaceholderQuestion = "{question}"
)

// DefaultTemplate is the single-turn template used when the configuration
// does not provide one.
const DefaultTemplate = `Answer the question using only the context below. If the context does not contain the answer, say so.

Context:
{context}

Question: {question}
Answer:`

// DefaultSystemTemplate is the system-message template for the
// role-structured variant. The question travels in the user turn.
const DefaultSystemTemplate = `You are a helpful assistant. Answer the user's question using only the context below. If the context does not contain the answer, say so.

Context:
{context}`

// ErrMissingPlaceholder is returned at construction time when a template
// lacks a required placeholder. Template misconfiguration is fatal — there
// is no point rendering prompts the model cannot ground.
var ErrMissingPlaceholder = errors.New("prompt: template is missing a required placeholder")

// Style selects the prompt structure.
type Style string

const (
	// StyleSingle renders one user message containing context and question.
	StyleSingle Style = "single"
	// StyleChat renders a system message carrying the context and a user
	// message carrying the question.
	StyleChat Style = "chat"
)

// Assembler maps (context, question) to the message slice for the model.
// Implementations are pure: no I/O, no state mutation between calls.
type Assembler interface {
	// Messages renders the prompt for the given context and question.
	Messages(contextText, question string) []*schema.Message
}

// New constructs the Assembler for the given style. template may be empty,
// in which case the style's default template is used.
func New(style Style, template string) (Assembler, error) {
	switch style {
	case "", StyleSingle:
		return NewTextAssembler(template)
	case StyleChat:
		return NewChatAssembler(template)
	default:
		return nil, fmt.Errorf("prompt: unknown style %q — valid values: single, chat", style)
	}
}

// TextAssembler renders a single-turn prompt: one user message with both the
// context and the question substituted into the template.
type TextAssembler struct {
	// template contains both {context} and {question}.
	template string
}

// NewTextAssembler validates the template and returns a TextAssembler.
// An empty template falls back to DefaultTemplate.
func NewTextAssembler(template string) (*TextAssembler, error) {
	if template == "" {
		template = DefaultTemplate
	}
	for _, ph := range []string{PlaceholderContext, PlaceholderQuestion} {
		if !strings.Contains(template, ph) {
			return nil, fmt.Errorf("prompt: single-turn template lacks %s: %w", ph, ErrMissingPlaceholder)
		}
	}
	return &TextAssembler{template: template}, nil
}

// Render substitutes both placeholders and returns the rendered prompt text.
func (a *TextAssembler) Render(contextText, question string) string {
	out := strings.ReplaceAll(a.template, PlaceholderContext, contextText)
	return strings.ReplaceAll(out, PlaceholderQuestion, question)
}

// Messages wraps the rendered prompt in a single user message.
func (a *TextAssembler) Messages(contextText, question string) []*schema.Message {
	return []*schema.Message{
		schema.UserMessage(a.Render(contextText, question)),
	}
}

// ChatAssembler renders a role-structured prompt: the context is substituted
// into a system message and the question is sent verbatim as the user turn.
type ChatAssembler struct {
	// systemTemplate contains {context}; {question} is not required since
	// the question is carried by the user message.
	systemTemplate string
}

// NewChatAssembler validates the system template and returns a ChatAssembler.
// An empty template falls back to DefaultSystemTemplate.
func NewChatAssembler(systemTemplate string) (*ChatAssembler, error) {
	if systemTemplate == "" {
		systemTemplate = DefaultSystemTemplate
	}
	if !strings.Contains(systemTemplate, PlaceholderContext) {
		return nil, fmt.Errorf("prompt: system template lacks %s: %w", PlaceholderContext, ErrMissingPlaceholder)
	}
	return &ChatAssembler{systemTemplate: systemTemplate}, nil
}

// Messages renders the system message and appends the question as the user turn.
func (a *ChatAssembler) Messages(contextText, question string) []*schema.Message {
	return []*schema.Message{
		schema.SystemMessage(strings.ReplaceAll(a.systemTemplate, PlaceholderContext, contextText)),
		schema.UserMessage(question),
	}
}
