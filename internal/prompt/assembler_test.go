package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
)

func Test_TextAssembler_RenderSubstitutesBoth(t *testing.T) {
	t.Parallel()
	a, err := NewTextAssembler("C={context} Q={question}")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	got := a.Render("the context", "the question")
	if got != "C=the context Q=the question" {
		t.Errorf("Render = %q", got)
	}
}

func Test_TextAssembler_RenderIsPure(t *testing.T) {
	t.Parallel()
	a, err := NewTextAssembler("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	first := a.Render("ctx", "q")
	// Unrelated renders in between must not affect the result.
	a.Render("other", "noise")
	a.Render("", "")
	second := a.Render("ctx", "q")

	if first != second {
		t.Errorf("Render not pure: %q vs %q", first, second)
	}
}

func Test_TextAssembler_MissingPlaceholderRejectedAtConstruction(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name     string
		template string
	}{
		{"no context", "only {question} here"},
		{"no question", "only {context} here"},
		{"neither", "plain text"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewTextAssembler(tc.template)
			if !errors.Is(err, ErrMissingPlaceholder) {
				t.Errorf("want ErrMissingPlaceholder, got %v", err)
			}
		})
	}
}

func Test_TextAssembler_DefaultTemplateContainsContextAndQuestion(t *testing.T) {
	t.Parallel()
	a, err := NewTextAssembler("")
	if err != nil {
		t.Fatalf("default template must validate: %v", err)
	}

	msgs := a.Messages("Nusret is from Nottingham.", "Who is Nusret?")
	if len(msgs) != 1 {
		t.Fatalf("want 1 message, got %d", len(msgs))
	}
	if msgs[0].Role != schema.User {
		t.Errorf("want user role, got %s", msgs[0].Role)
	}
	if !strings.Contains(msgs[0].Content, "Nusret is from Nottingham.") {
		t.Error("rendered prompt must contain the context verbatim")
	}
	if !strings.Contains(msgs[0].Content, "Who is Nusret?") {
		t.Error("rendered prompt must contain the question verbatim")
	}
}

func Test_ChatAssembler_SplitsRoles(t *testing.T) {
	t.Parallel()
	a, err := NewChatAssembler("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	msgs := a.Messages("some context", "the question")
	if len(msgs) != 2 {
		t.Fatalf("want 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != schema.System || !strings.Contains(msgs[0].Content, "some context") {
		t.Errorf("system message must carry the context: %+v", msgs[0])
	}
	if msgs[1].Role != schema.User || msgs[1].Content != "the question" {
		t.Errorf("user message must carry the question verbatim: %+v", msgs[1])
	}
}

func Test_ChatAssembler_RequiresContextPlaceholder(t *testing.T) {
	t.Parallel()
	_, err := NewChatAssembler("no placeholders at all")
	if !errors.Is(err, ErrMissingPlaceholder) {
		t.Errorf("want ErrMissingPlaceholder, got %v", err)
	}
}

func Test_New_SelectsStyle(t *testing.T) {
	t.Parallel()
	if a, err := New(StyleSingle, ""); err != nil {
		t.Errorf("single: %v", err)
	} else if _, ok := a.(*TextAssembler); !ok {
		t.Errorf("single: want *TextAssembler, got %T", a)
	}

	if a, err := New(StyleChat, ""); err != nil {
		t.Errorf("chat: %v", err)
	} else if _, ok := a.(*ChatAssembler); !ok {
		t.Errorf("chat: want *ChatAssembler, got %T", a)
	}

	if _, err := New("multi", ""); err == nil {
		t.Error("unknown style must be rejected")
	}
}
