package budget

import (
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
)

func Test_Estimate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		input string
		want  int
	}{
		{"", 0},
		{"a", 1},        // < 4 chars → 1
		{"abcd", 1},     // exactly 4 chars → 1
		{"abcdefgh", 2}, // 8 chars → 2
		{strings.Repeat("x", 400), 100},
	}
	for _, tc := range cases {
		got := Estimate(tc.input)
		if got != tc.want {
			t.Errorf("Estimate(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func Test_EstimateMessages(t *testing.T) {
	t.Parallel()
	msgs := []*schema.Message{
		schema.UserMessage("hello world"),
		schema.UserMessage("hello world"),
	}
	// Each message: 4 overhead + Estimate("user")=1 + Estimate("hello world")=2 = 7.
	got := EstimateMessages(msgs)
	if got != 14 {
		t.Errorf("EstimateMessages = %d, want 14", got)
	}
}

func Test_Clip_NoOpWithinBudget(t *testing.T) {
	t.Parallel()
	msgs := []*schema.Message{
		schema.SystemMessage("short context"),
		schema.UserMessage("short question"),
	}
	got := Clip(msgs, DefaultMaxInputTokens)
	if len(got) != 2 || got[0] != msgs[0] || got[1] != msgs[1] {
		t.Error("within-budget prompt must be returned unchanged")
	}
}

func Test_Clip_ShortensLongestMessage(t *testing.T) {
	t.Parallel()
	longContext := strings.Repeat("c", 4*1000) // ~1000 tokens
	msgs := []*schema.Message{
		schema.SystemMessage(longContext),
		schema.UserMessage("what is this about?"),
	}

	got := Clip(msgs, 100)
	if EstimateMessages(got) > 100 {
		t.Errorf("clipped prompt still over budget: %d tokens", EstimateMessages(got))
	}
	if got[1].Content != "what is this about?" {
		t.Errorf("question must survive clipping, got %q", got[1].Content)
	}
	if len(got[0].Content) >= len(longContext) {
		t.Error("context message should have been shortened")
	}
	// Clipping cuts from the end of the context.
	if !strings.HasPrefix(longContext, got[0].Content) {
		t.Error("clipped context must be a prefix of the original")
	}
}

func Test_Clip_DoesNotMutateInput(t *testing.T) {
	t.Parallel()
	original := strings.Repeat("c", 4*1000)
	msgs := []*schema.Message{schema.SystemMessage(original)}

	Clip(msgs, 10)
	if msgs[0].Content != original {
		t.Error("Clip must not mutate the caller's messages")
	}
}
