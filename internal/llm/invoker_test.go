package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// stubChatModel records the messages it receives and replies with a fixed
// message (or error).
type stubChatModel struct {
	reply    string
	err      error
	lastMsgs []*schema.Message
}

func (s *stubChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	s.lastMsgs = input
	if s.err != nil {
		return nil, s.err
	}
	return schema.AssistantMessage(s.reply, nil), nil
}

func (s *stubChatModel) Stream(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	s.lastMsgs = input
	if s.err != nil {
		return nil, s.err
	}
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage(s.reply, nil)}), nil
}

func Test_ModelInvoker_ReturnsRawBackendText(t *testing.T) {
	t.Parallel()
	stub := &stubChatModel{reply: "raw answer<|eot_id|>trailing"}
	inv, err := NewModelInvoker(stub, 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	got, err := inv.Generate(context.Background(), []*schema.Message{schema.UserMessage("q")}, Params{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// The invoker must not post-process — markup stripping belongs to the pipeline.
	if got != "raw answer<|eot_id|>trailing" {
		t.Errorf("got %q", got)
	}
}

func Test_ModelInvoker_WrapsBackendError(t *testing.T) {
	t.Parallel()
	cause := errors.New("connection refused")
	inv, err := NewModelInvoker(&stubChatModel{err: cause}, 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	_, err = inv.Generate(context.Background(), []*schema.Message{schema.UserMessage("q")}, Params{})
	if !errors.Is(err, ErrGenerationBackend) {
		t.Errorf("want ErrGenerationBackend, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("cause must remain inspectable, got %v", err)
	}
}

func Test_ModelInvoker_TruncateClipsPrompt(t *testing.T) {
	t.Parallel()
	stub := &stubChatModel{reply: "ok"}
	inv, err := NewModelInvoker(stub, 50)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	longContext := strings.Repeat("c", 4*500)
	msgs := []*schema.Message{
		schema.SystemMessage(longContext),
		schema.UserMessage("the question"),
	}

	if _, err := inv.Generate(context.Background(), msgs, Params{Truncate: true}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(stub.lastMsgs[0].Content) >= len(longContext) {
		t.Error("Truncate=true must clip the over-budget context before the backend call")
	}
	if stub.lastMsgs[1].Content != "the question" {
		t.Errorf("question must survive truncation, got %q", stub.lastMsgs[1].Content)
	}
}

func Test_ModelInvoker_NoTruncatePassesPromptUnchanged(t *testing.T) {
	t.Parallel()
	stub := &stubChatModel{reply: "ok"}
	inv, err := NewModelInvoker(stub, 50)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	longContext := strings.Repeat("c", 4*500)
	msgs := []*schema.Message{schema.SystemMessage(longContext), schema.UserMessage("q")}

	if _, err := inv.Generate(context.Background(), msgs, Params{Truncate: false}); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if stub.lastMsgs[0].Content != longContext {
		t.Error("Truncate=false must hand the prompt to the backend unchanged")
	}
}

func Test_ModelInvoker_EmptyPromptRejected(t *testing.T) {
	t.Parallel()
	inv, err := NewModelInvoker(&stubChatModel{reply: "ok"}, 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := inv.Generate(context.Background(), nil, Params{}); err == nil {
		t.Error("empty prompt must be rejected")
	}
}

func Test_NewModelInvoker_NilModelRejected(t *testing.T) {
	t.Parallel()
	if _, err := NewModelInvoker(nil, 0); err == nil {
		t.Error("nil chat model must be rejected")
	}
}
