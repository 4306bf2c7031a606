package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go"
	openaioption "github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/servicedesk/internal/domain"
)

type stubMessages struct {
	params anthropic.MessageNewParams
	msg    *anthropic.Message
	err    error
}

func (s *stubMessages) New(_ context.Context, params anthropic.MessageNewParams, _ ...anthropicoption.RequestOption) (*anthropic.Message, error) {
	s.params = params
	return s.msg, s.err
}

type stubCompletions struct {
	params     openai.ChatCompletionNewParams
	completion *openai.ChatCompletion
	err        error
}

func (s *stubCompletions) New(_ context.Context, params openai.ChatCompletionNewParams, _ ...openaioption.RequestOption) (*openai.ChatCompletion, error) {
	s.params = params
	return s.completion, s.err
}

func chatMessage(i int) domain.ChatMessage {
	return domain.ChatMessage{Role: domain.ChatRoleUser, Text: fmt.Sprintf("message %d", i)}
}

func TestAnthropicCompleter(t *testing.T) {
	stub := &stubMessages{msg: &anthropic.Message{Content: []anthropic.ContentBlockUnion{
		{Type: "text", Text: `{"reply":`},
		{Type: "text", Text: `"ok"}`},
	}}}
	c := newAnthropicCompleter(stub, ProviderConfig{})

	out, err := c.Complete(context.Background(), "sys", "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"reply":"ok"}`, out)
	assert.Equal(t, anthropic.Model(defaultAnthropicModel), stub.params.Model)
	assert.Equal(t, int64(defaultMaxTokens), stub.params.MaxTokens)
	require.Len(t, stub.params.System, 1)
	assert.Equal(t, "sys", stub.params.System[0].Text)

	stub.msg = &anthropic.Message{}
	_, err = c.Complete(context.Background(), "sys", "prompt")
	assert.Error(t, err)

	stub.err = errors.New("down")
	_, err = c.Complete(context.Background(), "sys", "prompt")
	assert.Error(t, err)
}

func TestOpenAICompleter(t *testing.T) {
	stub := &stubCompletions{completion: &openai.ChatCompletion{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Content: `{"reply":"ok"}`}},
	}}}
	c := newOpenAICompleter(stub, ProviderConfig{Model: "gpt-4o", MaxTokens: 200})

	out, err := c.Complete(context.Background(), "sys", "prompt")
	require.NoError(t, err)
	assert.Equal(t, `{"reply":"ok"}`, out)
	assert.Equal(t, "gpt-4o", string(stub.params.Model))
	assert.Len(t, stub.params.Messages, 2)

	stub.completion = &openai.ChatCompletion{}
	_, err = c.Complete(context.Background(), "sys", "prompt")
	assert.Error(t, err)
}

func TestProviderConstructorsRequireKey(t *testing.T) {
	_, err := NewAnthropic(ProviderConfig{})
	assert.Error(t, err)
	_, err = NewOpenAI(ProviderConfig{APIKey: " "})
	assert.Error(t, err)
}
