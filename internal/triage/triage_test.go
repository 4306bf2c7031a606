package triage

import (
	"context"

	"github.com/spec-kit/servicedesk/internal/llm"
)

type stubLLM struct {
	result *llm.Result
	err    error
	calls  int
	last   llm.Request
}

func (s *stubLLM) Complete(_ context.Context, req llm.Request) (*llm.Result, error) {
	s.calls++
	s.last = req
	return s.result, s.err
}
