// Package llm wraps external completion services behind a strict request and
// response contract. Every failure is reported as a *Failure so callers can
// fall back to deterministic logic.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// TaskType selects the prompt and the response schema.
type TaskType string

const (
	TaskCategorize  TaskType = "categorize"
	TaskRankKB      TaskType = "rank-kb"
	TaskChatRespond TaskType = "chat-respond"
)

// FailureKind classifies why a call produced no usable result.
type FailureKind string

const (
	FailureTimeout     FailureKind = "timeout"
	FailureMalformed   FailureKind = "malformed_response"
	FailureUnavailable FailureKind = "unavailable"
)

// Failure is the only error type returned by Client implementations.
type Failure struct {
	Kind FailureKind
	Task TaskType
	Err  error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("llm %s: %s: %v", f.Task, f.Kind, f.Err)
	}
	return fmt.Sprintf("llm %s: %s", f.Task, f.Kind)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// KindOf extracts the failure kind of err. Errors that are not a *Failure
// are reported as unavailable.
func KindOf(err error) FailureKind {
	if err == nil {
		return ""
	}
	var failure *Failure
	if errors.As(err, &failure) {
		return failure.Kind
	}
	return FailureUnavailable
}

// ArticleRef is the compact article view sent to the model.
type ArticleRef struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// Request is the structured prompt payload.
type Request struct {
	Task       TaskType
	Text       string
	Categories []domain.Category
	Articles   []ArticleRef
	History    []domain.ChatMessage
	// Timeout bounds the external call. Zero selects the adapter default.
	Timeout time.Duration
}

// CategoryResult is the parsed answer of a categorize task.
type CategoryResult struct {
	Category   domain.Category
	Confidence float64
	Rationale  string
}

// ArticleScore is one entry of a rank-kb answer.
type ArticleScore struct {
	ArticleID string
	Score     float64
}

// Result is the parsed, validated answer. Exactly one payload field is set,
// matching Task.
type Result struct {
	Task     TaskType
	Provider string
	Category *CategoryResult
	Ranking  []ArticleScore
	Reply    string
	Latency  time.Duration
}

// Client is implemented by Adapter and by test doubles.
type Client interface {
	Complete(ctx context.Context, req Request) (*Result, error)
}

// Completer sends a system and user prompt to a provider and returns raw text.
type Completer interface {
	Name() string
	Complete(ctx context.Context, system, prompt string) (string, error)
}
