package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain", raw: `{"a":1}`, want: `{"a":1}`},
		{name: "fenced", raw: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "prose", raw: "Sure! {\"a\":1} hope that helps", want: `{"a":1}`},
		{name: "truncated", raw: `{"a":1`, want: `{"a":1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSON(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := extractJSON("no object here")
	assert.Error(t, err)
}

func TestParseResultRepairsTrailingComma(t *testing.T) {
	res, err := parseResult(Request{Task: TaskCategorize}, `{"category":"Security Incident","confidence":0.66,}`)
	require.NoError(t, err)
	assert.Equal(t, "Security Incident", string(res.Category.Category))
}

func TestParseResultRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		task TaskType
		raw  string
	}{
		{name: "missing confidence", task: TaskCategorize, raw: `{"category":"Other"}`},
		{name: "negative score", task: TaskRankKB, raw: `{"ranking":[{"id":"a","score":-1}]}`},
		{name: "empty ranking", task: TaskRankKB, raw: `{"ranking":[]}`},
		{name: "blank id", task: TaskRankKB, raw: `{"ranking":[{"id":" ","score":0.5}]}`},
		{name: "empty reply", task: TaskChatRespond, raw: `{"reply":"   "}`},
		{name: "unknown task", task: TaskType("summarize"), raw: `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseResult(Request{Task: tt.task}, tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestBuildPromptChatKeepsRecentHistory(t *testing.T) {
	req := Request{Task: TaskChatRespond, Text: "still broken"}
	for i := 0; i < 10; i++ {
		req.History = append(req.History, chatMessage(i))
	}
	_, prompt, err := buildPrompt(req)
	require.NoError(t, err)
	assert.NotContains(t, prompt, "message 3\n")
	assert.Contains(t, prompt, "message 4\n")
	assert.Contains(t, prompt, "message 9\n")
}

func TestBuildPromptRankRequiresArticles(t *testing.T) {
	_, _, err := buildPrompt(Request{Task: TaskRankKB, Text: "vpn"})
	assert.Error(t, err)
}
