package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spec-kit/servicedesk/internal/domain"
)

const maxHistoryTurns = 6

const categorizeSystem = `You classify IT service-desk tickets.
Answer with a single JSON object and nothing else:
{"category": "<one of the allowed categories>", "confidence": <number 0..1>, "rationale": "<short reason>"}`

const rankSystem = `You rank knowledge-base articles by how well they resolve an IT support request.
Only use article ids from the provided list.
Answer with a single JSON object and nothing else:
{"ranking": [{"id": "<article id>", "score": <number 0..1>}]}`

const chatSystem = `You are the first-line IT service-desk assistant.
Give a short, practical answer. Refer to the provided articles when they help.
Answer with a single JSON object and nothing else:
{"reply": "<answer to the user>"}`

func buildPrompt(req Request) (system, prompt string, err error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return "", "", fmt.Errorf("empty %s request", req.Task)
	}
	var b strings.Builder
	switch req.Task {
	case TaskCategorize:
		categories := req.Categories
		if len(categories) == 0 {
			categories = domain.AllCategories()
		}
		labels := make([]string, 0, len(categories))
		for _, c := range categories {
			labels = append(labels, string(c))
		}
		fmt.Fprintf(&b, "Allowed categories: %s\n\nTicket:\n%s\n", strings.Join(labels, ", "), text)
		return categorizeSystem, b.String(), nil
	case TaskRankKB:
		if len(req.Articles) == 0 {
			return "", "", fmt.Errorf("rank-kb request without articles")
		}
		articles, err := json.Marshal(req.Articles)
		if err != nil {
			return "", "", err
		}
		fmt.Fprintf(&b, "Request:\n%s\n\nArticles:\n%s\n", text, articles)
		return rankSystem, b.String(), nil
	case TaskChatRespond:
		history := req.History
		if len(history) > maxHistoryTurns {
			history = history[len(history)-maxHistoryTurns:]
		}
		if len(history) > 0 {
			b.WriteString("Conversation so far:\n")
			for _, msg := range history {
				fmt.Fprintf(&b, "%s: %s\n", msg.Role, msg.Text)
			}
			b.WriteString("\n")
		}
		if len(req.Articles) > 0 {
			b.WriteString("Relevant articles:\n")
			for _, article := range req.Articles {
				fmt.Fprintf(&b, "- [%s] %s: %s\n", article.ID, article.Title, article.Summary)
			}
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "User message:\n%s\n", text)
		return chatSystem, b.String(), nil
	default:
		return "", "", fmt.Errorf("unknown task type %q", req.Task)
	}
}
