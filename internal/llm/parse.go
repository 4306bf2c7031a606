package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/spec-kit/servicedesk/internal/domain"
)

type categorizePayload struct {
	Category   string   `json:"category"`
	Confidence *float64 `json:"confidence"`
	Rationale  string   `json:"rationale"`
}

type rankPayload struct {
	Ranking []struct {
		ID    string   `json:"id"`
		Score *float64 `json:"score"`
	} `json:"ranking"`
}

type chatPayload struct {
	Reply string `json:"reply"`
}

func parseResult(req Request, raw string) (*Result, error) {
	body, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}
	result := &Result{Task: req.Task}
	switch req.Task {
	case TaskCategorize:
		var p categorizePayload
		if err := decodeJSON(body, &p); err != nil {
			return nil, err
		}
		category, ok := domain.ParseCategory(p.Category)
		if !ok {
			return nil, fmt.Errorf("unknown category %q", p.Category)
		}
		if p.Confidence == nil || !inUnitRange(*p.Confidence) {
			return nil, errors.New("confidence missing or outside [0,1]")
		}
		result.Category = &CategoryResult{
			Category:   category,
			Confidence: *p.Confidence,
			Rationale:  strings.TrimSpace(p.Rationale),
		}
	case TaskRankKB:
		var p rankPayload
		if err := decodeJSON(body, &p); err != nil {
			return nil, err
		}
		if len(p.Ranking) == 0 {
			return nil, errors.New("empty ranking")
		}
		seen := make(map[string]struct{}, len(p.Ranking))
		for _, entry := range p.Ranking {
			id := strings.TrimSpace(entry.ID)
			if id == "" || entry.Score == nil || !inUnitRange(*entry.Score) {
				return nil, fmt.Errorf("invalid ranking entry %q", entry.ID)
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			result.Ranking = append(result.Ranking, ArticleScore{ArticleID: id, Score: *entry.Score})
		}
	case TaskChatRespond:
		var p chatPayload
		if err := decodeJSON(body, &p); err != nil {
			return nil, err
		}
		reply := strings.TrimSpace(p.Reply)
		if reply == "" {
			return nil, errors.New("empty reply")
		}
		result.Reply = reply
	default:
		return nil, fmt.Errorf("unknown task type %q", req.Task)
	}
	return result, nil
}

// extractJSON strips code fences and surrounding prose, keeping the
// outermost object.
func extractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.Index(s, "{")
	if start < 0 {
		return "", errors.New("no JSON object in response")
	}
	end := strings.LastIndex(s, "}")
	if end < start {
		// Truncated output; let the repair step close it.
		return s[start:], nil
	}
	return s[start : end+1], nil
}

func decodeJSON(body string, v any) error {
	if err := json.Unmarshal([]byte(body), v); err == nil {
		return nil
	}
	repaired, err := jsonrepair.JSONRepair(body)
	if err != nil {
		return fmt.Errorf("repair response: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func inUnitRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
