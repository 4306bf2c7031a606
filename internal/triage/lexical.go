package triage

import (
	"unicode/utf8"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// LexicalScores is the raw keyword score per category with its evidence.
// Categories without any matched keyword are absent.
type LexicalScores struct {
	Scores   map[domain.Category]int
	Evidence map[domain.Category][]string
}

// ScoreLexical scores text against every category of the taxonomy. Each
// matched keyword contributes 2 when longer than four characters, else 1.
func ScoreLexical(text string, taxonomy *Taxonomy) LexicalScores {
	out := LexicalScores{
		Scores:   map[domain.Category]int{},
		Evidence: map[domain.Category][]string{},
	}
	normalized := normalizeText(text)
	for _, entry := range taxonomy.categories {
		matched := matchKeywords(normalized, entry.keywords)
		if len(matched) == 0 {
			continue
		}
		score := 0
		for _, kw := range matched {
			score += keywordWeight(kw)
		}
		out.Scores[entry.category] = score
		out.Evidence[entry.category] = matched
	}
	return out
}

// Empty reports whether no category matched.
func (s LexicalScores) Empty() bool {
	return len(s.Scores) == 0
}

func keywordWeight(keyword string) int {
	if utf8.RuneCountInString(keyword) > 4 {
		return 2
	}
	return 1
}
