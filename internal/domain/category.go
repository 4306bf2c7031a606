package domain

import "strings"

// Category is the closed set of ticket categories known to triage.
type Category string

const (
	CategoryHardware Category = "Hardware Issues"
	CategorySoftware Category = "Software Issues"
	CategoryNetwork  Category = "Network Issues"
	CategoryEmail    Category = "Email Issues"
	CategoryAccess   Category = "Access Request"
	CategorySecurity Category = "Security Incident"
	CategoryOther    Category = "Other"
)

var allCategories = []Category{
	CategoryHardware,
	CategorySoftware,
	CategoryNetwork,
	CategoryEmail,
	CategoryAccess,
	CategorySecurity,
	CategoryOther,
}

// AllCategories returns the taxonomy in display order.
func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// Valid reports whether c is a member of the taxonomy.
func (c Category) Valid() bool {
	for _, known := range allCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory resolves a label case-insensitively. Unknown labels are rejected.
func ParseCategory(label string) (Category, bool) {
	label = strings.TrimSpace(label)
	for _, known := range allCategories {
		if strings.EqualFold(string(known), label) {
			return known, true
		}
	}
	return "", false
}

// SuggestionSource identifies which method produced a category suggestion.
type SuggestionSource string

const (
	SourceLexical SuggestionSource = "lexical"
	SourceLLM     SuggestionSource = "llm"
)

// CategorySuggestion is a ranked, explainable category candidate.
type CategorySuggestion struct {
	Category   Category         `json:"category"`
	Confidence float64          `json:"confidence"`
	Evidence   []string         `json:"evidence"`
	Source     SuggestionSource `json:"source"`
}
