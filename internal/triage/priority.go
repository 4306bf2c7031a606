package triage

import "github.com/spec-kit/servicedesk/internal/domain"

// PriorityAssessment is the outcome of the rule-based priority classifier.
// It is independent of category confidence.
type PriorityAssessment struct {
	Priority  domain.TicketPriority `json:"priority"`
	Urgency   []string              `json:"urgency_keywords,omitempty"`
	Impact    []string              `json:"impact_keywords,omitempty"`
	IssueType []string              `json:"issue_keywords,omitempty"`
}

// AssessPriority derives priority from urgency, impact and issue-type keywords.
func AssessPriority(text string, taxonomy *Taxonomy) PriorityAssessment {
	normalized := normalizeText(text)
	a := PriorityAssessment{
		Urgency:   matchKeywords(normalized, taxonomy.urgency),
		Impact:    matchKeywords(normalized, taxonomy.impact),
		IssueType: matchKeywords(normalized, taxonomy.issueType),
	}
	urgent := len(a.Urgency) > 0
	impactful := len(a.Impact) > 0
	switch {
	case urgent && impactful:
		a.Priority = domain.TicketPriorityCritical
	case urgent || impactful:
		a.Priority = domain.TicketPriorityHigh
	case len(a.IssueType) > 0:
		a.Priority = domain.TicketPriorityMedium
	default:
		a.Priority = domain.TicketPriorityLow
	}
	return a
}
