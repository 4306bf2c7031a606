package triage

// HumanContactMessage is appended to every escalated chat response.
const HumanContactMessage = "I'm connecting you with a member of the IT support team. An agent will follow up on this conversation shortly."

// EscalationReason explains a hand-off.
type EscalationReason string

const (
	EscalationKeyword       EscalationReason = "keyword"
	EscalationLowConfidence EscalationReason = "low_confidence"
)

// EscalationDecision is the per-message outcome of the Governor.
type EscalationDecision struct {
	Escalate        bool
	Reasons         []EscalationReason
	MatchedKeywords []string
}

// ChatConfidence is the fixed confidence assigned to a chat response.
type ChatConfidence struct {
	LLM      float64
	Fallback float64
}

func DefaultChatConfidence() ChatConfidence {
	return ChatConfidence{LLM: 0.8, Fallback: 0.3}
}

// For returns the confidence for a response that did or did not use the model.
func (c ChatConfidence) For(llmUsed bool) float64 {
	if llmUsed {
		return c.LLM
	}
	return c.Fallback
}

// Governor decides when a chat turn must be handed to a human.
type Governor struct {
	keywords  []string
	threshold float64
}

// NewGovernor uses the taxonomy's escalation keywords. A non-positive
// threshold selects 0.5.
func NewGovernor(taxonomy *Taxonomy, threshold float64) *Governor {
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy()
	}
	if threshold <= 0 {
		threshold = 0.5
	}
	return &Governor{keywords: taxonomy.EscalationKeywords(), threshold: threshold}
}

// Decide escalates on any escalation keyword regardless of confidence, or
// when confidence is below the threshold.
func (g *Governor) Decide(text string, confidence float64) EscalationDecision {
	var d EscalationDecision
	d.MatchedKeywords = matchKeywords(normalizeText(text), g.keywords)
	if len(d.MatchedKeywords) > 0 {
		d.Reasons = append(d.Reasons, EscalationKeyword)
	}
	if confidence < g.threshold {
		d.Reasons = append(d.Reasons, EscalationLowConfidence)
	}
	d.Escalate = len(d.Reasons) > 0
	return d
}
