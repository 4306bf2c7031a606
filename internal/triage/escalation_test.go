package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGovernorKeywordAlwaysEscalates(t *testing.T) {
	g := NewGovernor(DefaultTaxonomy(), 0.5)
	for _, confidence := range []float64{0, 0.5, 0.8, 0.95, 1} {
		d := g.Decide("This is not helpful, I want to talk to a human", confidence)
		assert.True(t, d.Escalate)
		assert.Contains(t, d.Reasons, EscalationKeyword)
		assert.Equal(t, []string{"human", "not helpful"}, d.MatchedKeywords)
	}
}

func TestGovernorConfidenceThreshold(t *testing.T) {
	g := NewGovernor(DefaultTaxonomy(), 0.5)

	d := g.Decide("how do I reset my password", 0.8)
	assert.False(t, d.Escalate)
	assert.Empty(t, d.Reasons)

	d = g.Decide("how do I reset my password", 0.5)
	assert.False(t, d.Escalate)

	d = g.Decide("how do I reset my password", 0.3)
	assert.True(t, d.Escalate)
	assert.Equal(t, []EscalationReason{EscalationLowConfidence}, d.Reasons)
}

func TestGovernorWholeWordsOnly(t *testing.T) {
	g := NewGovernor(DefaultTaxonomy(), 0.5)
	d := g.Decide("which user agents are supported", 0.8)
	assert.False(t, d.Escalate)
}

func TestGovernorCustomKeywords(t *testing.T) {
	g := NewGovernor(DefaultTaxonomy().WithEscalationKeywords([]string{"lawyer"}), 0)
	assert.True(t, g.Decide("I will call my lawyer", 0.9).Escalate)
	assert.False(t, g.Decide("please get me a human", 0.9).Escalate)
}

func TestChatConfidence(t *testing.T) {
	c := DefaultChatConfidence()
	assert.Equal(t, 0.8, c.For(true))
	assert.Equal(t, 0.3, c.For(false))
}
