package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/servicedesk/internal/domain"
)

func TestAssessPriority(t *testing.T) {
	tests := []struct {
		name string
		text string
		want domain.TicketPriority
	}{
		{"urgency and impact", "URGENT: everyone is locked out, can't access email", domain.TicketPriorityCritical},
		{"urgency only", "the file server is down", domain.TicketPriorityHigh},
		{"impact only", "this is blocking the whole team", domain.TicketPriorityHigh},
		{"issue type only", "excel shows an error on save", domain.TicketPriorityMedium},
		{"nothing", "could I get a second monitor", domain.TicketPriorityLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AssessPriority(tt.text, DefaultTaxonomy()).Priority)
		})
	}
}

func TestAssessPriorityRecordsEvidence(t *testing.T) {
	a := AssessPriority("URGENT: everyone is locked out, can't access email", DefaultTaxonomy())
	assert.Equal(t, []string{"urgent"}, a.Urgency)
	assert.Equal(t, []string{"everyone"}, a.Impact)
}
