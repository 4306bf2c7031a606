package triage

import (
	"fmt"
	"strings"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// Taxonomy is the immutable keyword configuration shared by the engines.
// Construct it with NewTaxonomy or DefaultTaxonomy; accessors return copies.
type Taxonomy struct {
	categories []categoryKeywords
	urgency    []string
	impact     []string
	issueType  []string
	escalation []string
}

type categoryKeywords struct {
	category domain.Category
	keywords []string
}

// TaxonomyTable is the raw input for NewTaxonomy.
type TaxonomyTable struct {
	Categories map[domain.Category][]string
	Urgency    []string
	Impact     []string
	IssueType  []string
	Escalation []string
}

// NewTaxonomy validates the table and freezes it. Unknown categories are
// rejected so a typo can never create an unroutable category.
func NewTaxonomy(table TaxonomyTable) (*Taxonomy, error) {
	for category := range table.Categories {
		if !category.Valid() {
			return nil, fmt.Errorf("taxonomy: unknown category %q", category)
		}
	}
	t := &Taxonomy{
		urgency:    normalizeKeywords(table.Urgency),
		impact:     normalizeKeywords(table.Impact),
		issueType:  normalizeKeywords(table.IssueType),
		escalation: normalizeKeywords(table.Escalation),
	}
	for _, category := range domain.AllCategories() {
		keywords := normalizeKeywords(table.Categories[category])
		if len(keywords) == 0 {
			continue
		}
		t.categories = append(t.categories, categoryKeywords{category: category, keywords: keywords})
	}
	return t, nil
}

// DefaultTaxonomy returns the built-in keyword table.
func DefaultTaxonomy() *Taxonomy {
	t, err := NewTaxonomy(defaultTable())
	if err != nil {
		panic(err)
	}
	return t
}

// WithEscalationKeywords returns a copy using the given escalation keywords.
func (t *Taxonomy) WithEscalationKeywords(keywords []string) *Taxonomy {
	clone := *t
	clone.escalation = normalizeKeywords(keywords)
	return &clone
}

// Categories lists the categories that have keywords, in taxonomy order.
func (t *Taxonomy) Categories() []domain.Category {
	out := make([]domain.Category, 0, len(t.categories))
	for _, entry := range t.categories {
		out = append(out, entry.category)
	}
	return out
}

// Keywords returns the keywords of a category.
func (t *Taxonomy) Keywords(category domain.Category) []string {
	for _, entry := range t.categories {
		if entry.category == category {
			return cloneStrings(entry.keywords)
		}
	}
	return nil
}

// EscalationKeywords returns the chat hand-off keywords.
func (t *Taxonomy) EscalationKeywords() []string {
	return cloneStrings(t.escalation)
}

func normalizeKeywords(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, kw := range in {
		kw = normalizeText(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	return out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func defaultTable() TaxonomyTable {
	return TaxonomyTable{
		Categories: map[domain.Category][]string{
			domain.CategoryHardware: {
				"laptop", "computer", "desktop", "monitor", "keyboard", "mouse", "printer",
				"hardware", "battery", "blue screen", "won't boot", "docking", "headset", "disk",
			},
			domain.CategorySoftware: {
				"software", "install", "installation", "application", "app", "update", "crash",
				"license", "excel", "word", "teams", "program", "upgrade", "bug", "crm",
			},
			domain.CategoryNetwork: {
				"network", "wifi", "wi-fi", "internet", "vpn", "connection", "connectivity",
				"ethernet", "dns", "firewall", "router", "bandwidth", "offline",
			},
			domain.CategoryEmail: {
				"email", "e-mail", "outlook", "inbox", "mailbox", "calendar", "attachment",
				"spam", "exchange", "smtp", "distribution list",
			},
			domain.CategoryAccess: {
				"access", "password", "login", "log in", "locked", "account", "permission",
				"permissions", "mfa", "2fa", "credentials", "unlock", "sso",
			},
			domain.CategorySecurity: {
				"security", "phishing", "virus", "malware", "breach", "suspicious",
				"ransomware", "unauthorized", "hacked", "compromised",
			},
		},
		Urgency: []string{
			"urgent", "asap", "as soon as possible", "immediately", "emergency", "critical",
			"down", "outage", "crashed",
		},
		Impact: []string{
			"everyone", "all users", "entire", "whole team", "whole office", "all staff",
			"company-wide", "blocking", "blocked", "can't work", "cannot work",
		},
		IssueType: []string{
			"error", "broken", "not working", "doesn't work", "failed", "failing", "issue",
			"problem", "unable", "can't", "cannot", "slow",
		},
		Escalation: []string{
			"human", "agent", "real person", "speak to someone", "talk to someone",
			"representative", "escalate", "manager", "supervisor", "not helpful", "complaint",
		},
	}
}
