package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("TRIAGE_ESCALATION_KEYWORDS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.2, cfg.Triage.ConfidenceMultiplier)
	assert.Equal(t, 0.95, cfg.Triage.ConfidenceCap)
	assert.Equal(t, 3, cfg.Triage.MaxCandidates)
	assert.Equal(t, 0.8, cfg.Triage.AutoApplyThreshold)
	assert.Equal(t, 0.5, cfg.Triage.SuggestThreshold)
	assert.Equal(t, 100, cfg.KB.CandidatePool)
	assert.Equal(t, 5, cfg.KB.TopK)
	assert.Equal(t, 8*time.Second, cfg.LLM.Timeout())
	assert.False(t, cfg.LLM.Enabled())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TRIAGE_CONFIDENCE_MULTIPLIER", "0.25")
	t.Setenv("TRIAGE_ESCALATION_KEYWORDS", "human, lawyer ,,")
	t.Setenv("ROUTER_MAX_WORKLOAD", "8")
	t.Setenv("LLM_PROVIDER", "none")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.25, cfg.Triage.ConfidenceMultiplier)
	assert.Equal(t, []string{"human", "lawyer"}, cfg.Triage.EscalationKeywords)
	assert.Equal(t, 8, cfg.Router.MaxWorkload)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			LLM:    LLMConfig{Provider: "none", TimeoutSeconds: 8},
			Triage: TriageConfig{ConfidenceMultiplier: 0.2, ConfidenceCap: 0.95, MaxCandidates: 3, AutoApplyThreshold: 0.8, SuggestThreshold: 0.5},
			KB:     KBConfig{CandidatePool: 100, TopK: 5},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"cap above one", func(c *Config) { c.Triage.ConfidenceCap = 1.2 }},
		{"inverted thresholds", func(c *Config) { c.Triage.SuggestThreshold = 0.9 }},
		{"zero timeout", func(c *Config) { c.LLM.TimeoutSeconds = 0 }},
		{"provider without key", func(c *Config) { c.LLM.Provider = "anthropic" }},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "bard" }},
		{"negative workload", func(c *Config) { c.Router.MaxWorkload = -1 }},
		{"top k above five", func(c *Config) { c.KB.TopK = 6 }},
		{"pool above one hundred", func(c *Config) { c.KB.CandidatePool = 101 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadRejectsOversizedKBLimits(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "none")
	t.Setenv("KB_TOP_K", "12")
	t.Setenv("KB_CANDIDATE_POOL", "5000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KB_TOP_K")
	assert.Contains(t, err.Error(), "KB_CANDIDATE_POOL")
}
