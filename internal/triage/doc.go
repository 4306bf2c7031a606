// Package triage holds the deterministic decision engines of the service
// desk: lexical scoring, confidence ranking, categorization, knowledge-base
// ranking, agent routing and chat escalation. Engines own no persisted state;
// an optional llm.Client augments categorization and ranking, and any failure
// of it falls back to the lexical result.
package triage
