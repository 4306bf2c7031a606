package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/observability"
	"github.com/spec-kit/servicedesk/internal/repository"
	"github.com/spec-kit/servicedesk/internal/triage"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

const (
	maxTitleRunes       = 200
	maxDescriptionRunes = 10000
	maxTags             = 20
)

// TicketIntake is a requester's submission. Category and Priority are
// optional; when given they are authoritative over the automated result.
type TicketIntake struct {
	Title       string
	Description string
	Category    string
	Priority    string
	Tags        []string
}

// TriageOutcome is what the requester gets back for a new ticket.
type TriageOutcome struct {
	Ticket         *domain.Ticket
	Categorization triage.Categorization
	Suggestions    []domain.ArticleCandidate
	KBSuggestionID *string
	Routing        *triage.RoutingProposal
	Assigned       bool
	// Degraded is set when articles or agents were not read from the
	// primary store.
	Degraded bool
	Sources  map[string]DataSource
	Warnings []string
}

// TriageService runs the new-ticket pipeline and decides which computed
// values become authoritative ticket fields.
type TriageService struct {
	tickets     repository.TicketRepository
	suggestions repository.KBSuggestionRepository
	catalog     *Catalog
	snapshots   SnapshotStore
	categorizer *triage.Categorizer
	ranker      *triage.KBRanker
	router      triage.Router
	audit       auditTrail
	assigner    *assigner
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// TriageDependencies bundles collaborators for the triage service.
type TriageDependencies struct {
	TicketRepo       repository.TicketRepository
	HistoryRepo      repository.TicketHistoryRepository
	KBSuggestionRepo repository.KBSuggestionRepository
	AgentRepo        repository.AgentRepository
	Catalog          *Catalog
	Snapshots        SnapshotStore
	Categorizer      *triage.Categorizer
	Ranker           *triage.KBRanker
	Router           triage.Router
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
	Metrics          *observability.Metrics
}

func NewTriageService(deps TriageDependencies) *TriageService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	audit := auditTrail{repo: deps.HistoryRepo}
	return &TriageService{
		tickets:     deps.TicketRepo,
		suggestions: deps.KBSuggestionRepo,
		catalog:     deps.Catalog,
		snapshots:   deps.Snapshots,
		categorizer: deps.Categorizer,
		ranker:      deps.Ranker,
		router:      deps.Router,
		audit:       audit,
		assigner: &assigner{
			tickets:    deps.TicketRepo,
			agents:     deps.AgentRepo,
			audit:      audit,
			dispatcher: deps.Dispatcher,
			logger:     logger,
		},
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// SubmitTicket validates, triages and stores a new ticket. Model and read
// failures degrade; only invalid input and a failed ticket write are errors.
func (s *TriageService) SubmitTicket(ctx context.Context, requesterID string, intake TicketIntake) (*TriageOutcome, error) {
	ticket, manualCategory, manualPriority, err := newTicketFromIntake(requesterID, intake)
	if err != nil {
		return nil, err
	}
	text := ticket.Text()

	var (
		result        triage.Categorization
		ranking       triage.KBRanking
		roster        []domain.Agent
		articleSource DataSource
		agentSource   DataSource
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		result, err = s.categorizer.Categorize(gctx, text)
		return err
	})
	g.Go(func() error {
		var articles []domain.Article
		articles, articleSource = s.catalog.Articles(gctx, s.ranker.PoolCap())
		ranking = s.ranker.Rank(gctx, text, articles)
		return nil
	})
	g.Go(func() error {
		roster, agentSource = s.catalog.ActiveAgents(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, triage.ErrEmptyText) {
			return nil, apperrors.NewValidationError("ticket text is empty", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}

	decision := applyCategorization(ticket, result, manualCategory, manualPriority)
	ticket.Tags = mergeTags(intake.Tags, result.Evidence)

	outcome := &TriageOutcome{
		Ticket:         ticket,
		Categorization: result,
		Suggestions:    ranking.Articles,
		Sources:        map[string]DataSource{"articles": articleSource, "agents": agentSource},
		Degraded:       articleSource.Degraded() || agentSource.Degraded(),
	}

	var proposal *triage.RoutingProposal
	if ticket.Category != nil {
		if p, ok := s.router.Propose(*ticket.Category, ticket.Priority, roster); ok {
			proposal = &p
		}
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		s.logger.Error("ticket write failed", zap.String("external_key", ticket.ExternalKey), zap.Error(err))
		return nil, apperrors.NewPersistenceUnavailable("ticket", err)
	}

	if err := s.recordCategorization(ctx, ticket, result, decision); err != nil {
		outcome.Warnings = append(outcome.Warnings, "categorization history not recorded")
		s.logger.Error("record categorization", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}

	if len(ranking.Articles) > 0 && s.suggestions != nil {
		suggestion := &domain.KBSuggestion{
			TicketID: ticket.ID,
			Articles: ranking.Articles,
			Status:   domain.KBSuggestionPending,
		}
		if err := s.suggestions.Create(ctx, suggestion); err != nil {
			outcome.Warnings = append(outcome.Warnings, "knowledge-base suggestion not stored")
			s.logger.Error("store kb suggestion", zap.String("ticket_id", ticket.ID), zap.Error(err))
		} else {
			outcome.KBSuggestionID = &suggestion.ID
		}
	}

	if proposal != nil {
		switch {
		case agentSource.Degraded():
			outcome.Routing = proposal
			outcome.Warnings = append(outcome.Warnings, "routing proposal from "+string(agentSource)+" roster not committed")
			s.metrics.RecordRouting(string(proposal.Reason), "proposed_only")
		default:
			final, warnings, err := s.commitAssignment(ctx, ticket, *proposal, roster)
			outcome.Routing = &final
			outcome.Warnings = append(outcome.Warnings, warnings...)
			if err != nil {
				outcome.Warnings = append(outcome.Warnings, "assignment not committed")
				s.logger.Warn("assignment commit failed",
					zap.String("ticket_id", ticket.ID),
					zap.String("agent_id", final.AgentID),
					zap.Error(err))
				s.metrics.RecordRouting(string(final.Reason), "failed")
			} else {
				outcome.Assigned = true
				s.metrics.RecordRouting(string(final.Reason), "committed")
			}
		}
	}

	if s.snapshots != nil {
		if err := s.snapshots.SaveTicket(ctx, ticket); err != nil {
			s.logger.Debug("ticket snapshot not cached", zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
	}

	source := string(result.Source)
	if manualCategory != nil {
		source = string(domain.CategorySourceManual)
	}
	s.metrics.RecordCategorization(string(decision), source)
	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:     events.EventTicketTriaged,
		TicketID: ticket.ID,
		Actor:    userActor(requesterID),
		Payload: events.TicketTriagedPayload{
			Category:   ticket.Category,
			Confidence: ticket.Confidence,
			Decision:   string(decision),
			Priority:   ticket.Priority,
			LLMUsed:    result.LLMUsed,
		},
	})
	return outcome, nil
}

// commitAssignment applies a proposal. A proposal gone stale because the
// agent left the active roster is re-routed once without that agent.
func (s *TriageService) commitAssignment(ctx context.Context, ticket *domain.Ticket, proposal triage.RoutingProposal, roster []domain.Agent) (triage.RoutingProposal, []string, error) {
	actor := systemActor()
	warnings, err := s.assigner.assign(ctx, actor, ticket, proposal.AgentID, proposal.AgentName, string(proposal.Reason))
	if !errors.Is(err, repository.ErrStale) {
		return proposal, warnings, err
	}
	s.logger.Info("routing proposal stale, re-routing",
		zap.String("ticket_id", ticket.ID), zap.String("agent_id", proposal.AgentID))
	next, ok := s.router.Propose(proposal.Category, proposal.Priority, withoutAgent(roster, proposal.AgentID))
	if !ok {
		return proposal, nil, err
	}
	warnings, err = s.assigner.assign(ctx, actor, ticket, next.AgentID, next.AgentName, string(next.Reason))
	return next, warnings, err
}

func (s *TriageService) recordCategorization(ctx context.Context, ticket *domain.Ticket, result triage.Categorization, decision triage.Decision) error {
	candidates := make([]map[string]any, 0, len(result.Candidates))
	for _, c := range result.Candidates {
		candidates = append(candidates, map[string]any{
			"category":   string(c.Category),
			"confidence": c.Confidence,
			"source":     string(c.Source),
			"evidence":   c.Evidence,
		})
	}
	newValue := map[string]any{
		"category":             categoryValue(ticket.Category),
		"category_source":      string(ticket.CategorySource),
		"confidence":           ticket.Confidence,
		"decision":             string(decision),
		"suggested_category":   categoryValue(ticket.SuggestedCategory),
		"suggested_confidence": ticket.SuggestedConfidence,
		"evidence":             result.Evidence,
		"candidates":           candidates,
		"priority":             string(ticket.Priority),
		"priority_evidence":    result.Priority,
		"llm_used":             result.LLMUsed,
		"status":               string(ticket.Status),
	}
	if result.Rationale != "" {
		newValue["rationale"] = result.Rationale
	}
	if result.LLMFailure != "" {
		newValue["llm_failure"] = string(result.LLMFailure)
	}
	return s.audit.record(ctx, systemActor(), ticket.ID, domain.ChangeTypeCategorization, map[string]any{}, newValue)
}

func newTicketFromIntake(requesterID string, intake TicketIntake) (*domain.Ticket, *domain.Category, *domain.TicketPriority, error) {
	title := strings.TrimSpace(intake.Title)
	description := strings.TrimSpace(intake.Description)
	details := map[string]any{}
	if title == "" {
		details["title"] = "required"
	} else if utf8.RuneCountInString(title) > maxTitleRunes {
		details["title"] = "too long"
	}
	if utf8.RuneCountInString(description) > maxDescriptionRunes {
		details["description"] = "too long"
	}
	if len(intake.Tags) > maxTags {
		details["tags"] = "too many"
	}

	var category *domain.Category
	if label := strings.TrimSpace(intake.Category); label != "" {
		c, ok := domain.ParseCategory(label)
		if !ok {
			details["category"] = "not in taxonomy"
		} else {
			category = &c
		}
	}
	var priority *domain.TicketPriority
	if raw := strings.TrimSpace(intake.Priority); raw != "" {
		p := domain.TicketPriority(strings.ToLower(raw))
		if !p.Valid() {
			details["priority"] = "must be low, medium, high or critical"
		} else {
			priority = &p
		}
	}
	if len(details) > 0 {
		return nil, nil, nil, apperrors.NewValidationError("invalid ticket", details)
	}
	return &domain.Ticket{
		ExternalKey: generateTicketKey(),
		RequesterID: requesterID,
		Title:       title,
		Description: description,
		Status:      domain.TicketStatusCreated,
	}, category, priority, nil
}

// applyCategorization sets the authoritative fields. A requester-supplied
// category wins; the automated result is always kept as the suggestion.
func applyCategorization(ticket *domain.Ticket, result triage.Categorization, manualCategory *domain.Category, manualPriority *domain.TicketPriority) triage.Decision {
	if top, ok := result.Top(); ok {
		category := top.Category
		ticket.SuggestedCategory = &category
		ticket.SuggestedConfidence = top.Confidence
	}
	ticket.Evidence = append([]string(nil), result.Evidence...)

	ticket.Priority = result.Priority.Priority
	if manualPriority != nil {
		ticket.Priority = *manualPriority
	}

	if manualCategory != nil {
		ticket.Category = manualCategory
		ticket.CategorySource = domain.CategorySourceManual
		ticket.Confidence = 1
		ticket.Status = domain.TicketStatusCategorized
		return result.Decision
	}

	ticket.Confidence = result.Confidence
	switch result.Decision {
	case triage.DecisionAutoApplied:
		ticket.Category = result.Category
		ticket.CategorySource = domain.CategorySourceAIAuto
		ticket.Status = domain.TicketStatusCategorized
	case triage.DecisionSuggested:
		ticket.Category = result.Category
		ticket.CategorySource = domain.CategorySourceAISuggested
		ticket.Status = domain.TicketStatusCategorized
	default:
		ticket.Category = nil
		ticket.CategorySource = domain.CategorySourceNone
		ticket.Status = domain.TicketStatusCreated
	}
	return result.Decision
}
