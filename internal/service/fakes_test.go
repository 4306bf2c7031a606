package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/servicedesk/internal/cache"
	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/llm"
	"github.com/spec-kit/servicedesk/internal/repository"
)

type fakeTickets struct {
	mu        sync.Mutex
	rows      map[string]domain.Ticket
	seq       int
	createErr error
	updateErr error
	readErr   error
}

func newFakeTickets() *fakeTickets {
	return &fakeTickets{rows: map[string]domain.Ticket{}}
}

func (f *fakeTickets) Create(_ context.Context, t *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.seq++
	t.ID = fmt.Sprintf("ticket-%d", f.seq)
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	f.rows[t.ID] = *t
	return nil
}

func (f *fakeTickets) Update(_ context.Context, t *domain.Ticket, from domain.TicketStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	stored, ok := f.rows[t.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Status != from {
		return repository.ErrStale
	}
	f.rows[t.ID] = *t
	return nil
}

func (f *fakeTickets) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	t, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (f *fakeTickets) ListRecent(_ context.Context, limit int) ([]domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Ticket, 0, len(f.rows))
	for _, t := range f.rows {
		out = append(out, t)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []domain.TicketHistory
	err     error
}

func (f *fakeHistory) Create(_ context.Context, h *domain.TicketHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	h.ID = fmt.Sprintf("h-%d", len(f.entries)+1)
	f.entries = append(f.entries, *h)
	return nil
}

func (f *fakeHistory) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TicketHistory
	for _, h := range f.entries {
		if h.TicketID == ticketID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeHistory) ofType(change domain.TicketChangeType) []domain.TicketHistory {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.TicketHistory
	for _, h := range f.entries {
		if h.ChangeType == change {
			out = append(out, h)
		}
	}
	return out
}

type fakeAgents struct {
	mu      sync.Mutex
	rows    map[string]*domain.Agent
	listErr error
	// stale makes IncrementWorkload report ErrStale for these ids.
	stale map[string]bool
}

func newFakeAgents(agents ...domain.Agent) *fakeAgents {
	f := &fakeAgents{rows: map[string]*domain.Agent{}, stale: map[string]bool{}}
	for i := range agents {
		a := agents[i]
		f.rows[a.ID] = &a
	}
	return f
}

func (f *fakeAgents) Create(_ context.Context, a *domain.Agent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *a
	f.rows[a.ID] = &cp
	return nil
}

func (f *fakeAgents) GetByID(_ context.Context, id string) (*domain.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAgents) GetByEmail(_ context.Context, email string) (*domain.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.rows {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAgents) List(_ context.Context, _ repository.AgentFilter) ([]domain.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Agent, 0, len(f.rows))
	for _, a := range f.rows {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAgents) IncrementWorkload(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok || f.stale[id] || !a.Active() {
		return repository.ErrStale
	}
	a.Workload++
	return nil
}

func (f *fakeAgents) DecrementWorkload(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.rows[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if a.Workload > 0 {
		a.Workload--
	}
	return nil
}

func (f *fakeAgents) workload(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id].Workload
}

type fakeArticles struct {
	mu      sync.Mutex
	rows    []domain.Article
	listErr error
	views   map[string]int
}

func (f *fakeArticles) Create(_ context.Context, a *domain.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *a)
	return nil
}

func (f *fakeArticles) GetByID(_ context.Context, id string) (*domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			a := f.rows[i]
			return &a, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeArticles) List(_ context.Context, limit int) ([]domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := append([]domain.Article(nil), f.rows...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeArticles) RecordVote(_ context.Context, id string, helpful bool) (*domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			if helpful {
				f.rows[i].HelpfulVotes++
			} else {
				f.rows[i].UnhelpfulVotes++
			}
			a := f.rows[i]
			return &a, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeArticles) IncrementViews(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.views == nil {
		f.views = map[string]int{}
	}
	for _, id := range ids {
		f.views[id]++
	}
	return nil
}

type fakeSuggestions struct {
	mu   sync.Mutex
	rows map[string]domain.KBSuggestion
	seq  int
	err  error
}

func newFakeSuggestions() *fakeSuggestions {
	return &fakeSuggestions{rows: map[string]domain.KBSuggestion{}}
}

func (f *fakeSuggestions) Create(_ context.Context, s *domain.KBSuggestion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.seq++
	s.ID = fmt.Sprintf("kb-%d", f.seq)
	f.rows[s.ID] = *s
	return nil
}

func (f *fakeSuggestions) GetByID(_ context.Context, id string) (*domain.KBSuggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	s.Articles = append([]domain.ArticleCandidate(nil), s.Articles...)
	return &s, nil
}

func (f *fakeSuggestions) List(_ context.Context, status *domain.KBSuggestionStatus, _ int) ([]domain.KBSuggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.KBSuggestion
	for _, s := range f.rows {
		if status == nil || s.Status == *status {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSuggestions) UpdateReview(_ context.Context, s *domain.KBSuggestion, expected domain.KBSuggestionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.rows[s.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if stored.Status != expected {
		return repository.ErrStale
	}
	f.rows[s.ID] = *s
	return nil
}

type fakeUsers struct {
	mu   sync.Mutex
	rows map[string]domain.User
	err  error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{rows: map[string]domain.User{}}
}

func (f *fakeUsers) Create(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	u.ID = fmt.Sprintf("user-%d", len(f.rows)+1)
	f.rows[u.ID] = *u
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.rows {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeSnapshots struct {
	mu       sync.Mutex
	articles []domain.Article
	agents   []domain.Agent
	tickets  map[string]domain.Ticket
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{tickets: map[string]domain.Ticket{}}
}

func (f *fakeSnapshots) SaveArticles(_ context.Context, a []domain.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.articles = append([]domain.Article(nil), a...)
	return nil
}

func (f *fakeSnapshots) LoadArticles(context.Context) ([]domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.articles == nil {
		return nil, cache.ErrMiss
	}
	return append([]domain.Article(nil), f.articles...), nil
}

func (f *fakeSnapshots) SaveAgents(_ context.Context, a []domain.Agent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agents = append([]domain.Agent(nil), a...)
	return nil
}

func (f *fakeSnapshots) LoadAgents(context.Context) ([]domain.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.agents == nil {
		return nil, cache.ErrMiss
	}
	return append([]domain.Agent(nil), f.agents...), nil
}

func (f *fakeSnapshots) SaveTicket(_ context.Context, t *domain.Ticket) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tickets[t.ID] = *t
	return nil
}

func (f *fakeSnapshots) LoadTicket(_ context.Context, id string) (*domain.Ticket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tickets[id]
	if !ok {
		return nil, cache.ErrMiss
	}
	return &t, nil
}

type fakeConversations struct {
	mu       sync.Mutex
	owners   map[string]string
	messages map[string][]domain.ChatMessage
	err      error
}

func newFakeConversations() *fakeConversations {
	return &fakeConversations{owners: map[string]string{}, messages: map[string][]domain.ChatMessage{}}
}

func (f *fakeConversations) Claim(_ context.Context, id, owner string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if current, ok := f.owners[id]; ok {
		return current == owner, nil
	}
	f.owners[id] = owner
	return true, nil
}

func (f *fakeConversations) Owner(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	owner, ok := f.owners[id]
	if !ok {
		return "", cache.ErrMiss
	}
	return owner, nil
}

func (f *fakeConversations) Append(_ context.Context, id string, msgs ...domain.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages[id] = append(f.messages[id], msgs...)
	return nil
}

func (f *fakeConversations) Load(_ context.Context, id string) ([]domain.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.ChatMessage(nil), f.messages[id]...), nil
}

type stubLLM struct {
	mu     sync.Mutex
	byTask map[llm.TaskType]*llm.Result
	err    error
	calls  []llm.Request
}

func (s *stubLLM) Complete(_ context.Context, req llm.Request) (*llm.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if s.err != nil {
		return nil, s.err
	}
	res, ok := s.byTask[req.Task]
	if !ok {
		return nil, &llm.Failure{Kind: llm.FailureUnavailable, Task: req.Task}
	}
	return res, nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, e events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type)
	}
	return out
}
