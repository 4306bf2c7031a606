package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	// Update writes ticket only while its stored status is still from. It
	// returns ErrStale when another change got there first.
	Update(ctx context.Context, ticket *domain.Ticket, from domain.TicketStatus) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListRecent(ctx context.Context, limit int) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, external_key, requester_user_id, assignee_agent_id, title, description,
               category, category_source, priority, status, confidence, suggested_category,
               suggested_confidence, evidence, tags, created_at, updated_at, closed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if r.pool == nil {
		return ErrUnavailable
	}
	const query = `
        INSERT INTO tickets (external_key, requester_user_id, assignee_agent_id, title, description,
            category, category_source, priority, status, confidence, suggested_category,
            suggested_confidence, evidence, tags)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ExternalKey,
		ticket.RequesterID,
		ticket.AssigneeID,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.CategorySource,
		ticket.Priority,
		ticket.Status,
		ticket.Confidence,
		ticket.SuggestedCategory,
		ticket.SuggestedConfidence,
		nonNil(ticket.Evidence),
		nonNil(ticket.Tags),
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket, from domain.TicketStatus) error {
	if r.pool == nil {
		return ErrUnavailable
	}
	const query = `
        UPDATE tickets SET assignee_agent_id=$1, category=$2, category_source=$3, priority=$4,
            status=$5, confidence=$6, evidence=$7, tags=$8, closed_at=$9, updated_at=NOW()
        WHERE id=$10 AND status=$11
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		ticket.AssigneeID,
		ticket.Category,
		ticket.CategorySource,
		ticket.Priority,
		ticket.Status,
		ticket.Confidence,
		nonNil(ticket.Evidence),
		nonNil(ticket.Tags),
		ticket.ClosedAt,
		ticket.ID,
		from,
	).Scan(&ticket.UpdatedAt)
	if !IsNotFound(err) {
		return err
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, ticket.ID).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrStale
	}
	return pgx.ErrNoRows
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if r.pool == nil {
		return nil, ErrUnavailable
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) ListRecent(ctx context.Context, limit int) ([]domain.Ticket, error) {
	if r.pool == nil {
		return nil, ErrUnavailable
	}
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY updated_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.RequesterID,
		&ticket.AssigneeID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.CategorySource,
		&ticket.Priority,
		&ticket.Status,
		&ticket.Confidence,
		&ticket.SuggestedCategory,
		&ticket.SuggestedConfidence,
		&ticket.Evidence,
		&ticket.Tags,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
