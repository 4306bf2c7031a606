package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// AgentRepository handles persistence for the agent roster.
type AgentRepository interface {
	Create(ctx context.Context, agent *domain.Agent) error
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	GetByEmail(ctx context.Context, email string) (*domain.Agent, error)
	List(ctx context.Context, filter AgentFilter) ([]domain.Agent, error)
	// IncrementWorkload commits an assignment. It returns ErrStale when the
	// agent is no longer active.
	IncrementWorkload(ctx context.Context, id string) error
	DecrementWorkload(ctx context.Context, id string) error
}

// AgentFilter defines query params for roster listing.
type AgentFilter struct {
	Status *domain.AgentStatus
	Role   *domain.AgentRole
	Limit  int
}

type agentRepository struct {
	pool *pgxpool.Pool
}

// NewAgentRepository instantiates the repository.
func NewAgentRepository(pool *pgxpool.Pool) AgentRepository {
	return &agentRepository{pool: pool}
}

const agentColumns = `id, name, email, password_hash, role, skills, workload, status, created_at, updated_at`

func (r *agentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	if r.pool == nil {
		return ErrUnavailable
	}
	skills, err := json.Marshal(agent.Skills)
	if err != nil {
		return fmt.Errorf("encode skills: %w", err)
	}
	const query = `
        INSERT INTO agents (name, email, password_hash, role, skills, workload, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (email) DO UPDATE SET name=EXCLUDED.name, role=EXCLUDED.role, skills=EXCLUDED.skills,
            status=EXCLUDED.status, updated_at=NOW()
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		agent.Name,
		agent.Email,
		agent.PasswordHash,
		agent.Role,
		skills,
		agent.Workload,
		agent.Status,
	).Scan(&agent.ID, &agent.CreatedAt, &agent.UpdatedAt)
}

func (r *agentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	if r.pool == nil {
		return nil, ErrUnavailable
	}
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id=$1`
	return scanAgent(r.pool.QueryRow(ctx, query, id))
}

func (r *agentRepository) GetByEmail(ctx context.Context, email string) (*domain.Agent, error) {
	if r.pool == nil {
		return nil, ErrUnavailable
	}
	query := `SELECT ` + agentColumns + ` FROM agents WHERE email=$1`
	return scanAgent(r.pool.QueryRow(ctx, query, email))
}

func (r *agentRepository) List(ctx context.Context, filter AgentFilter) ([]domain.Agent, error) {
	if r.pool == nil {
		return nil, ErrUnavailable
	}
	query := `SELECT ` + agentColumns + ` FROM agents`
	args := []any{}
	clauses := []string{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Role != nil {
		args = append(args, *filter.Role)
		clauses = append(clauses, fmt.Sprintf("role=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY id"
	limit := filter.Limit
	if limit <= 0 {
		limit = 500
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *agent)
	}
	return result, rows.Err()
}

func (r *agentRepository) IncrementWorkload(ctx context.Context, id string) error {
	if r.pool == nil {
		return ErrUnavailable
	}
	const query = `
        UPDATE agents SET workload=workload+1, updated_at=NOW()
        WHERE id=$1 AND status='active'`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStale
	}
	return nil
}

func (r *agentRepository) DecrementWorkload(ctx context.Context, id string) error {
	if r.pool == nil {
		return ErrUnavailable
	}
	const query = `
        UPDATE agents SET workload=GREATEST(workload-1, 0), updated_at=NOW()
        WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanAgent(row pgx.Row) (*domain.Agent, error) {
	var (
		agent  domain.Agent
		skills []byte
	)
	if err := row.Scan(
		&agent.ID,
		&agent.Name,
		&agent.Email,
		&agent.PasswordHash,
		&agent.Role,
		&skills,
		&agent.Workload,
		&agent.Status,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	); err != nil {
		return nil, err
	}
	agent.Skills = map[domain.Category]int{}
	if len(skills) > 0 {
		if err := json.Unmarshal(skills, &agent.Skills); err != nil {
			return nil, fmt.Errorf("decode skills of agent %s: %w", agent.ID, err)
		}
	}
	return &agent, nil
}
