package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// KBSuggestionRepository stores ranked article suggestions and their review state.
type KBSuggestionRepository interface {
	Create(ctx context.Context, suggestion *domain.KBSuggestion) error
	GetByID(ctx context.Context, id string) (*domain.KBSuggestion, error)
	List(ctx context.Context, status *domain.KBSuggestionStatus, limit int) ([]domain.KBSuggestion, error)
	// UpdateReview stores a review only if the stored status still equals
	// expected; otherwise it returns ErrStale.
	UpdateReview(ctx context.Context, suggestion *domain.KBSuggestion, expected domain.KBSuggestionStatus) error
}

type kbSuggestionRepository struct {
	pool *pgxpool.Pool
}

// NewKBSuggestionRepository instantiates the repository.
func NewKBSuggestionRepository(pool *pgxpool.Pool) KBSuggestionRepository {
	return &kbSuggestionRepository{pool: pool}
}

const kbSuggestionColumns = `id, ticket_id, articles, status, feedback, reviewed_by, created_at, updated_at`

func (r *kbSuggestionRepository) Create(ctx context.Context, suggestion *domain.KBSuggestion) error {
	if r.pool == nil {
		return ErrUnavailable
	}
	articles, err := encodeCandidates(suggestion.Articles)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO kb_suggestions (ticket_id, articles, status)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		suggestion.TicketID,
		articles,
		suggestion.Status,
	).Scan(&suggestion.ID, &suggestion.CreatedAt, &suggestion.UpdatedAt)
}

func (r *kbSuggestionRepository) GetByID(ctx context.Context, id string) (*domain.KBSuggestion, error) {
	if r.pool == nil {
		return nil, ErrUnavailable
	}
	query := `SELECT ` + kbSuggestionColumns + ` FROM kb_suggestions WHERE id=$1`
	return scanKBSuggestion(r.pool.QueryRow(ctx, query, id))
}

func (r *kbSuggestionRepository) List(ctx context.Context, status *domain.KBSuggestionStatus, limit int) ([]domain.KBSuggestion, error) {
	if r.pool == nil {
		return nil, ErrUnavailable
	}
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + kbSuggestionColumns + ` FROM kb_suggestions`
	args := []any{}
	if status != nil {
		args = append(args, *status)
		query += fmt.Sprintf(" WHERE status=$%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at ASC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.KBSuggestion
	for rows.Next() {
		suggestion, err := scanKBSuggestion(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *suggestion)
	}
	return result, rows.Err()
}

func (r *kbSuggestionRepository) UpdateReview(ctx context.Context, suggestion *domain.KBSuggestion, expected domain.KBSuggestionStatus) error {
	if r.pool == nil {
		return ErrUnavailable
	}
	articles, err := encodeCandidates(suggestion.Articles)
	if err != nil {
		return err
	}
	const query = `
        UPDATE kb_suggestions SET articles=$1, status=$2, feedback=$3, reviewed_by=$4, updated_at=NOW()
        WHERE id=$5 AND status=$6
        RETURNING updated_at`
	err = r.pool.QueryRow(ctx, query,
		articles,
		suggestion.Status,
		suggestion.Feedback,
		suggestion.ReviewedBy,
		suggestion.ID,
		expected,
	).Scan(&suggestion.UpdatedAt)
	if IsNotFound(err) {
		return ErrStale
	}
	return err
}

func encodeCandidates(in []domain.ArticleCandidate) ([]byte, error) {
	if in == nil {
		in = []domain.ArticleCandidate{}
	}
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode suggestion articles: %w", err)
	}
	return raw, nil
}

func scanKBSuggestion(row pgx.Row) (*domain.KBSuggestion, error) {
	var (
		suggestion domain.KBSuggestion
		articles   []byte
	)
	if err := row.Scan(
		&suggestion.ID,
		&suggestion.TicketID,
		&articles,
		&suggestion.Status,
		&suggestion.Feedback,
		&suggestion.ReviewedBy,
		&suggestion.CreatedAt,
		&suggestion.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(articles, &suggestion.Articles); err != nil {
		return nil, fmt.Errorf("decode suggestion %s: %w", suggestion.ID, err)
	}
	return &suggestion, nil
}
