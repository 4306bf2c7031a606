package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/servicedesk/internal/domain"
)

// ArticleRepository reads knowledge-base articles and records reader votes.
type ArticleRepository interface {
	Create(ctx context.Context, article *domain.Article) error
	GetByID(ctx context.Context, id string) (*domain.Article, error)
	// List returns at most limit articles, most recently updated first.
	List(ctx context.Context, limit int) ([]domain.Article, error)
	RecordVote(ctx context.Context, id string, helpful bool) (*domain.Article, error)
	IncrementViews(ctx context.Context, ids []string) error
}

type articleRepository struct {
	pool *pgxpool.Pool
}

// NewArticleRepository instantiates the repository.
func NewArticleRepository(pool *pgxpool.Pool) ArticleRepository {
	return &articleRepository{pool: pool}
}

const articleColumns = `id, title, content, category, tags, author, views, helpful_votes, unhelpful_votes, created_at, updated_at`

func (r *articleRepository) Create(ctx context.Context, article *domain.Article) error {
	if r.pool == nil {
		return ErrUnavailable
	}
	const query = `
        INSERT INTO articles (title, content, category, tags, author)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		article.Title,
		article.Content,
		article.Category,
		nonNil(article.Tags),
		article.Author,
	).Scan(&article.ID, &article.CreatedAt, &article.UpdatedAt)
}

func (r *articleRepository) GetByID(ctx context.Context, id string) (*domain.Article, error) {
	if r.pool == nil {
		return nil, ErrUnavailable
	}
	query := `SELECT ` + articleColumns + ` FROM articles WHERE id=$1`
	return scanArticle(r.pool.QueryRow(ctx, query, id))
}

func (r *articleRepository) List(ctx context.Context, limit int) ([]domain.Article, error) {
	if r.pool == nil {
		return nil, ErrUnavailable
	}
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + articleColumns + ` FROM articles ORDER BY updated_at DESC, id LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *article)
	}
	return result, rows.Err()
}

func (r *articleRepository) RecordVote(ctx context.Context, id string, helpful bool) (*domain.Article, error) {
	if r.pool == nil {
		return nil, ErrUnavailable
	}
	query := `UPDATE articles SET unhelpful_votes=unhelpful_votes+1 WHERE id=$1 RETURNING ` + articleColumns
	if helpful {
		query = `UPDATE articles SET helpful_votes=helpful_votes+1 WHERE id=$1 RETURNING ` + articleColumns
	}
	return scanArticle(r.pool.QueryRow(ctx, query, id))
}

func (r *articleRepository) IncrementViews(ctx context.Context, ids []string) error {
	if r.pool == nil {
		return ErrUnavailable
	}
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `UPDATE articles SET views=views+1 WHERE id = ANY($1::uuid[])`, ids)
	return err
}

func scanArticle(row pgx.Row) (*domain.Article, error) {
	var article domain.Article
	if err := row.Scan(
		&article.ID,
		&article.Title,
		&article.Content,
		&article.Category,
		&article.Tags,
		&article.Author,
		&article.Views,
		&article.HelpfulVotes,
		&article.UnhelpfulVotes,
		&article.CreatedAt,
		&article.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &article, nil
}
