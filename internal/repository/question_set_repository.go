package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prepdesk/prepdesk-backend/internal/model"
)

var ErrQuestionSetNotFound = errors.New("question set not found")

// QuestionSetRepository loads shared passage/puzzle content. It satisfies
// questionset.Fetcher.
type QuestionSetRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionSetRepository creates a new QuestionSetRepository.
func NewQuestionSetRepository(pool *pgxpool.Pool) *QuestionSetRepository {
	return &QuestionSetRepository{pool: pool}
}

// FetchQuestionSet retrieves a question set by ID.
func (r *QuestionSetRepository) FetchQuestionSet(ctx context.Context, id string) (*model.QuestionSet, error) {
	set := &model.QuestionSet{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, kind, title, content FROM question_sets WHERE id = $1`, id,
	).Scan(&set.ID, &set.Kind, &set.Title, &set.Content)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestionSetNotFound
		}
		return nil, err
	}
	return set, nil
}
