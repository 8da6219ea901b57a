package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prepdesk/prepdesk-backend/internal/model"
)

var ErrExamNotFound = errors.New("exam not found")

// ExamRepository handles exam configuration data access.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

// ListPublished retrieves lobby summaries of all published exams, newest
// first.
func (r *ExamRepository) ListPublished(ctx context.Context) ([]model.ExamSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.title, e.duration_minutes, e.status, e.created_at,
		        (SELECT COUNT(*) FROM questions q
		         JOIN sections s ON q.section_id = s.id
		         WHERE s.exam_id = e.id) AS question_count
		 FROM exams e
		 WHERE e.status = 'PUBLISHED'
		 ORDER BY e.created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []model.ExamSummary
	for rows.Next() {
		var e model.ExamSummary
		if err := rows.Scan(&e.ID, &e.Title, &e.DurationMinutes, &e.Status, &e.CreatedAt, &e.QuestionCount); err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, rows.Err()
}

// GetConfiguration assembles the full exam configuration: the exam row,
// its sections in position order, and each section's questions in position
// order.
func (r *ExamRepository) GetConfiguration(ctx context.Context, examID string) (*model.ExamConfiguration, error) {
	cfg := &model.ExamConfiguration{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, duration_minutes, instructions, languages
		 FROM exams WHERE id = $1 AND status = 'PUBLISHED'`, examID,
	).Scan(&cfg.ID, &cfg.Title, &cfg.DurationMinutes, &cfg.Instructions, &cfg.Languages)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}

	sections, err := r.loadSections(ctx, examID)
	if err != nil {
		return nil, err
	}
	cfg.Sections = sections
	return cfg, nil
}

func (r *ExamRepository) loadSections(ctx context.Context, examID string) ([]model.Section, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name FROM sections WHERE exam_id = $1 ORDER BY position`, examID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []model.Section
	for rows.Next() {
		var s model.Section
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range sections {
		questions, err := r.loadQuestions(ctx, sections[i].ID)
		if err != nil {
			return nil, err
		}
		sections[i].Questions = questions
	}
	return sections, nil
}

func (r *ExamRepository) loadQuestions(ctx context.Context, sectionID string) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, type, marks, negative_marks, question_set_id, body
		 FROM questions WHERE section_id = $1 ORDER BY position`, sectionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		var setID *string
		if err := rows.Scan(&q.ID, &q.Type, &q.Marks, &q.NegativeMarks, &setID, &q.Body); err != nil {
			return nil, err
		}
		if setID != nil {
			q.QuestionSetID = *setID
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
