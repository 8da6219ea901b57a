package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prepdesk/prepdesk-backend/internal/model"
)

// SubmissionRepository persists completed attempts.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Record UPSERTs a submission. A retried queue item overwrites the earlier
// row instead of duplicating it.
func (r *SubmissionRepository) Record(ctx context.Context, job *model.SubmissionJob) error {
	answers, err := json.Marshal(job.Answers)
	if err != nil {
		return err
	}
	stats, err := json.Marshal(job.Stats)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO submissions (exam_id, candidate_id, answers, stats, submitted_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (exam_id, candidate_id) DO UPDATE
		 SET answers = EXCLUDED.answers,
		     stats = EXCLUDED.stats,
		     submitted_at = EXCLUDED.submitted_at,
		     updated_at = NOW()`,
		job.ExamID, job.CandidateID, answers, stats, job.SubmittedAt,
	)
	return err
}

// GetByCandidate retrieves a candidate's submission for an exam, if any.
func (r *SubmissionRepository) GetByCandidate(ctx context.Context, examID string, candidateID int) (*model.Submission, error) {
	s := &model.Submission{}
	var stats json.RawMessage
	err := r.pool.QueryRow(ctx,
		`SELECT id, exam_id, candidate_id, answers, stats, submitted_at
		 FROM submissions WHERE exam_id = $1 AND candidate_id = $2`,
		examID, candidateID,
	).Scan(&s.ID, &s.ExamID, &s.CandidateID, &s.Answers, &stats, &s.SubmittedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(stats, &s.Stats); err != nil {
		return nil, err
	}
	return s, nil
}
