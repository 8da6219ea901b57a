package model

import (
	"encoding/json"
	"time"
)

// SubmissionJob is the queue payload for final submission persistence. The
// answers map covers every question in the configuration; unanswered
// questions carry an explicit JSON null.
type SubmissionJob struct {
	ExamID      string                     `json:"exam_id"`
	CandidateID int                        `json:"candidate_id"`
	Answers     map[string]json.RawMessage `json:"answers"`
	Stats       SessionStats               `json:"stats"`
	TimeTaken   map[string]int             `json:"time_taken,omitempty"`
	SubmittedAt time.Time                  `json:"submitted_at"`
}

// Submission is the persisted record of a completed attempt.
type Submission struct {
	ID          int             `json:"id"`
	ExamID      string          `json:"exam_id"`
	CandidateID int             `json:"candidate_id"`
	Answers     json.RawMessage `json:"answers"`
	Stats       SessionStats    `json:"stats"`
	SubmittedAt time.Time       `json:"submitted_at"`
}
