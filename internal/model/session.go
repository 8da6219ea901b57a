package model

import (
	"encoding/json"
	"time"
)

// QuestionStatus is the palette status derived from a question's flags.
// It is a cached projection only: every read path recomputes it from the
// flags, so a stored value is never trusted as input to a decision.
type QuestionStatus string

const (
	StatusNotVisited        QuestionStatus = "NOT_VISITED"
	StatusNotAnswered       QuestionStatus = "NOT_ANSWERED"
	StatusAnswered          QuestionStatus = "ANSWERED"
	StatusMarkedForReview   QuestionStatus = "MARKED_FOR_REVIEW"
	StatusAnsweredAndMarked QuestionStatus = "ANSWERED_AND_MARKED"
)

// QuestionState tracks one question across a candidate's attempt.
//   - IsVisited never reverts to false once set.
//   - IsSaved means an answer was committed through a save operation with a
//     non-null answer; clearing the response resets it.
//   - TimeTakenSeconds is accumulated by the client and only stored here.
type QuestionState struct {
	QuestionID       string          `json:"question_id"`
	IsVisited        bool            `json:"is_visited"`
	IsSaved          bool            `json:"is_saved"`
	SelectedAnswer   json.RawMessage `json:"selected_answer,omitempty"`
	MarkedForReview  bool            `json:"marked_for_review"`
	TimeTakenSeconds int             `json:"time_taken_seconds"`
	Status           QuestionStatus  `json:"status"`
}

// ExamSessionState is the aggregate root for one candidate's attempt at one
// exam configuration. The Questions map holds exactly the question IDs of
// the configuration it was initialized against; any divergence means the
// session is stale and must be rebuilt.
type ExamSessionState struct {
	ExamID               string                   `json:"exam_id"`
	CurrentQuestionIndex int                      `json:"current_question_index"`
	CurrentSectionIndex  int                      `json:"current_section_index"`
	Questions            map[string]QuestionState `json:"questions"`
	StartTime            time.Time                `json:"start_time"`
	EndTime              time.Time                `json:"end_time"`
	RemainingSeconds     int                      `json:"remaining_seconds"`
	Language             string                   `json:"language,omitempty"`
	IsSubmitted          bool                     `json:"is_submitted"`
	IsPaused             bool                     `json:"is_paused"`
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing the canonical map to mutation.
func (s ExamSessionState) Clone() ExamSessionState {
	out := s
	out.Questions = make(map[string]QuestionState, len(s.Questions))
	for id, q := range s.Questions {
		if q.SelectedAnswer != nil {
			q.SelectedAnswer = append(json.RawMessage(nil), q.SelectedAnswer...)
		}
		out.Questions[id] = q
	}
	return out
}

// SessionStats counts questions per derived status. The totals always sum
// to the configuration's question count.
type SessionStats struct {
	Total             int `json:"total"`
	Answered          int `json:"answered"`
	NotAnswered       int `json:"not_answered"`
	NotVisited        int `json:"not_visited"`
	MarkedForReview   int `json:"marked_for_review"`
	AnsweredAndMarked int `json:"answered_and_marked"`
}

// ─── Request payloads ───────────────────────────────────────────────

// NavigateRequest moves the session position to a question or a section.
type NavigateRequest struct {
	QuestionIndex *int `json:"question_index" binding:"omitempty,min=0"`
	SectionIndex  *int `json:"section_index" binding:"omitempty,min=0"`
}

// SaveAnswerRequest commits an answer without moving.
type SaveAnswerRequest struct {
	QuestionID string          `json:"question_id" binding:"required"`
	Answer     json.RawMessage `json:"answer"`
}

// SaveAndNavigateRequest commits an answer and moves in one transition.
// NextIndex of -1 (or any out-of-range value) keeps the current position.
type SaveAndNavigateRequest struct {
	QuestionID    string          `json:"question_id" binding:"required"`
	Answer        json.RawMessage `json:"answer"`
	MarkForReview bool            `json:"mark_for_review"`
	NextIndex     int             `json:"next_index"`
}

// MarkAndNavigateRequest marks a question for review and moves, recording
// whatever answer (possibly null) was present.
type MarkAndNavigateRequest struct {
	QuestionID string          `json:"question_id" binding:"required"`
	Answer     json.RawMessage `json:"answer"`
	NextIndex  int             `json:"next_index"`
}

// QuestionRequest targets a single question (clear response, toggle mark).
type QuestionRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
}

// HeartbeatRequest syncs the client countdown and, optionally, time spent
// on the current question.
type HeartbeatRequest struct {
	RemainingSeconds int    `json:"remaining_seconds" binding:"min=0"`
	QuestionID       string `json:"question_id"`
	TimeTakenSeconds int    `json:"time_taken_seconds" binding:"omitempty,min=0"`
}

// PauseRequest freezes the session with the client's remaining countdown.
type PauseRequest struct {
	RemainingSeconds int `json:"remaining_seconds" binding:"min=0"`
}

// SetLanguageRequest switches the session's display language.
type SetLanguageRequest struct {
	Language string `json:"language" binding:"required,min=2,max=16"`
}
