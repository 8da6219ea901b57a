package model

import (
	"encoding/json"
	"time"
)

// ExamStatus enumerates the possible states of an exam configuration.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "DRAFT"
	ExamStatusPublished ExamStatus = "PUBLISHED"
	ExamStatusArchived  ExamStatus = "ARCHIVED"
)

// QuestionType tags how a question is answered.
type QuestionType string

const (
	QuestionTypeSingleChoice QuestionType = "SINGLE_CHOICE"
	QuestionTypeMultiChoice  QuestionType = "MULTI_CHOICE"
	QuestionTypeNumerical    QuestionType = "NUMERICAL"
)

// ExamConfiguration is the immutable definition a session runs against.
// It is loaded from the content store and cached as a single JSON payload;
// the session engine never mutates it.
type ExamConfiguration struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	DurationMinutes int       `json:"duration_minutes"`
	Instructions    string    `json:"instructions,omitempty"`
	Languages       []string  `json:"languages,omitempty"`
	Sections        []Section `json:"sections"`
}

// Section is an ordered group of questions inside an exam.
type Section struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// Question is a single question within a section. The ID is a stable,
// author-assigned identifier and is the key for all per-question session
// state. QuestionSetID links grouped passage/puzzle questions to their
// shared content.
type Question struct {
	ID            string          `json:"id"`
	Type          QuestionType    `json:"type"`
	Marks         float64         `json:"marks"`
	NegativeMarks float64         `json:"negative_marks"`
	QuestionSetID string          `json:"question_set_id,omitempty"`
	Body          json.RawMessage `json:"body"`
}

// TotalQuestions returns the number of questions across all sections.
func (c *ExamConfiguration) TotalQuestions() int {
	n := 0
	for i := range c.Sections {
		n += len(c.Sections[i].Questions)
	}
	return n
}

// QuestionIDs returns every question identifier in section order.
func (c *ExamConfiguration) QuestionIDs() []string {
	ids := make([]string, 0, c.TotalQuestions())
	for i := range c.Sections {
		for j := range c.Sections[i].Questions {
			ids = append(ids, c.Sections[i].Questions[j].ID)
		}
	}
	return ids
}

// ExamSummary is the lobby-facing view of an exam configuration.
type ExamSummary struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	DurationMinutes int        `json:"duration_minutes"`
	QuestionCount   int        `json:"question_count"`
	Status          ExamStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
}
