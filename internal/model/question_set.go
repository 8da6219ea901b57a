package model

import "encoding/json"

// QuestionSetKind distinguishes the shared-content shapes.
type QuestionSetKind string

const (
	QuestionSetKindPassage QuestionSetKind = "PASSAGE"
	QuestionSetKindPuzzle  QuestionSetKind = "PUZZLE"
)

// QuestionSet is the shared passage/puzzle content a cluster of
// sub-questions renders against. It is immutable content, independent of
// any one exam session, and safe to cache for the process lifetime.
type QuestionSet struct {
	ID      string          `json:"id"`
	Kind    QuestionSetKind `json:"kind"`
	Title   string          `json:"title,omitempty"`
	Content json.RawMessage `json:"content"`
}
