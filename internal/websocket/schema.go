package websocket

import (
	"encoding/json"

	"github.com/prepdesk/prepdesk-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionNavigate        Action = "navigate"
	ActionSaveAnswer      Action = "save_answer"
	ActionSaveAndNavigate Action = "save_and_navigate"
	ActionMarkAndNavigate Action = "mark_and_navigate"
	ActionClearResponse   Action = "clear_response"
	ActionMarkForReview   Action = "mark_for_review"
	ActionHeartbeat       Action = "heartbeat"
	ActionPause           Action = "pause"
	ActionResume          Action = "resume"
	ActionSetLanguage     Action = "set_language"
	ActionSubmit          Action = "submit"
	ActionPing            Action = "ping"
)

// Request is the single client message shape. Which fields matter depends
// on the action; unused fields are simply absent.
type Request struct {
	Action           Action          `json:"action"`
	QuestionID       string          `json:"question_id,omitempty"`
	Answer           json.RawMessage `json:"answer,omitempty"`
	MarkForReview    bool            `json:"mark_for_review,omitempty"`
	NextIndex        int             `json:"next_index,omitempty"`
	QuestionIndex    *int            `json:"question_index,omitempty"`
	SectionIndex     *int            `json:"section_index,omitempty"`
	RemainingSeconds int             `json:"remaining_seconds,omitempty"`
	TimeTakenSeconds int             `json:"time_taken_seconds,omitempty"`
	Language         string          `json:"language,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState     Event = "state"
	EventSubmitted Event = "submitted"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// StateResponse carries the full session snapshot after every mutation, so
// the client's palette and position never drift from the server.
type StateResponse struct {
	Event Event                  `json:"event"`
	State model.ExamSessionState `json:"state"`
	Stats model.SessionStats     `json:"stats"`
}

// SubmittedResponse confirms the attempt was finalized.
type SubmittedResponse struct {
	Event Event              `json:"event"`
	Stats model.SessionStats `json:"stats"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
