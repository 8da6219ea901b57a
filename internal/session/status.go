package session

import (
	"bytes"
	"encoding/json"

	"github.com/prepdesk/prepdesk-backend/internal/model"
)

// DeriveStatus maps a question's flags to its palette status. First match
// wins; the order matters because a question can be saved and marked at the
// same time, and review intent must stay visible even when the save step
// was skipped.
func DeriveStatus(visited, saved bool, answer json.RawMessage, marked bool) model.QuestionStatus {
	switch {
	case !visited:
		return model.StatusNotVisited
	case marked && saved && HasAnswer(answer):
		return model.StatusAnsweredAndMarked
	case marked:
		return model.StatusMarkedForReview
	case saved && HasAnswer(answer):
		return model.StatusAnswered
	default:
		return model.StatusNotAnswered
	}
}

// HasAnswer reports whether raw holds a genuinely non-empty answer.
// JSON null, an empty string, and an empty array all count as no answer,
// so a cleared or never-filled response can never read as ANSWERED.
func HasAnswer(raw json.RawMessage) bool {
	if isNullAnswer(raw) {
		return false
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case []interface{}:
		return len(t) > 0
	default:
		return true
	}
}

// isNullAnswer reports whether raw is absent or JSON null. This is the
// weaker check behind IsSaved: saving an empty string still counts as a
// commit, saving null does not.
func isNullAnswer(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// deriveFor recomputes the cached status projection for one question.
func deriveFor(q model.QuestionState) model.QuestionStatus {
	return DeriveStatus(q.IsVisited, q.IsSaved, q.SelectedAnswer, q.MarkedForReview)
}
