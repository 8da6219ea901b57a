package session

import (
	"encoding/json"

	"github.com/prepdesk/prepdesk-backend/internal/model"
)

// Navigation and mutation operations. Every operation funnels through
// Update so each one lands as a single persisted snapshot. Out-of-range
// indices and unknown question IDs are silent no-ops: callers are UI
// controls whose boundary taps must neither crash nor corrupt state.

// NavigateToQuestion moves the current position to a global question index
// and marks the destination visited. Visiting an already-visited question
// changes nothing on that question; the source question is not touched.
func (s *Store) NavigateToQuestion(index int) model.ExamSessionState {
	return s.Update(func(st model.ExamSessionState) model.ExamSessionState {
		return s.applyNavigate(st, index)
	})
}

// NavigateToSection jumps to the first question of a section.
func (s *Store) NavigateToSection(sectionIndex int) model.ExamSessionState {
	if sectionIndex < 0 || sectionIndex >= len(s.sectionStart) {
		return s.Snapshot()
	}
	return s.NavigateToQuestion(s.sectionStart[sectionIndex])
}

// GoToNext advances one question.
func (s *Store) GoToNext() model.ExamSessionState {
	return s.Update(func(st model.ExamSessionState) model.ExamSessionState {
		return s.applyNavigate(st, st.CurrentQuestionIndex+1)
	})
}

// GoToPrevious steps back one question.
func (s *Store) GoToPrevious() model.ExamSessionState {
	return s.Update(func(st model.ExamSessionState) model.ExamSessionState {
		return s.applyNavigate(st, st.CurrentQuestionIndex-1)
	})
}

// SaveAnswer commits an answer on a question without moving. The review
// mark is preserved; IsSaved reflects whether the answer was non-null.
func (s *Store) SaveAnswer(questionID string, answer json.RawMessage) model.ExamSessionState {
	return s.Update(func(st model.ExamSessionState) model.ExamSessionState {
		q, ok := st.Questions[questionID]
		if !ok {
			return st
		}
		q.IsVisited = true
		q.IsSaved = !isNullAnswer(answer)
		q.SelectedAnswer = answer
		q.Status = deriveFor(q)
		st.Questions[questionID] = q
		return st
	})
}

// SaveAndNavigate commits an answer plus review mark on the source question
// and moves to nextIndex, all in one state transition. When nextIndex is
// out of range the answer still commits but the position stays put. Both
// halves land in the same persisted snapshot: issuing them as two updates
// would open a window where a rapid second action reads only half of this
// one.
func (s *Store) SaveAndNavigate(questionID string, answer json.RawMessage, markForReview bool, nextIndex int) model.ExamSessionState {
	return s.Update(func(st model.ExamSessionState) model.ExamSessionState {
		if q, ok := st.Questions[questionID]; ok {
			q.IsVisited = true
			q.IsSaved = !isNullAnswer(answer)
			q.SelectedAnswer = answer
			q.MarkedForReview = markForReview
			q.Status = deriveFor(q)
			st.Questions[questionID] = q
		}
		return s.applyNavigate(st, nextIndex)
	})
}

// MarkAndNavigate marks a question for review and moves on, recording
// whatever answer (possibly null) was present.
func (s *Store) MarkAndNavigate(questionID string, answer json.RawMessage, nextIndex int) model.ExamSessionState {
	return s.SaveAndNavigate(questionID, answer, true, nextIndex)
}

// ClearResponse wipes a question's committed answer. The review mark is
// left alone.
func (s *Store) ClearResponse(questionID string) model.ExamSessionState {
	return s.Update(func(st model.ExamSessionState) model.ExamSessionState {
		q, ok := st.Questions[questionID]
		if !ok {
			return st
		}
		q.IsVisited = true
		q.IsSaved = false
		q.SelectedAnswer = nil
		q.Status = deriveFor(q)
		st.Questions[questionID] = q
		return st
	})
}

// ToggleMarkForReview flips a question's review mark.
func (s *Store) ToggleMarkForReview(questionID string) model.ExamSessionState {
	return s.Update(func(st model.ExamSessionState) model.ExamSessionState {
		q, ok := st.Questions[questionID]
		if !ok {
			return st
		}
		q.IsVisited = true
		q.MarkedForReview = !q.MarkedForReview
		q.Status = deriveFor(q)
		st.Questions[questionID] = q
		return st
	})
}

// AddTimeTaken accumulates client-tracked seconds on a question. The
// engine stores the figure but never computes it.
func (s *Store) AddTimeTaken(questionID string, seconds int) model.ExamSessionState {
	return s.Update(func(st model.ExamSessionState) model.ExamSessionState {
		q, ok := st.Questions[questionID]
		if !ok || seconds <= 0 {
			return st
		}
		q.TimeTakenSeconds += seconds
		st.Questions[questionID] = q
		return st
	})
}

// Pause freezes the session and snapshots the client's remaining countdown.
func (s *Store) Pause(remainingSeconds int) model.ExamSessionState {
	return s.Update(func(st model.ExamSessionState) model.ExamSessionState {
		st.IsPaused = true
		if remainingSeconds >= 0 {
			st.RemainingSeconds = remainingSeconds
		}
		return st
	})
}

// Resume lifts a pause.
func (s *Store) Resume() model.ExamSessionState {
	return s.Update(func(st model.ExamSessionState) model.ExamSessionState {
		st.IsPaused = false
		return st
	})
}

// SyncRemaining persists the client's countdown, typically from a periodic
// heartbeat, so a reload resumes close to where the timer was.
func (s *Store) SyncRemaining(remainingSeconds int) model.ExamSessionState {
	return s.Update(func(st model.ExamSessionState) model.ExamSessionState {
		if remainingSeconds >= 0 {
			st.RemainingSeconds = remainingSeconds
		}
		return st
	})
}

// SetLanguage switches the session's display language.
func (s *Store) SetLanguage(language string) model.ExamSessionState {
	return s.Update(func(st model.ExamSessionState) model.ExamSessionState {
		st.Language = language
		return st
	})
}

// Submit produces the final answer sheet: every question ID mapped to its
// committed answer, with explicit JSON null for unanswered questions. It
// does not flip IsSubmitted; the caller marks that separately once the
// submission has been durably handed to the scoring side.
func (s *Store) Submit() map[string]json.RawMessage {
	snap := s.Snapshot()
	answers := make(map[string]json.RawMessage, len(s.order))
	for _, id := range s.order {
		q := snap.Questions[id]
		if isNullAnswer(q.SelectedAnswer) {
			answers[id] = json.RawMessage("null")
			continue
		}
		answers[id] = q.SelectedAnswer
	}
	return answers
}

// SetSubmitted marks the attempt submitted.
func (s *Store) SetSubmitted() model.ExamSessionState {
	return s.Update(func(st model.ExamSessionState) model.ExamSessionState {
		st.IsSubmitted = true
		return st
	})
}

// Stats reduces the derived statuses across the whole question set. It
// runs over the same derivation the palette renders from, so the two can
// never diverge.
func (s *Store) Stats() model.SessionStats {
	snap := s.Snapshot()
	stats := model.SessionStats{Total: len(s.order)}
	for _, q := range snap.Questions {
		switch deriveFor(q) {
		case model.StatusAnswered:
			stats.Answered++
		case model.StatusNotAnswered:
			stats.NotAnswered++
		case model.StatusNotVisited:
			stats.NotVisited++
		case model.StatusMarkedForReview:
			stats.MarkedForReview++
		case model.StatusAnsweredAndMarked:
			stats.AnsweredAndMarked++
		}
	}
	return stats
}

// applyNavigate is the shared navigation transition: bounds check, mark
// the destination visited (idempotent), and commit both indices. Used
// inside compound updaters so navigation and answer mutation share one
// snapshot.
func (s *Store) applyNavigate(st model.ExamSessionState, index int) model.ExamSessionState {
	if index < 0 || index >= len(s.order) {
		return st
	}

	qid := s.order[index]
	q := st.Questions[qid]
	if !q.IsVisited {
		q.IsVisited = true
		q.Status = deriveFor(q)
		st.Questions[qid] = q
	}

	st.CurrentQuestionIndex = index
	st.CurrentSectionIndex = s.sectionOf(index)
	return st
}
