package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/prepdesk/prepdesk-backend/internal/model"
)

// persistTimeout bounds each best-effort write to durable storage.
const persistTimeout = 2 * time.Second

// Store owns the canonical ExamSessionState for one attempt and exposes
// exactly one mutation path, Update. Every mutation is serialized by a
// mutex and applied to the in-memory canonical value before the next call
// is accepted, so chained updates issued within the same UI event always
// compose against each other's results rather than a stale snapshot.
type Store struct {
	mu      sync.Mutex
	cfg     *model.ExamConfiguration
	storage Storage
	key     string
	log     zerolog.Logger

	state model.ExamSessionState

	// Flattened navigation tables, fixed for the configuration's lifetime.
	order        []string // global index -> question ID
	sectionStart []int    // section index -> global index of its first question
}

// NewStore initializes the session store for one exam attempt.
//
// If storage holds a state whose exam ID and question-ID set exactly match
// cfg, that state is rehydrated. Anything else (absent key, different
// exam, added or removed questions, corrupt JSON) is treated as staleness
// and replaced with a fresh session. Partial progress from an incompatible
// configuration is never merged.
func NewStore(ctx context.Context, cfg *model.ExamConfiguration, key string, storage Storage, log zerolog.Logger) *Store {
	s := &Store{
		cfg:     cfg,
		storage: storage,
		key:     key,
		log:     log.With().Str("component", "session_store").Str("exam_id", cfg.ID).Logger(),
	}
	s.buildNavigationTables()

	if prev, ok := s.rehydrate(ctx); ok {
		s.state = prev
		s.log.Debug().Int("questions", len(prev.Questions)).Msg("Session rehydrated")
		return s
	}

	s.state = s.freshState(time.Now())
	s.persist()
	s.log.Info().Int("questions", len(s.state.Questions)).Msg("Fresh session initialized")
	return s
}

// Update applies fn to a copy of the canonical state, commits the result,
// and persists it. This is the only legal mutation path; all operations in
// engine.go funnel through it. The returned snapshot has every question's
// status recomputed.
//
// Persistence is write-through on every call but best-effort: a storage
// failure is logged and swallowed so the in-memory session stays usable
// mid-exam.
func (s *Store) Update(fn func(model.ExamSessionState) model.ExamSessionState) model.ExamSessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = fn(s.state.Clone())
	s.persist()
	return s.snapshotLocked()
}

// Snapshot returns a deep copy of the current state with all statuses
// recomputed from flags. Stored statuses are never trusted on read.
func (s *Store) Snapshot() model.ExamSessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// TotalQuestions returns the configuration's flattened question count.
func (s *Store) TotalQuestions() int {
	return len(s.order)
}

// QuestionIDAt returns the question ID at a global index, or "" when the
// index is out of range.
func (s *Store) QuestionIDAt(index int) string {
	if index < 0 || index >= len(s.order) {
		return ""
	}
	return s.order[index]
}

// ─── Internals ──────────────────────────────────────────────────────

func (s *Store) buildNavigationTables() {
	s.order = s.cfg.QuestionIDs()
	s.sectionStart = make([]int, len(s.cfg.Sections))
	start := 0
	for i := range s.cfg.Sections {
		s.sectionStart[i] = start
		start += len(s.cfg.Sections[i].Questions)
	}
}

// sectionOf computes the owning section for a global question index by
// walking cumulative per-section counts.
func (s *Store) sectionOf(index int) int {
	cumulative := 0
	for i := range s.cfg.Sections {
		cumulative += len(s.cfg.Sections[i].Questions)
		if index < cumulative {
			return i
		}
	}
	return len(s.cfg.Sections) - 1
}

// rehydrate loads the persisted state and vets it against the current
// configuration. Any read error or corrupt payload is handled as
// staleness, never surfaced: recovering to a fresh session beats failing
// a candidate mid-exam.
func (s *Store) rehydrate(ctx context.Context) (model.ExamSessionState, bool) {
	var zero model.ExamSessionState

	data, ok, err := s.storage.Read(ctx, s.key)
	if err != nil {
		s.log.Warn().Err(err).Msg("Session read failed, starting fresh")
		return zero, false
	}
	if !ok {
		return zero, false
	}

	var prev model.ExamSessionState
	if err := json.Unmarshal(data, &prev); err != nil {
		s.log.Warn().Err(err).Msg("Corrupt session payload, starting fresh")
		return zero, false
	}

	if isStale(prev, s.cfg) {
		s.log.Info().Str("stored_exam_id", prev.ExamID).Msg("Stale session discarded")
		return zero, false
	}
	return prev, true
}

// isStale reports whether a persisted state no longer matches the current
// configuration: different exam, different entry count, or any
// configuration question missing from the stored map.
func isStale(st model.ExamSessionState, cfg *model.ExamConfiguration) bool {
	if st.ExamID != cfg.ID {
		return true
	}
	ids := cfg.QuestionIDs()
	if len(st.Questions) != len(ids) {
		return true
	}
	for _, id := range ids {
		if _, ok := st.Questions[id]; !ok {
			return true
		}
	}
	return false
}

func (s *Store) freshState(now time.Time) model.ExamSessionState {
	duration := time.Duration(s.cfg.DurationMinutes) * time.Minute

	questions := make(map[string]model.QuestionState, len(s.order))
	for _, id := range s.order {
		questions[id] = model.QuestionState{
			QuestionID: id,
			Status:     model.StatusNotVisited,
		}
	}

	language := ""
	if len(s.cfg.Languages) > 0 {
		language = s.cfg.Languages[0]
	}

	return model.ExamSessionState{
		ExamID:               s.cfg.ID,
		CurrentQuestionIndex: 0,
		CurrentSectionIndex:  0,
		Questions:            questions,
		StartTime:            now,
		EndTime:              now.Add(duration),
		RemainingSeconds:     int(duration.Seconds()),
		Language:             language,
	}
}

// persist writes the canonical state through to durable storage.
// Callers must hold s.mu.
func (s *Store) persist() {
	data, err := json.Marshal(s.state)
	if err != nil {
		s.log.Error().Err(err).Msg("Session marshal failed")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.storage.Write(ctx, s.key, data); err != nil {
		s.log.Warn().Err(err).Msg("Session persist failed, in-memory state still advanced")
	}
}

// snapshotLocked deep-copies the state and recomputes every status.
// Callers must hold s.mu.
func (s *Store) snapshotLocked() model.ExamSessionState {
	snap := s.state.Clone()
	for id, q := range snap.Questions {
		q.Status = deriveFor(q)
		snap.Questions[id] = q
	}
	return snap
}
