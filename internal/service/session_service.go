package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prepdesk/prepdesk-backend/internal/config"
	"github.com/prepdesk/prepdesk-backend/internal/model"
	"github.com/prepdesk/prepdesk-backend/internal/session"
)

// Session errors.
var (
	ErrSessionSubmitted     = errors.New("attempt already submitted")
	ErrLanguageNotSupported = errors.New("language not offered by this exam")
)

// SessionService owns the live session stores. One store exists per
// (exam, candidate) pair; every request for the same pair funnels into the
// same store so its mutex is the single serialization point for that
// attempt. Stores persist through Redis, so an instance restart rebuilds
// them from the last written snapshot.
type SessionService struct {
	mu       sync.Mutex
	registry map[string]*session.Store

	examService *ExamService
	storage     session.Storage
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewSessionService creates a new SessionService backed by Redis session
// storage.
func NewSessionService(examService *ExamService, rdb *redis.Client, log zerolog.Logger) *SessionService {
	return &SessionService{
		registry:    make(map[string]*session.Store),
		examService: examService,
		storage:     session.NewRedisStorage(rdb),
		rdb:         rdb,
		log:         log.With().Str("component", "session_service").Logger(),
	}
}

// getStore returns the live store for an attempt, creating and registering
// it on first use. Creation rehydrates from Redis or initializes fresh.
func (s *SessionService) getStore(ctx context.Context, examID string, candidateID int) (*session.Store, error) {
	key := config.CacheKey.ExamSessionStateKey(examID, candidateID)

	s.mu.Lock()
	if store, ok := s.registry[key]; ok {
		s.mu.Unlock()
		return store, nil
	}
	s.mu.Unlock()

	cfg, err := s.examService.GetConfiguration(ctx, examID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another request may have registered the store while the configuration
	// loaded.
	if store, ok := s.registry[key]; ok {
		return store, nil
	}
	store := session.NewStore(ctx, cfg, key, s.storage, s.log)
	s.registry[key] = store
	return store, nil
}

// evict drops an attempt's store from the registry. The persisted snapshot
// stays in Redis.
func (s *SessionService) evict(examID string, candidateID int) {
	key := config.CacheKey.ExamSessionStateKey(examID, candidateID)
	s.mu.Lock()
	delete(s.registry, key)
	s.mu.Unlock()
}

// guard rejects mutations on a submitted attempt.
func (s *SessionService) guard(store *session.Store) error {
	if store.Snapshot().IsSubmitted {
		return ErrSessionSubmitted
	}
	return nil
}

// State returns the current session snapshot, starting the attempt if this
// is the candidate's first contact with the exam.
func (s *SessionService) State(ctx context.Context, examID string, candidateID int) (model.ExamSessionState, error) {
	store, err := s.getStore(ctx, examID, candidateID)
	if err != nil {
		return model.ExamSessionState{}, err
	}
	return store.Snapshot(), nil
}

// Stats returns the palette counts for an attempt.
func (s *SessionService) Stats(ctx context.Context, examID string, candidateID int) (model.SessionStats, error) {
	store, err := s.getStore(ctx, examID, candidateID)
	if err != nil {
		return model.SessionStats{}, err
	}
	return store.Stats(), nil
}

// Navigate moves the session position. A question index takes precedence
// over a section index when both are present.
func (s *SessionService) Navigate(ctx context.Context, examID string, candidateID int, req *model.NavigateRequest) (model.ExamSessionState, error) {
	store, err := s.getStore(ctx, examID, candidateID)
	if err != nil {
		return model.ExamSessionState{}, err
	}
	if err := s.guard(store); err != nil {
		return model.ExamSessionState{}, err
	}

	switch {
	case req.QuestionIndex != nil:
		return store.NavigateToQuestion(*req.QuestionIndex), nil
	case req.SectionIndex != nil:
		return store.NavigateToSection(*req.SectionIndex), nil
	default:
		return store.Snapshot(), nil
	}
}

// Next advances one question.
func (s *SessionService) Next(ctx context.Context, examID string, candidateID int) (model.ExamSessionState, error) {
	store, err := s.getStore(ctx, examID, candidateID)
	if err != nil {
		return model.ExamSessionState{}, err
	}
	if err := s.guard(store); err != nil {
		return model.ExamSessionState{}, err
	}
	return store.GoToNext(), nil
}

// Previous steps back one question.
func (s *SessionService) Previous(ctx context.Context, examID string, candidateID int) (model.ExamSessionState, error) {
	store, err := s.getStore(ctx, examID, candidateID)
	if err != nil {
		return model.ExamSessionState{}, err
	}
	if err := s.guard(store); err != nil {
		return model.ExamSessionState{}, err
	}
	return store.GoToPrevious(), nil
}

// SaveAnswer commits an answer without moving.
func (s *SessionService) SaveAnswer(ctx context.Context, examID string, candidateID int, req *model.SaveAnswerRequest) (model.ExamSessionState, error) {
	store, err := s.getStore(ctx, examID, candidateID)
	if err != nil {
		return model.ExamSessionState{}, err
	}
	if err := s.guard(store); err != nil {
		return model.ExamSessionState{}, err
	}
	return store.SaveAnswer(req.QuestionID, req.Answer), nil
}

// SaveAndNavigate commits an answer and moves in one transition.
func (s *SessionService) SaveAndNavigate(ctx context.Context, examID string, candidateID int, req *model.SaveAndNavigateRequest) (model.ExamSessionState, error) {
	store, err := s.getStore(ctx, examID, candidateID)
	if err != nil {
		return model.ExamSessionState{}, err
	}
	if err := s.guard(store); err != nil {
		return model.ExamSessionState{}, err
	}
	return store.SaveAndNavigate(req.QuestionID, req.Answer, req.MarkForReview, req.NextIndex), nil
}

// MarkAndNavigate marks for review and moves, keeping whatever answer
// (possibly null) was supplied.
func (s *SessionService) MarkAndNavigate(ctx context.Context, examID string, candidateID int, req *model.MarkAndNavigateRequest) (model.ExamSessionState, error) {
	store, err := s.getStore(ctx, examID, candidateID)
	if err != nil {
		return model.ExamSessionState{}, err
	}
	if err := s.guard(store); err != nil {
		return model.ExamSessionState{}, err
	}
	return store.MarkAndNavigate(req.QuestionID, req.Answer, req.NextIndex), nil
}

// ClearResponse wipes a question's committed answer.
func (s *SessionService) ClearResponse(ctx context.Context, examID string, candidateID int, questionID string) (model.ExamSessionState, error) {
	store, err := s.getStore(ctx, examID, candidateID)
	if err != nil {
		return model.ExamSessionState{}, err
	}
	if err := s.guard(store); err != nil {
		return model.ExamSessionState{}, err
	}
	return store.ClearResponse(questionID), nil
}

// ToggleMarkForReview flips a question's review mark.
func (s *SessionService) ToggleMarkForReview(ctx context.Context, examID string, candidateID int, questionID string) (model.ExamSessionState, error) {
	store, err := s.getStore(ctx, examID, candidateID)
	if err != nil {
		return model.ExamSessionState{}, err
	}
	if err := s.guard(store); err != nil {
		return model.ExamSessionState{}, err
	}
	return store.ToggleMarkForReview(questionID), nil
}

// Heartbeat records the client countdown and per-question time in one
// call. Either part may be absent.
func (s *SessionService) Heartbeat(ctx context.Context, examID string, candidateID int, remainingSeconds int, questionID string, timeTakenSeconds int) (model.ExamSessionState, error) {
	store, err := s.getStore(ctx, examID, candidateID)
	if err != nil {
		return model.ExamSessionState{}, err
	}
	if err := s.guard(store); err != nil {
		return model.ExamSessionState{}, err
	}

	if questionID != "" && timeTakenSeconds > 0 {
		store.AddTimeTaken(questionID, timeTakenSeconds)
	}
	return store.SyncRemaining(remainingSeconds), nil
}

// Pause freezes the session with the client's remaining countdown.
func (s *SessionService) Pause(ctx context.Context, examID string, candidateID int, remainingSeconds int) (model.ExamSessionState, error) {
	store, err := s.getStore(ctx, examID, candidateID)
	if err != nil {
		return model.ExamSessionState{}, err
	}
	if err := s.guard(store); err != nil {
		return model.ExamSessionState{}, err
	}
	return store.Pause(remainingSeconds), nil
}

// Resume lifts a pause.
func (s *SessionService) Resume(ctx context.Context, examID string, candidateID int) (model.ExamSessionState, error) {
	store, err := s.getStore(ctx, examID, candidateID)
	if err != nil {
		return model.ExamSessionState{}, err
	}
	if err := s.guard(store); err != nil {
		return model.ExamSessionState{}, err
	}
	return store.Resume(), nil
}

// SetLanguage switches the session's display language after validating it
// against the exam configuration.
func (s *SessionService) SetLanguage(ctx context.Context, examID string, candidateID int, language string) (model.ExamSessionState, error) {
	cfg, err := s.examService.GetConfiguration(ctx, examID)
	if err != nil {
		return model.ExamSessionState{}, err
	}
	supported := false
	for _, l := range cfg.Languages {
		if l == language {
			supported = true
			break
		}
	}
	if !supported {
		return model.ExamSessionState{}, ErrLanguageNotSupported
	}

	store, err := s.getStore(ctx, examID, candidateID)
	if err != nil {
		return model.ExamSessionState{}, err
	}
	if err := s.guard(store); err != nil {
		return model.ExamSessionState{}, err
	}
	return store.SetLanguage(language), nil
}

// Submit finalizes the attempt: the answer sheet is enqueued for durable
// persistence, then the session is marked submitted and its store evicted
// from the registry. The persisted Redis snapshot keeps the submitted flag,
// so a later State call sees a read-only, completed attempt.
func (s *SessionService) Submit(ctx context.Context, examID string, candidateID int) (model.SessionStats, error) {
	store, err := s.getStore(ctx, examID, candidateID)
	if err != nil {
		return model.SessionStats{}, err
	}
	if err := s.guard(store); err != nil {
		return model.SessionStats{}, err
	}

	snap := store.Snapshot()
	stats := store.Stats()

	timeTaken := make(map[string]int, len(snap.Questions))
	for id, q := range snap.Questions {
		if q.TimeTakenSeconds > 0 {
			timeTaken[id] = q.TimeTakenSeconds
		}
	}

	job := model.SubmissionJob{
		ExamID:      examID,
		CandidateID: candidateID,
		Answers:     store.Submit(),
		Stats:       stats,
		TimeTaken:   timeTaken,
		SubmittedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return model.SessionStats{}, fmt.Errorf("marshal submission: %w", err)
	}

	// The queue push is the durability handoff. Only after it succeeds is
	// the session flipped to submitted.
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, payload).Err(); err != nil {
		return model.SessionStats{}, fmt.Errorf("enqueue submission: %w", err)
	}

	store.SetSubmitted()
	s.evict(examID, candidateID)

	s.log.Info().
		Str("exam_id", examID).
		Int("candidate_id", candidateID).
		Int("answered", stats.Answered+stats.AnsweredAndMarked).
		Msg("Attempt submitted")
	return stats, nil
}
