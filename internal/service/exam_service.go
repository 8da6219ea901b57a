package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/prepdesk/prepdesk-backend/internal/config"
	"github.com/prepdesk/prepdesk-backend/internal/model"
	"github.com/prepdesk/prepdesk-backend/internal/repository"
)

var ErrExamNotAvailable = errors.New("exam is not available")

// ExamService serves exam configurations through a Redis read-through
// cache. The configuration is the immutable input to every session; the
// cache entry is the exact JSON handed to session stores and clients.
type ExamService struct {
	examRepo *repository.ExamRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(examRepo *repository.ExamRepository, rdb *redis.Client, log zerolog.Logger) *ExamService {
	return &ExamService{
		examRepo: examRepo,
		rdb:      rdb,
		log:      log.With().Str("component", "exam_service").Logger(),
	}
}

// ListPublished returns the lobby view of all published exams.
func (s *ExamService) ListPublished(ctx context.Context) ([]model.ExamSummary, error) {
	return s.examRepo.ListPublished(ctx)
}

// GetConfiguration returns the full exam configuration, reading through the
// Redis cache. A miss loads from PostgreSQL and warms the cache for the
// next reader.
func (s *ExamService) GetConfiguration(ctx context.Context, examID string) (*model.ExamConfiguration, error) {
	key := config.CacheKey.ExamConfigKey(examID)

	data, err := s.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var cfg model.ExamConfiguration
		if uerr := json.Unmarshal(data, &cfg); uerr == nil {
			return &cfg, nil
		}
		// Corrupt cache entry: fall through to the database and rewrite it.
		s.log.Warn().Str("exam_id", examID).Msg("Corrupt cached configuration, reloading")
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get cached configuration: %w", err)
	}

	cfg, err := s.examRepo.GetConfiguration(ctx, examID)
	if err != nil {
		if errors.Is(err, repository.ErrExamNotFound) {
			return nil, ErrExamNotAvailable
		}
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if err := s.warmConfig(ctx, cfg); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID).Msg("Failed to warm configuration cache")
	}
	return cfg, nil
}

// InvalidateConfiguration drops an exam's cached configuration. Sessions
// already running keep their in-memory copy; new sessions pick up the
// reloaded one and discard stale progress.
func (s *ExamService) InvalidateConfiguration(ctx context.Context, examID string) error {
	return s.rdb.Del(ctx, config.CacheKey.ExamConfigKey(examID)).Err()
}

// PrewarmAllCaches loads every published exam configuration into Redis on
// application startup. This prevents lazy-loading races under thundering
// herd traffic when an exam window opens.
func (s *ExamService) PrewarmAllCaches(ctx context.Context) error {
	exams, err := s.examRepo.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published exams: %w", err)
	}

	if len(exams) == 0 {
		s.log.Info().Msg("No published exams to prewarm")
		return nil
	}

	s.log.Info().Int("count", len(exams)).Msg("Prewarming published exams...")

	warmed := 0
	for i := range exams {
		cfg, err := s.examRepo.GetConfiguration(ctx, exams[i].ID)
		if err != nil {
			s.log.Warn().Err(err).Str("exam_id", exams[i].ID).Msg("Failed to load exam, skipping")
			continue
		}
		if err := s.warmConfig(ctx, cfg); err != nil {
			s.log.Warn().Err(err).Str("exam_id", exams[i].ID).Msg("Failed to warm exam, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(exams)).
		Msg("Prewarming complete")
	return nil
}

func (s *ExamService) warmConfig(ctx context.Context, cfg *model.ExamConfiguration) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal configuration: %w", err)
	}
	if err := s.rdb.Set(ctx, config.CacheKey.ExamConfigKey(cfg.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("cache configuration: %w", err)
	}

	s.log.Debug().
		Str("exam_id", cfg.ID).
		Int("questions", cfg.TotalQuestions()).
		Msg("Configuration cache warmed")
	return nil
}
