// Package questionset resolves shared passage/puzzle content for clusters
// of sub-questions, independent of any exam session.
package questionset

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/prepdesk/prepdesk-backend/internal/model"
)

// Status describes the outcome of a resolution attempt.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ErrNoIdentifier is returned when neither a set ID nor an inline payload
// was supplied.
var ErrNoIdentifier = errors.New("question set identifier required")

// Fetcher loads a question set from the content source.
type Fetcher interface {
	FetchQuestionSet(ctx context.Context, id string) (*model.QuestionSet, error)
}

// Resolver is a read-through cache over a Fetcher. It is an explicitly
// constructed, injectable object rather than an ambient singleton, so each
// test can run against a fresh instance. The cache lives for the process,
// survives caller remounts, and never evicts; the question-set universe of
// one exam session is small and bounded. At most one fetch is in flight
// per identifier; concurrent callers for the same ID wait on the first.
type Resolver struct {
	mu       sync.Mutex
	fetcher  Fetcher
	cache    map[string]*model.QuestionSet
	inflight map[string]*fetchCall
	log      zerolog.Logger
}

type fetchCall struct {
	done chan struct{}
	set  *model.QuestionSet
	err  error
}

// NewResolver creates a Resolver with an empty cache.
func NewResolver(fetcher Fetcher, log zerolog.Logger) *Resolver {
	return &Resolver{
		fetcher:  fetcher,
		cache:    make(map[string]*model.QuestionSet),
		inflight: make(map[string]*fetchCall),
		log:      log.With().Str("component", "questionset_resolver").Logger(),
	}
}

// Resolve returns the question set for id. An inline payload is used
// immediately with no fetch and populates the cache so a later reference
// to the same identifier reuses it. A cached value is returned
// synchronously. Otherwise one fetch is issued; on failure the cache stays
// empty for that key and retry only happens through a fresh request.
func (r *Resolver) Resolve(ctx context.Context, id string, inline *model.QuestionSet) (*model.QuestionSet, Status, error) {
	if inline != nil {
		return r.adoptInline(id, inline), StatusSuccess, nil
	}
	if id == "" {
		return nil, StatusIdle, ErrNoIdentifier
	}

	r.mu.Lock()
	if set, ok := r.cache[id]; ok {
		r.mu.Unlock()
		return set, StatusSuccess, nil
	}

	if call, running := r.inflight[id]; running {
		r.mu.Unlock()
		return r.await(ctx, call)
	}

	call := &fetchCall{done: make(chan struct{})}
	r.inflight[id] = call
	r.mu.Unlock()

	set, err := r.fetcher.FetchQuestionSet(ctx, id)

	r.mu.Lock()
	delete(r.inflight, id)
	if err == nil {
		r.cache[id] = set
		call.set = set
	} else {
		call.err = err
	}
	r.mu.Unlock()
	close(call.done)

	if err != nil {
		r.log.Warn().Err(err).Str("set_id", id).Msg("Question set fetch failed")
		return nil, StatusError, err
	}
	return set, StatusSuccess, nil
}

// Peek returns the cached set without fetching.
func (r *Resolver) Peek(id string) (*model.QuestionSet, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.cache[id]
	return set, ok
}

// adoptInline caches an inline payload under its identifier. An existing
// cache entry wins: the content is immutable, so the first write is as
// good as any.
func (r *Resolver) adoptInline(id string, inline *model.QuestionSet) *model.QuestionSet {
	if id == "" {
		id = inline.ID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.cache[id]; ok {
		return cached
	}
	r.cache[id] = inline
	return inline
}

// await blocks on an in-flight fetch started by another caller.
func (r *Resolver) await(ctx context.Context, call *fetchCall) (*model.QuestionSet, Status, error) {
	select {
	case <-ctx.Done():
		return nil, StatusLoading, ctx.Err()
	case <-call.done:
	}
	if call.err != nil {
		return nil, StatusError, call.err
	}
	return call.set, StatusSuccess, nil
}
