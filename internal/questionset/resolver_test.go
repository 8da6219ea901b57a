package questionset

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/prepdesk/prepdesk-backend/internal/model"
)

// fakeFetcher counts fetches and serves canned sets or errors.
type fakeFetcher struct {
	mu      sync.Mutex
	fetches int32
	sets    map[string]*model.QuestionSet
	err     error
	block   chan struct{} // when set, fetches wait until closed
}

func (f *fakeFetcher) FetchQuestionSet(_ context.Context, id string) (*model.QuestionSet, error) {
	atomic.AddInt32(&f.fetches, 1)
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.sets[id]
	if !ok {
		return nil, errors.New("question set not found")
	}
	return set, nil
}

func passageSet(id string) *model.QuestionSet {
	return &model.QuestionSet{
		ID:      id,
		Kind:    model.QuestionSetKindPassage,
		Content: json.RawMessage(`{"text":"A long passage"}`),
	}
}

func TestResolveInlinePopulatesCache(t *testing.T) {
	fetcher := &fakeFetcher{}
	r := NewResolver(fetcher, zerolog.Nop())
	ctx := context.Background()

	inline := passageSet("set1")
	set, status, err := r.Resolve(ctx, "set1", inline)
	if err != nil || status != StatusSuccess || set != inline {
		t.Fatalf("inline resolve = (%v, %s, %v), want (inline, success, nil)", set, status, err)
	}

	// A later call for the same identifier with no inline payload must hit
	// the cache with zero fetches.
	set, status, err = r.Resolve(ctx, "set1", nil)
	if err != nil || status != StatusSuccess || set != inline {
		t.Fatalf("cached resolve = (%v, %s, %v), want (inline, success, nil)", set, status, err)
	}
	if n := atomic.LoadInt32(&fetcher.fetches); n != 0 {
		t.Fatalf("fetches = %d, want 0", n)
	}
}

func TestResolveFetchesOncePerIdentifier(t *testing.T) {
	fetcher := &fakeFetcher{sets: map[string]*model.QuestionSet{"set2": passageSet("set2")}}
	r := NewResolver(fetcher, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		set, status, err := r.Resolve(ctx, "set2", nil)
		if err != nil || status != StatusSuccess || set.ID != "set2" {
			t.Fatalf("resolve #%d = (%v, %s, %v)", i, set, status, err)
		}
	}
	if n := atomic.LoadInt32(&fetcher.fetches); n != 1 {
		t.Fatalf("fetches = %d, want 1", n)
	}
}

func TestResolveConcurrentCallersShareOneFetch(t *testing.T) {
	fetcher := &fakeFetcher{
		sets:  map[string]*model.QuestionSet{"set3": passageSet("set3")},
		block: make(chan struct{}),
	}
	r := NewResolver(fetcher, zerolog.Nop())
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]*model.QuestionSet, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			set, _, err := r.Resolve(ctx, "set3", nil)
			if err != nil {
				t.Errorf("caller %d: %v", i, err)
			}
			results[i] = set
		}(i)
	}

	close(fetcher.block)
	wg.Wait()

	if n := atomic.LoadInt32(&fetcher.fetches); n != 1 {
		t.Fatalf("fetches = %d, want 1 shared fetch", n)
	}
	for i, set := range results {
		if set == nil || set.ID != "set3" {
			t.Fatalf("caller %d got %v", i, set)
		}
	}
}

func TestResolveErrorLeavesCacheEmpty(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("upstream 503")}
	r := NewResolver(fetcher, zerolog.Nop())
	ctx := context.Background()

	_, status, err := r.Resolve(ctx, "set4", nil)
	if status != StatusError || err == nil {
		t.Fatalf("resolve = (%s, %v), want (error, non-nil)", status, err)
	}
	if _, ok := r.Peek("set4"); ok {
		t.Fatal("failed fetch must not populate the cache")
	}

	// A fresh request retries; recovery succeeds and caches.
	fetcher.err = nil
	fetcher.mu.Lock()
	fetcher.sets = map[string]*model.QuestionSet{"set4": passageSet("set4")}
	fetcher.mu.Unlock()

	set, status, err := r.Resolve(ctx, "set4", nil)
	if err != nil || status != StatusSuccess || set.ID != "set4" {
		t.Fatalf("retry = (%v, %s, %v)", set, status, err)
	}
	if n := atomic.LoadInt32(&fetcher.fetches); n != 2 {
		t.Fatalf("fetches = %d, want 2 (one failure, one retry)", n)
	}
}

func TestResolveWithoutIdentifierIsIdle(t *testing.T) {
	r := NewResolver(&fakeFetcher{}, zerolog.Nop())
	_, status, err := r.Resolve(context.Background(), "", nil)
	if status != StatusIdle || !errors.Is(err, ErrNoIdentifier) {
		t.Fatalf("resolve = (%s, %v), want (idle, ErrNoIdentifier)", status, err)
	}
}

func TestResolveInlineDoesNotOverwriteCache(t *testing.T) {
	r := NewResolver(&fakeFetcher{}, zerolog.Nop())
	ctx := context.Background()

	first := passageSet("set5")
	second := passageSet("set5")

	r.Resolve(ctx, "set5", first)
	set, _, _ := r.Resolve(ctx, "set5", second)
	if set != first {
		t.Fatal("immutable content: first cached payload must win")
	}
}
