package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/prepdesk/prepdesk-backend/internal/model"
)

// testConfig builds a 2-section, 3-questions-each configuration with IDs
// s1q1..s1q3 and s2q1..s2q3.
func testConfig() *model.ExamConfiguration {
	cfg := &model.ExamConfiguration{
		ID:              "exam-e1",
		Title:           "Mock Test 1",
		DurationMinutes: 60,
		Languages:       []string{"en", "hi"},
	}
	for s := 1; s <= 2; s++ {
		section := model.Section{
			ID:   fmt.Sprintf("sec-%d", s),
			Name: fmt.Sprintf("Section %d", s),
		}
		for q := 1; q <= 3; q++ {
			section.Questions = append(section.Questions, model.Question{
				ID:    fmt.Sprintf("s%dq%d", s, q),
				Type:  model.QuestionTypeSingleChoice,
				Marks: 2,
			})
		}
		cfg.Sections = append(cfg.Sections, section)
	}
	return cfg
}

func newTestStore(t *testing.T, cfg *model.ExamConfiguration, storage Storage) *Store {
	t.Helper()
	return NewStore(context.Background(), cfg, "exam-session:"+cfg.ID+":candidate:1", storage, zerolog.Nop())
}

// countingStorage wraps MemoryStorage and counts writes, so tests can
// assert that a compound operation lands as exactly one persisted snapshot.
type countingStorage struct {
	*MemoryStorage
	writes int
}

func (c *countingStorage) Write(ctx context.Context, key string, data []byte) error {
	c.writes++
	return c.MemoryStorage.Write(ctx, key, data)
}

// failingStorage rejects every write.
type failingStorage struct{ MemoryStorage }

func (f *failingStorage) Write(context.Context, string, []byte) error {
	return errors.New("quota exceeded")
}

func TestNewStoreFresh(t *testing.T) {
	storage := NewMemoryStorage()
	st := newTestStore(t, testConfig(), storage)

	snap := st.Snapshot()
	if snap.ExamID != "exam-e1" {
		t.Fatalf("ExamID = %q, want exam-e1", snap.ExamID)
	}
	if snap.CurrentQuestionIndex != 0 || snap.CurrentSectionIndex != 0 {
		t.Fatalf("fresh indices = (%d, %d), want (0, 0)", snap.CurrentQuestionIndex, snap.CurrentSectionIndex)
	}
	if len(snap.Questions) != 6 {
		t.Fatalf("question entries = %d, want 6", len(snap.Questions))
	}
	for id, q := range snap.Questions {
		if q.Status != model.StatusNotVisited {
			t.Errorf("%s status = %s, want NOT_VISITED", id, q.Status)
		}
	}
	if snap.RemainingSeconds != 3600 {
		t.Fatalf("RemainingSeconds = %d, want 3600", snap.RemainingSeconds)
	}
	if got := snap.EndTime.Sub(snap.StartTime).Minutes(); got != 60 {
		t.Fatalf("end-start = %v minutes, want 60", got)
	}
	if snap.Language != "en" {
		t.Fatalf("Language = %q, want en (first configured)", snap.Language)
	}
	if snap.IsSubmitted || snap.IsPaused {
		t.Fatal("fresh session must not be submitted or paused")
	}

	// Fresh state is persisted immediately.
	if _, ok, _ := storage.Read(context.Background(), "exam-session:exam-e1:candidate:1"); !ok {
		t.Fatal("fresh session was not written through to storage")
	}
}

func TestNewStoreRehydratesMatchingSession(t *testing.T) {
	storage := NewMemoryStorage()
	cfg := testConfig()

	first := newTestStore(t, cfg, storage)
	first.SaveAndNavigate("s1q1", json.RawMessage(`"B"`), false, 1)

	second := newTestStore(t, cfg, storage)
	snap := second.Snapshot()
	if snap.CurrentQuestionIndex != 1 {
		t.Fatalf("rehydrated index = %d, want 1", snap.CurrentQuestionIndex)
	}
	q := snap.Questions["s1q1"]
	if !q.IsSaved || q.Status != model.StatusAnswered {
		t.Fatalf("rehydrated s1q1 = %+v, want saved/ANSWERED", q)
	}
}

func TestStaleness(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.ExamConfiguration)
	}{
		{
			name:   "different exam id",
			mutate: func(c *model.ExamConfiguration) { c.ID = "exam-e2" },
		},
		{
			name: "question added",
			mutate: func(c *model.ExamConfiguration) {
				c.Sections[1].Questions = append(c.Sections[1].Questions, model.Question{ID: "s2q4"})
			},
		},
		{
			name: "question replaced",
			mutate: func(c *model.ExamConfiguration) {
				c.Sections[0].Questions[1].ID = "s1q2-v2"
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			storage := NewMemoryStorage()
			first := newTestStore(t, testConfig(), storage)
			first.SaveAnswer("s1q1", json.RawMessage(`"A"`))

			changed := testConfig()
			tc.mutate(changed)

			// Same storage key: a changed configuration must discard the
			// persisted progress wholesale, never merge it.
			second := NewStore(context.Background(), changed, "exam-session:exam-e1:candidate:1", storage, zerolog.Nop())
			snap := second.Snapshot()

			if snap.CurrentQuestionIndex != 0 {
				t.Fatalf("index = %d, want 0 after reset", snap.CurrentQuestionIndex)
			}
			if len(snap.Questions) != changed.TotalQuestions() {
				t.Fatalf("entries = %d, want %d", len(snap.Questions), changed.TotalQuestions())
			}
			for id, q := range snap.Questions {
				if q.Status != model.StatusNotVisited {
					t.Fatalf("%s status = %s, want NOT_VISITED after reset", id, q.Status)
				}
			}
		})
	}
}

func TestCorruptPayloadResetsToFresh(t *testing.T) {
	storage := NewMemoryStorage()
	key := "exam-session:exam-e1:candidate:1"
	if err := storage.Write(context.Background(), key, []byte(`{"exam_id": truncated`)); err != nil {
		t.Fatal(err)
	}

	st := NewStore(context.Background(), testConfig(), key, storage, zerolog.Nop())
	snap := st.Snapshot()
	if len(snap.Questions) != 6 || snap.CurrentQuestionIndex != 0 {
		t.Fatalf("corrupt payload did not reset cleanly: %+v", snap)
	}
}

func TestUpdateChainsComposeAgainstLatestState(t *testing.T) {
	st := newTestStore(t, testConfig(), NewMemoryStorage())

	// Two updates issued back-to-back must each see the previous result,
	// never the snapshot both started from.
	st.Update(func(s model.ExamSessionState) model.ExamSessionState {
		s.RemainingSeconds -= 10
		return s
	})
	snap := st.Update(func(s model.ExamSessionState) model.ExamSessionState {
		s.RemainingSeconds -= 10
		return s
	})

	if snap.RemainingSeconds != 3580 {
		t.Fatalf("RemainingSeconds = %d, want 3580 (both decrements applied)", snap.RemainingSeconds)
	}
}

func TestPersistFailureKeepsSessionUsable(t *testing.T) {
	storage := &failingStorage{MemoryStorage{data: map[string][]byte{}}}
	st := newTestStore(t, testConfig(), storage)

	snap := st.SaveAnswer("s1q1", json.RawMessage(`"C"`))
	if snap.Questions["s1q1"].Status != model.StatusAnswered {
		t.Fatal("in-memory state must advance even when persistence fails")
	}
}

func TestStoredStatusIsRecomputedOnRead(t *testing.T) {
	storage := NewMemoryStorage()
	cfg := testConfig()
	key := "exam-session:exam-e1:candidate:1"

	first := NewStore(context.Background(), cfg, key, storage, zerolog.Nop())
	first.SaveAnswer("s1q1", json.RawMessage(`"A"`))

	// Tamper with the persisted projection: flags say answered, stored
	// status says otherwise.
	data, _, err := storage.Read(context.Background(), key)
	if err != nil {
		t.Fatal(err)
	}
	var raw model.ExamSessionState
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	q := raw.Questions["s1q1"]
	q.Status = model.StatusNotVisited
	raw.Questions["s1q1"] = q
	tampered, err := json.Marshal(raw)
	if err != nil {
		t.Fatal(err)
	}
	if err := storage.Write(context.Background(), key, tampered); err != nil {
		t.Fatal(err)
	}

	second := NewStore(context.Background(), cfg, key, storage, zerolog.Nop())
	if got := second.Snapshot().Questions["s1q1"].Status; got != model.StatusAnswered {
		t.Fatalf("status = %s, want ANSWERED recomputed from flags", got)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	st := newTestStore(t, testConfig(), NewMemoryStorage())

	snap := st.Snapshot()
	q := snap.Questions["s1q1"]
	q.IsVisited = true
	snap.Questions["s1q1"] = q

	if st.Snapshot().Questions["s1q1"].IsVisited {
		t.Fatal("mutating a snapshot leaked into the canonical state")
	}
}
