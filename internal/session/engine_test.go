package session

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"github.com/prepdesk/prepdesk-backend/internal/model"
)

func TestNavigateToQuestionCrossesSections(t *testing.T) {
	st := newTestStore(t, testConfig(), NewMemoryStorage())

	snap := st.NavigateToQuestion(3) // first question of section 2

	if snap.CurrentQuestionIndex != 3 || snap.CurrentSectionIndex != 1 {
		t.Fatalf("position = (%d, %d), want (3, 1)", snap.CurrentQuestionIndex, snap.CurrentSectionIndex)
	}
	if !snap.Questions["s2q1"].IsVisited {
		t.Fatal("destination s2q1 must be visited")
	}
	for _, id := range []string{"s1q2", "s1q3", "s2q2", "s2q3"} {
		if snap.Questions[id].Status != model.StatusNotVisited {
			t.Errorf("%s status = %s, want NOT_VISITED (untouched)", id, snap.Questions[id].Status)
		}
	}
	// The question navigated away from is only visited, nothing else.
	if q := snap.Questions["s1q1"]; q.IsSaved || q.MarkedForReview {
		t.Fatalf("s1q1 = %+v, navigation must not alter the source question", q)
	}
}

func TestNavigateIsIdempotentOnVisited(t *testing.T) {
	st := newTestStore(t, testConfig(), NewMemoryStorage())

	first := st.NavigateToQuestion(2)
	st.NavigateToQuestion(4)
	second := st.NavigateToQuestion(2)

	if !reflect.DeepEqual(first.Questions["s1q3"], second.Questions["s1q3"]) {
		t.Fatalf("revisiting changed question state: %+v vs %+v",
			first.Questions["s1q3"], second.Questions["s1q3"])
	}
}

func TestNavigateOutOfRangeIsNoOp(t *testing.T) {
	st := newTestStore(t, testConfig(), NewMemoryStorage())
	st.NavigateToQuestion(2)

	for _, index := range []int{-1, 6, 100} {
		snap := st.NavigateToQuestion(index)
		if snap.CurrentQuestionIndex != 2 {
			t.Fatalf("NavigateToQuestion(%d) moved position to %d", index, snap.CurrentQuestionIndex)
		}
	}
}

func TestNavigateToSection(t *testing.T) {
	st := newTestStore(t, testConfig(), NewMemoryStorage())

	snap := st.NavigateToSection(1)
	if snap.CurrentQuestionIndex != 3 || snap.CurrentSectionIndex != 1 {
		t.Fatalf("position = (%d, %d), want (3, 1)", snap.CurrentQuestionIndex, snap.CurrentSectionIndex)
	}

	snap = st.NavigateToSection(5)
	if snap.CurrentQuestionIndex != 3 {
		t.Fatal("out-of-range section must be a no-op")
	}
}

func TestGoToNextAndPreviousAtBoundaries(t *testing.T) {
	st := newTestStore(t, testConfig(), NewMemoryStorage())

	if snap := st.GoToPrevious(); snap.CurrentQuestionIndex != 0 {
		t.Fatal("previous at first question must stay put")
	}

	st.NavigateToQuestion(5)
	if snap := st.GoToNext(); snap.CurrentQuestionIndex != 5 {
		t.Fatal("next at last question must stay put")
	}

	st.NavigateToQuestion(2)
	if snap := st.GoToNext(); snap.CurrentQuestionIndex != 3 || snap.CurrentSectionIndex != 1 {
		t.Fatalf("next across section boundary = (%d, %d), want (3, 1)",
			snap.CurrentQuestionIndex, snap.CurrentSectionIndex)
	}
}

func TestSaveAnswer(t *testing.T) {
	st := newTestStore(t, testConfig(), NewMemoryStorage())
	st.ToggleMarkForReview("s1q2")

	snap := st.SaveAnswer("s1q2", json.RawMessage(`"C"`))
	q := snap.Questions["s1q2"]

	if !q.IsVisited || !q.IsSaved {
		t.Fatalf("s1q2 = %+v, want visited and saved", q)
	}
	if !q.MarkedForReview {
		t.Fatal("SaveAnswer must preserve the review mark")
	}
	if q.Status != model.StatusAnsweredAndMarked {
		t.Fatalf("status = %s, want ANSWERED_AND_MARKED", q.Status)
	}
}

func TestSaveAnswerUnknownQuestionIsNoOp(t *testing.T) {
	st := newTestStore(t, testConfig(), NewMemoryStorage())
	before := st.Snapshot()
	after := st.SaveAnswer("ghost", json.RawMessage(`"A"`))
	if !reflect.DeepEqual(before, after) {
		t.Fatal("unknown question ID must not change state")
	}
}

func TestSaveAndNavigateIsOneSnapshot(t *testing.T) {
	storage := &countingStorage{MemoryStorage: NewMemoryStorage()}
	st := newTestStore(t, testConfig(), storage)
	writesAfterInit := storage.writes

	snap := st.SaveAndNavigate("s1q1", json.RawMessage(`"B"`), false, 3)

	if got := storage.writes - writesAfterInit; got != 1 {
		t.Fatalf("compound operation produced %d persisted snapshots, want exactly 1", got)
	}

	q := snap.Questions["s1q1"]
	if !q.IsSaved || string(q.SelectedAnswer) != `"B"` || q.Status != model.StatusAnswered {
		t.Fatalf("source question = %+v, want saved ANSWERED with answer \"B\"", q)
	}
	if !snap.Questions["s2q1"].IsVisited {
		t.Fatal("destination must be visited in the same snapshot")
	}
	if snap.CurrentQuestionIndex != 3 || snap.CurrentSectionIndex != 1 {
		t.Fatalf("position = (%d, %d), want (3, 1)", snap.CurrentQuestionIndex, snap.CurrentSectionIndex)
	}
}

func TestSaveAndNavigateOutOfRangeCommitsAnswerOnly(t *testing.T) {
	st := newTestStore(t, testConfig(), NewMemoryStorage())
	st.NavigateToQuestion(5)

	snap := st.SaveAndNavigate("s2q3", json.RawMessage(`["A","D"]`), false, 6)

	if snap.CurrentQuestionIndex != 5 {
		t.Fatalf("position moved to %d, want unchanged 5", snap.CurrentQuestionIndex)
	}
	if snap.Questions["s2q3"].Status != model.StatusAnswered {
		t.Fatal("answer must still commit when the navigation half is out of range")
	}
}

func TestMarkAndNavigateWithNullAnswer(t *testing.T) {
	st := newTestStore(t, testConfig(), NewMemoryStorage())

	snap := st.MarkAndNavigate("s1q1", nil, 1)
	q := snap.Questions["s1q1"]

	if q.IsSaved {
		t.Fatal("null answer must not set IsSaved")
	}
	if q.Status != model.StatusMarkedForReview {
		t.Fatalf("status = %s, want MARKED_FOR_REVIEW", q.Status)
	}
	if snap.CurrentQuestionIndex != 1 {
		t.Fatalf("position = %d, want 1", snap.CurrentQuestionIndex)
	}
}

func TestMarkAndNavigateWithAnswer(t *testing.T) {
	st := newTestStore(t, testConfig(), NewMemoryStorage())

	snap := st.MarkAndNavigate("s1q1", json.RawMessage(`"D"`), 1)
	if got := snap.Questions["s1q1"].Status; got != model.StatusAnsweredAndMarked {
		t.Fatalf("status = %s, want ANSWERED_AND_MARKED", got)
	}
}

func TestClearResponse(t *testing.T) {
	st := newTestStore(t, testConfig(), NewMemoryStorage())
	st.SaveAndNavigate("s1q1", json.RawMessage(`"B"`), true, -1)

	snap := st.ClearResponse("s1q1")
	q := snap.Questions["s1q1"]

	if q.IsSaved || q.SelectedAnswer != nil {
		t.Fatalf("s1q1 = %+v, want cleared", q)
	}
	if !q.MarkedForReview {
		t.Fatal("ClearResponse must not touch the review mark")
	}
	if q.Status != model.StatusMarkedForReview {
		t.Fatalf("status = %s, want MARKED_FOR_REVIEW", q.Status)
	}
}

func TestToggleMarkForReviewTwice(t *testing.T) {
	st := newTestStore(t, testConfig(), NewMemoryStorage())

	first := st.ToggleMarkForReview("s1q2")
	if got := first.Questions["s1q2"].Status; got != model.StatusMarkedForReview {
		t.Fatalf("after first toggle status = %s, want MARKED_FOR_REVIEW", got)
	}

	second := st.ToggleMarkForReview("s1q2")
	q := second.Questions["s1q2"]
	if q.MarkedForReview {
		t.Fatal("second toggle must unmark")
	}
	if q.Status != model.StatusNotAnswered {
		t.Fatalf("after second toggle status = %s, want NOT_ANSWERED", q.Status)
	}
}

func TestAddTimeTakenAccumulates(t *testing.T) {
	st := newTestStore(t, testConfig(), NewMemoryStorage())

	st.AddTimeTaken("s1q1", 12)
	st.AddTimeTaken("s1q1", 8)
	snap := st.AddTimeTaken("s1q1", -5) // ignored

	if got := snap.Questions["s1q1"].TimeTakenSeconds; got != 20 {
		t.Fatalf("TimeTakenSeconds = %d, want 20", got)
	}
}

func TestPauseResumeAndSyncRemaining(t *testing.T) {
	st := newTestStore(t, testConfig(), NewMemoryStorage())

	snap := st.Pause(1200)
	if !snap.IsPaused || snap.RemainingSeconds != 1200 {
		t.Fatalf("paused = %v remaining = %d, want true/1200", snap.IsPaused, snap.RemainingSeconds)
	}

	snap = st.Resume()
	if snap.IsPaused {
		t.Fatal("resume must lift the pause")
	}
	if snap.RemainingSeconds != 1200 {
		t.Fatal("resume must not rewrite the remaining countdown")
	}

	snap = st.SyncRemaining(1100)
	if snap.RemainingSeconds != 1100 {
		t.Fatalf("RemainingSeconds = %d, want 1100", snap.RemainingSeconds)
	}
}

func TestSetLanguage(t *testing.T) {
	st := newTestStore(t, testConfig(), NewMemoryStorage())
	if snap := st.SetLanguage("hi"); snap.Language != "hi" {
		t.Fatalf("Language = %q, want hi", snap.Language)
	}
}

func TestSubmitRoundTrip(t *testing.T) {
	st := newTestStore(t, testConfig(), NewMemoryStorage())

	answered := map[string]string{
		"s1q1": `"A"`, "s1q2": `"B"`, "s1q3": `["C","D"]`, "s2q1": `17`, "s2q2": `"E"`,
	}
	for id, ans := range answered {
		st.SaveAnswer(id, json.RawMessage(ans))
	}
	// s2q3 is never visited.

	sheet := st.Submit()
	if len(sheet) != 6 {
		t.Fatalf("sheet has %d entries, want 6", len(sheet))
	}
	for id, want := range answered {
		if string(sheet[id]) != want {
			t.Errorf("sheet[%s] = %s, want %s", id, sheet[id], want)
		}
	}
	if string(sheet["s2q3"]) != "null" {
		t.Fatalf("sheet[s2q3] = %s, want null for the unanswered question", sheet["s2q3"])
	}

	// Submit alone must not flip the flag; that commit is separate.
	if st.Snapshot().IsSubmitted {
		t.Fatal("Submit must not set IsSubmitted")
	}
	if snap := st.SetSubmitted(); !snap.IsSubmitted {
		t.Fatal("SetSubmitted must set the flag")
	}
}

func TestStatsAlwaysSumToTotal(t *testing.T) {
	st := newTestStore(t, testConfig(), NewMemoryStorage())

	checkSum := func(step string) {
		t.Helper()
		stats := st.Stats()
		sum := stats.Answered + stats.NotAnswered + stats.NotVisited +
			stats.MarkedForReview + stats.AnsweredAndMarked
		if sum != stats.Total || stats.Total != 6 {
			t.Fatalf("after %s: stats sum %d of total %d: %+v", step, sum, stats.Total, stats)
		}
	}

	checkSum("init")
	st.NavigateToQuestion(1)
	checkSum("navigate")
	st.SaveAndNavigate("s1q2", json.RawMessage(`"A"`), false, 2)
	checkSum("save and navigate")
	st.MarkAndNavigate("s1q3", nil, 3)
	checkSum("mark and navigate")
	st.SaveAndNavigate("s2q1", json.RawMessage(`"B"`), true, 4)
	checkSum("save marked")
	st.ClearResponse("s1q2")
	checkSum("clear")

	snap := st.Snapshot()
	expect := map[string]model.QuestionStatus{
		"s1q1": model.StatusNotVisited,
		"s1q2": model.StatusNotAnswered,
		"s1q3": model.StatusMarkedForReview,
		"s2q1": model.StatusAnsweredAndMarked,
		"s2q2": model.StatusNotAnswered,
		"s2q3": model.StatusNotVisited,
	}
	for id, status := range expect {
		if snap.Questions[id].Status != status {
			t.Errorf("%s status = %s, want %s", id, snap.Questions[id].Status, status)
		}
	}
}

func TestStatusStaysDerivedAfterEveryOperation(t *testing.T) {
	st := newTestStore(t, testConfig(), NewMemoryStorage())

	ops := []struct {
		name string
		run  func() model.ExamSessionState
	}{
		{"navigate", func() model.ExamSessionState { return st.NavigateToQuestion(1) }},
		{"save", func() model.ExamSessionState { return st.SaveAnswer("s1q2", json.RawMessage(`"A"`)) }},
		{"save and navigate", func() model.ExamSessionState {
			return st.SaveAndNavigate("s1q2", json.RawMessage(`"B"`), true, 2)
		}},
		{"mark and navigate", func() model.ExamSessionState { return st.MarkAndNavigate("s1q3", nil, 3) }},
		{"clear", func() model.ExamSessionState { return st.ClearResponse("s1q2") }},
		{"toggle mark", func() model.ExamSessionState { return st.ToggleMarkForReview("s2q1") }},
		{"time taken", func() model.ExamSessionState { return st.AddTimeTaken("s1q1", 3) }},
	}

	for _, op := range ops {
		snap := op.run()
		for id, q := range snap.Questions {
			if want := DeriveStatus(q.IsVisited, q.IsSaved, q.SelectedAnswer, q.MarkedForReview); q.Status != want {
				t.Fatalf("after %s: %s stored status %s diverges from derived %s", op.name, id, q.Status, want)
			}
		}
	}
}

func TestQuestionIDAt(t *testing.T) {
	st := newTestStore(t, testConfig(), NewMemoryStorage())
	tests := []struct {
		index int
		want  string
	}{
		{0, "s1q1"}, {2, "s1q3"}, {3, "s2q1"}, {5, "s2q3"}, {-1, ""}, {6, ""},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("index_%d", tc.index), func(t *testing.T) {
			if got := st.QuestionIDAt(tc.index); got != tc.want {
				t.Fatalf("QuestionIDAt(%d) = %q, want %q", tc.index, got, tc.want)
			}
		})
	}
}
