package session

import (
	"encoding/json"
	"testing"

	"github.com/prepdesk/prepdesk-backend/internal/model"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name    string
		visited bool
		saved   bool
		answer  string
		marked  bool
		want    model.QuestionStatus
	}{
		{name: "untouched", want: model.StatusNotVisited},
		{name: "not visited wins over everything", saved: true, answer: `"B"`, marked: true, want: model.StatusNotVisited},
		{name: "visited only", visited: true, want: model.StatusNotAnswered},
		{name: "saved with answer", visited: true, saved: true, answer: `"B"`, want: model.StatusAnswered},
		{name: "saved with array answer", visited: true, saved: true, answer: `["A","C"]`, want: model.StatusAnswered},
		{name: "saved with numeric answer", visited: true, saved: true, answer: `42.5`, want: model.StatusAnswered},
		{name: "saved empty string is not answered", visited: true, saved: true, answer: `""`, want: model.StatusNotAnswered},
		{name: "saved empty array is not answered", visited: true, saved: true, answer: `[]`, want: model.StatusNotAnswered},
		{name: "saved null is not answered", visited: true, saved: true, answer: `null`, want: model.StatusNotAnswered},
		{name: "marked only", visited: true, marked: true, want: model.StatusMarkedForReview},
		{name: "marked with unsaved answer keeps review intent", visited: true, marked: true, answer: `"B"`, want: model.StatusMarkedForReview},
		{name: "marked with saved empty answer", visited: true, saved: true, marked: true, answer: `[]`, want: model.StatusMarkedForReview},
		{name: "marked and saved with answer", visited: true, saved: true, marked: true, answer: `"B"`, want: model.StatusAnsweredAndMarked},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var answer json.RawMessage
			if tc.answer != "" {
				answer = json.RawMessage(tc.answer)
			}
			got := DeriveStatus(tc.visited, tc.saved, answer, tc.marked)
			if got != tc.want {
				t.Fatalf("DeriveStatus(%v, %v, %s, %v) = %s, want %s",
					tc.visited, tc.saved, tc.answer, tc.marked, got, tc.want)
			}
		})
	}
}

func TestHasAnswer(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{name: "absent", raw: "", want: false},
		{name: "null", raw: `null`, want: false},
		{name: "empty string", raw: `""`, want: false},
		{name: "empty array", raw: `[]`, want: false},
		{name: "string", raw: `"A"`, want: true},
		{name: "array", raw: `["A"]`, want: true},
		{name: "number", raw: `0`, want: true},
		{name: "object", raw: `{"value":"A"}`, want: true},
		{name: "malformed", raw: `{"value":`, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var raw json.RawMessage
			if tc.raw != "" {
				raw = json.RawMessage(tc.raw)
			}
			if got := HasAnswer(raw); got != tc.want {
				t.Fatalf("HasAnswer(%s) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}
