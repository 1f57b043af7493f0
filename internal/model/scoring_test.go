package model

import (
	"testing"
	"time"
)

func option(id uint, correct bool) AnswerOption {
	opt := AnswerOption{IsTrue: correct}
	opt.ID = id
	return opt
}

func TestPointsAllOrNothing(t *testing.T) {
	q := Question{Score: 4, Options: []AnswerOption{
		option(1, true),
		option(2, true),
		option(3, false),
	}}

	cases := []struct {
		name     string
		selected []AnswerOption
		want     int
	}{
		{"exact match", []AnswerOption{option(1, true), option(2, true)}, 4},
		{"partial", []AnswerOption{option(1, true)}, 0},
		{"superset", []AnswerOption{option(1, true), option(2, true), option(3, false)}, 0},
		{"wrong only", []AnswerOption{option(3, false)}, 0},
		{"nothing selected", nil, 0},
	}
	for _, tc := range cases {
		ua := UserAnswer{Question: q, Answers: tc.selected}
		if got := ua.Points(); got != tc.want {
			t.Errorf("%s: got %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestPointsEmptyCorrectSet(t *testing.T) {
	// A question with no correct options awards its score for an empty
	// selection.
	q := Question{Score: 2, Options: []AnswerOption{option(1, false)}}
	ua := UserAnswer{Question: q}
	if got := ua.Points(); got != 2 {
		t.Fatalf("empty selection against empty correct set: got %d, want 2", got)
	}
}

func TestPointsSingleSelectMergesIntoSet(t *testing.T) {
	q := Question{Score: 3, Options: []AnswerOption{
		option(1, true),
		option(2, false),
	}}
	id := uint(1)
	ua := UserAnswer{Question: q, AnswerID: &id}
	if got := ua.Points(); got != 3 {
		t.Fatalf("single-select submission: got %d, want 3", got)
	}

	// The same id via both shapes counts once.
	ua.Answers = []AnswerOption{option(1, true)}
	if ids := ua.SelectedAnswerIDs(); len(ids) != 1 {
		t.Fatalf("expected deduplicated selection, got %v", ids)
	}
	if got := ua.Points(); got != 3 {
		t.Fatalf("duplicated selection: got %d, want 3", got)
	}
}

func TestPointsFreeAnswer(t *testing.T) {
	q := Question{Score: 5, IsFreeAnswer: true}

	ungraded := UserAnswer{Question: q, Text: "essay"}
	if got := ungraded.Points(); got != 0 {
		t.Fatalf("ungraded free answer: got %d, want 0", got)
	}

	points := 3
	graded := UserAnswer{Question: q, Text: "essay", UserPoints: &points}
	if got := graded.Points(); got != 3 {
		t.Fatalf("graded free answer: got %d, want 3", got)
	}
	if got := graded.MaxPoints(); got != 5 {
		t.Fatalf("max points: got %d, want 5", got)
	}
}

func TestTravelTimeSeconds(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"00:30:00", 1800},
		{"01:00:30", 3630},
		{"00:00:05", 5},
		{"", 0},
		{"30:00", 0},
		{"aa:bb:cc", 0},
	}
	for _, tc := range cases {
		task := Task{TravelTime: tc.in}
		if got := task.TravelTimeSeconds(); got != tc.want {
			t.Errorf("%q: got %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestPassingTravelTimeTruncatesToSeconds(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	finish := start.Add(90*time.Second + 900*time.Millisecond)

	p := Passing{StartTime: start, FinishTime: &finish}
	elapsed, ok := p.TravelTime()
	if !ok {
		t.Fatalf("expected a finished passing to report elapsed time")
	}
	if elapsed != 90 {
		t.Fatalf("expected sub-second remainder dropped, got %v", elapsed)
	}

	open := Passing{StartTime: start}
	if _, ok := open.TravelTime(); ok {
		t.Fatalf("an open passing has no elapsed time")
	}
}

func TestPassingTerminal(t *testing.T) {
	p := Passing{SuccessPassed: PassingNotFinished}
	if p.IsTerminal() {
		t.Fatalf("an in-progress passing is not terminal")
	}
	for _, status := range []int{PassingPassed, PassingOnCheck, PassingLimit, PassingAttempts, PassingScore} {
		p.SuccessPassed = status
		if !p.IsTerminal() {
			t.Fatalf("status %d should be terminal", status)
		}
	}
}
