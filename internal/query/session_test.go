package query

import (
	"context"
	"testing"
)

func TestSessions_DifferentFileSupersedes(t *testing.T) {
	s := NewSessions()

	first, doneFirst := s.Begin(context.Background(), "w1", "a.go")
	defer doneFirst()
	second, doneSecond := s.Begin(context.Background(), "w1", "b.go")
	defer doneSecond()

	if first.Err() == nil || !IsSuperseded(first) {
		t.Error("first query should be superseded")
	}
	if second.Err() != nil {
		t.Error("second query should still be running")
	}
}

func TestSessions_SameFileKeepsRunning(t *testing.T) {
	s := NewSessions()

	first, doneFirst := s.Begin(context.Background(), "w1", "a.go")
	defer doneFirst()
	second, doneSecond := s.Begin(context.Background(), "w1", "a.go")
	defer doneSecond()

	if first.Err() != nil || second.Err() != nil {
		t.Fatal("queries for the same file should both run")
	}

	third, doneThird := s.Begin(context.Background(), "w1", "b.go")
	defer doneThird()
	if !IsSuperseded(first) || !IsSuperseded(second) {
		t.Error("a new file should supersede every earlier query in the session")
	}
	if third.Err() != nil {
		t.Error("newest query should still be running")
	}
}

func TestSessions_Isolated(t *testing.T) {
	s := NewSessions()

	a, doneA := s.Begin(context.Background(), "w1", "a.go")
	defer doneA()
	_, doneB := s.Begin(context.Background(), "w2", "b.go")
	defer doneB()

	if a.Err() != nil {
		t.Error("queries in different sessions must not cancel each other")
	}
	if s.Active() != 2 {
		t.Errorf("Active() = %d, want 2", s.Active())
	}
}

func TestSessions_Done(t *testing.T) {
	s := NewSessions()

	ctx, done := s.Begin(context.Background(), "w1", "a.go")
	done()

	if s.Active() != 0 {
		t.Errorf("Active() = %d, want 0 after done", s.Active())
	}
	if ctx.Err() == nil {
		t.Error("done should release the query context")
	}
	if IsSuperseded(ctx) {
		t.Error("a finished query is not superseded")
	}
}
