package interview

import (
	"testing"
	"time"
)

func TestLedgerAppendsPerAttempt(t *testing.T) {
	l := NewLedger()
	at := time.Unix(0, 0)

	l.Add("q1", FailureTransient, at, map[string]string{"q0": "yes"})
	l.Add("q1", FailureTransient, at.Add(time.Second), nil)
	l.Add("q2", FailureValidation, at, nil)

	if got := len(l.EntriesFor("q1")); got != 2 {
		t.Fatalf("expected 2 entries for q1, got %d", got)
	}
	if l.QuestionsWithFailures() != 2 {
		t.Fatalf("expected 2 questions with failures, got %d", l.QuestionsWithFailures())
	}

	entries := l.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries total, got %d", len(entries))
	}
	// First-failure order: q1's history before q2's.
	if entries[0].Question != "q1" || entries[2].Question != "q2" {
		t.Fatalf("unexpected entry order: %+v", entries)
	}
	if entries[0].Answers["q0"] != "yes" {
		t.Fatalf("expected answer snapshot retained, got %v", entries[0].Answers)
	}
}

func TestLedgerRecordFixedFlagsWithoutDeleting(t *testing.T) {
	l := NewLedger()
	at := time.Unix(0, 0)

	l.Add("q1", FailureTransient, at, nil)
	l.Add("q1", FailureTransient, at, nil)
	l.Add("q2", FailureValidation, at, nil)

	if l.QuestionsWithUnfixedFailures() != 2 {
		t.Fatalf("expected 2 unfixed questions, got %d", l.QuestionsWithUnfixedFailures())
	}

	l.RecordFixed("q1")

	if l.QuestionsWithFailures() != 2 {
		t.Fatalf("fixing must not delete history, got %d questions", l.QuestionsWithFailures())
	}
	if l.QuestionsWithUnfixedFailures() != 1 {
		t.Fatalf("expected 1 unfixed question, got %d", l.QuestionsWithUnfixedFailures())
	}
	for _, e := range l.EntriesFor("q1") {
		if !e.Fixed {
			t.Fatalf("expected every q1 entry flagged fixed, got %+v", e)
		}
	}
}

func TestLedgerRecordFixedNoHistory(t *testing.T) {
	l := NewLedger()
	l.RecordFixed("never-failed")
	if l.QuestionsWithFailures() != 0 {
		t.Fatalf("expected empty ledger, got %d", l.QuestionsWithFailures())
	}
}

func TestLedgerEntriesAreCopies(t *testing.T) {
	l := NewLedger()
	l.Add("q1", FailureTransient, time.Unix(0, 0), nil)

	entries := l.EntriesFor("q1")
	entries[0].Fixed = true

	if l.QuestionsWithUnfixedFailures() != 1 {
		t.Fatalf("mutating a returned entry must not affect the ledger")
	}
}
