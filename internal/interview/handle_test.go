package interview

import (
	"errors"
	"testing"
)

func TestHandleResolvesOwner(t *testing.T) {
	iv, err := New(Params{Survey: branchingSurvey(), Answerer: newFakeAnswerer(nil)})
	if err != nil {
		t.Fatalf("failed to build interview: %v", err)
	}

	h := iv.Handle()
	if !h.Valid() {
		t.Fatalf("expected handle valid before close")
	}
	owner, err := h.Owner()
	if err != nil || owner != iv {
		t.Fatalf("expected handle to resolve its interview, got %v (%v)", owner, err)
	}
}

func TestHandleInvalidAfterClose(t *testing.T) {
	iv, err := New(Params{Survey: branchingSurvey(), Answerer: newFakeAnswerer(nil)})
	if err != nil {
		t.Fatalf("failed to build interview: %v", err)
	}

	iv.Close()
	if iv.Handle().Valid() {
		t.Fatalf("expected handle invalid after close")
	}
	if _, err := iv.Handle().Owner(); !errors.Is(err, ErrOwnerGone) {
		t.Fatalf("expected ErrOwnerGone, got %v", err)
	}
}

func TestSkipEvaluatorAfterClose(t *testing.T) {
	iv, err := New(Params{Survey: branchingSurvey(), Answerer: newFakeAnswerer(nil)})
	if err != nil {
		t.Fatalf("failed to build interview: %v", err)
	}
	iv.Close()

	ev := NewSkipEvaluator(iv.Handle())
	if _, err := ev.ShouldSkip(0); !errors.Is(err, ErrOwnerGone) {
		t.Fatalf("expected ErrOwnerGone from ShouldSkip, got %v", err)
	}
	if err := ev.PropagateAfter(0); !errors.Is(err, ErrOwnerGone) {
		t.Fatalf("expected ErrOwnerGone from PropagateAfter, got %v", err)
	}
}

func TestSkipFlagsFirstReasonWins(t *testing.T) {
	f := NewSkipFlags()
	f.Set("q1", "first")
	f.Set("q1", "second")

	reason, ok := f.Get("q1")
	if !ok || reason != "first" {
		t.Fatalf("expected first reason retained, got %q ok=%v", reason, ok)
	}
	if _, ok := f.Get("q2"); ok {
		t.Fatalf("expected q2 unflagged")
	}
}
