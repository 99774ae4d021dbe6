package interview

import (
	"sync"
	"time"
)

// FailureKind classifies an exception recorded against a question.
type FailureKind string

const (
	FailureTransient  FailureKind = "transient"
	FailureValidation FailureKind = "validation"
	FailureOwnerGone  FailureKind = "owner_gone"
	FailureInternal   FailureKind = "internal"
)

// LedgerEntry is one recorded exception: what failed, how, when, and the
// answers known at failure time. Fixed is set when a later retry of the
// same question succeeded within the same interview.
type LedgerEntry struct {
	Question string            `json:"question"`
	Kind     FailureKind       `json:"kind"`
	At       time.Time         `json:"at"`
	Answers  map[string]string `json:"answers,omitempty"`
	Fixed    bool              `json:"fixed"`
}

// Ledger is the append-only per-question exception history. Entries are
// never deleted; RecordFixed only flags them, which failure-rate reporting
// relies on.
type Ledger struct {
	mu      sync.Mutex
	entries map[string][]*LedgerEntry
	order   []string // question names in first-failure order
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string][]*LedgerEntry)}
}

// Add appends an exception entry for a question.
func (l *Ledger) Add(question string, kind FailureKind, at time.Time, answers map[string]string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, seen := l.entries[question]; !seen {
		l.order = append(l.order, question)
	}
	l.entries[question] = append(l.entries[question], &LedgerEntry{
		Question: question,
		Kind:     kind,
		At:       at,
		Answers:  answers,
	})
}

// RecordFixed flags every entry of a question as eventually fixed. No-op
// for questions without history.
func (l *Ledger) RecordFixed(question string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries[question] {
		e.Fixed = true
	}
}

// QuestionsWithFailures counts questions with any recorded exception.
func (l *Ledger) QuestionsWithFailures() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// QuestionsWithUnfixedFailures counts questions whose history was never
// flagged fixed.
func (l *Ledger) QuestionsWithUnfixedFailures() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	count := 0
	for _, entries := range l.entries {
		for _, e := range entries {
			if !e.Fixed {
				count++
				break
			}
		}
	}
	return count
}

// Entries returns a copy of the full history in first-failure order.
func (l *Ledger) Entries() []LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []LedgerEntry
	for _, q := range l.order {
		for _, e := range l.entries[q] {
			out = append(out, *e)
		}
	}
	return out
}

// EntriesFor returns a copy of one question's history.
func (l *Ledger) EntriesFor(question string) []LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]LedgerEntry, 0, len(l.entries[question]))
	for _, e := range l.entries[question] {
		out = append(out, *e)
	}
	return out
}
