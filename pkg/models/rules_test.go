package models

import "testing"

func testSurvey() *Survey {
	yes := true
	no := false
	return &Survey{
		Name: "rules-test",
		Questions: []Question{
			{Name: "q1"},
			{Name: "q2"},
			{Name: "q3"},
			{Name: "q4"},
		},
		SkipRules: []SkipRule{
			{When: SkipCondition{Question: "q1", Equals: "yes"}, Skip: []string{"q2"}},
			{When: SkipCondition{Question: "q1", OneOf: []string{"a", "b"}}, Skip: []string{"q3"}},
			{When: SkipCondition{Field: "mode", Equals: "short"}, Skip: []string{"q4"}},
			{When: SkipCondition{Question: "q2", Answered: &no}, Skip: []string{"q4"}},
			{When: SkipCondition{Question: "q3", Answered: &yes}, Skip: []string{"q4"}},
		},
	}
}

func ctxWith(answers map[string]Answer, scenario Scenario) InterviewContext {
	return InterviewContext{Answers: answers, Scenario: scenario}
}

func TestShouldSkipEquals(t *testing.T) {
	rules := NewRules(testSurvey())

	ic := ctxWith(map[string]Answer{"q1": {Value: "yes"}}, nil)
	if !rules.ShouldSkip(1, ic) {
		t.Fatalf("expected q2 skipped when q1 == yes")
	}

	ic = ctxWith(map[string]Answer{"q1": {Value: "no"}}, nil)
	if rules.ShouldSkip(1, ic) {
		t.Fatalf("expected q2 not skipped when q1 == no")
	}
}

func TestShouldSkipIgnoresUnanswered(t *testing.T) {
	rules := NewRules(testSurvey())
	if rules.ShouldSkip(1, ctxWith(nil, nil)) {
		t.Fatalf("expected no skip before q1 answered")
	}

	// A skipped sentinel does not count as an answer.
	ic := ctxWith(map[string]Answer{"q1": SkippedAnswer()}, nil)
	if rules.ShouldSkip(1, ic) {
		t.Fatalf("expected skipped q1 not to trigger equals rule")
	}
}

func TestShouldSkipOneOf(t *testing.T) {
	rules := NewRules(testSurvey())
	ic := ctxWith(map[string]Answer{"q1": {Value: "b"}}, nil)
	if !rules.ShouldSkip(2, ic) {
		t.Fatalf("expected q3 skipped for one_of match")
	}
	ic = ctxWith(map[string]Answer{"q1": {Value: "c"}}, nil)
	if rules.ShouldSkip(2, ic) {
		t.Fatalf("expected q3 not skipped for non-member value")
	}
}

func TestShouldSkipScenarioField(t *testing.T) {
	rules := NewRules(testSurvey())
	ic := ctxWith(nil, Scenario{"mode": "short"})
	if !rules.ShouldSkip(3, ic) {
		t.Fatalf("expected q4 skipped in short mode")
	}
}

func TestShouldSkipAnswered(t *testing.T) {
	rules := NewRules(testSurvey())

	// q2 unanswered -> Answered:false rule fires for q4.
	ic := ctxWith(map[string]Answer{"q1": {Value: "x"}}, nil)
	if !rules.ShouldSkip(3, ic) {
		t.Fatalf("expected q4 skipped while q2 unanswered")
	}

	// q2 answered, q3 answered -> Answered:true rule fires for q4.
	ic = ctxWith(map[string]Answer{"q2": {Value: "v"}, "q3": {Value: "v"}}, nil)
	if !rules.ShouldSkip(3, ic) {
		t.Fatalf("expected q4 skipped once q3 answered")
	}
}

func TestNextIndexSkipsFlaggedQuestions(t *testing.T) {
	rules := NewRules(testSurvey())

	ic := ctxWith(map[string]Answer{"q1": {Value: "yes"}}, nil)
	next := rules.NextIndex(0, ic)
	if next != 2 {
		t.Fatalf("expected next index 2 (q3), got %d", next)
	}
}

func TestNextIndexEndOfSurvey(t *testing.T) {
	s := &Survey{
		Name:      "end",
		Questions: []Question{{Name: "q1"}, {Name: "q2"}},
		SkipRules: []SkipRule{
			{When: SkipCondition{Question: "q1", Equals: "done"}, Skip: []string{"q2"}},
		},
	}
	rules := NewRules(s)
	ic := ctxWith(map[string]Answer{"q1": {Value: "done"}}, nil)
	if next := rules.NextIndex(0, ic); next != EndOfSurvey {
		t.Fatalf("expected EndOfSurvey, got %d", next)
	}
}

func TestRuleDependencies(t *testing.T) {
	deps := RuleDependencies(testSurvey())
	if got := deps["q2"]; len(got) != 1 || got[0] != "q1" {
		t.Fatalf("expected q2 to depend on q1, got %v", got)
	}
	// Field-based rules contribute no question dependency.
	for _, d := range deps["q4"] {
		if d == "" {
			t.Fatalf("unexpected empty dependency for q4")
		}
	}
}
