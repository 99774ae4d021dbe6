package models

// EndOfSurvey is returned by Rules.NextIndex when no further question is
// reachable.
const EndOfSurvey = -1

// Rules is the survey's flow-control collaborator. Implementations are
// opaque to the execution engine: ShouldSkip answers the pre-run bypass
// check for a question index, NextIndex computes the next reachable index
// given the answers recorded so far.
type Rules interface {
	ShouldSkip(index int, ic InterviewContext) bool
	NextIndex(current int, ic InterviewContext) int
}

// declarativeRules evaluates the survey's own skip_rules definitions.
type declarativeRules struct {
	survey *Survey
	// byTarget maps a question name to the rules that can skip it.
	byTarget map[string][]SkipRule
}

// NewRules builds the declarative Rules implementation for a survey.
func NewRules(survey *Survey) Rules {
	byTarget := make(map[string][]SkipRule)
	for _, rule := range survey.SkipRules {
		for _, name := range rule.Skip {
			byTarget[name] = append(byTarget[name], rule)
		}
	}
	return &declarativeRules{survey: survey, byTarget: byTarget}
}

func (r *declarativeRules) ShouldSkip(index int, ic InterviewContext) bool {
	if index < 0 || index >= len(r.survey.Questions) {
		return false
	}
	name := r.survey.Questions[index].Name
	for _, rule := range r.byTarget[name] {
		if r.matches(rule.When, ic) {
			return true
		}
	}
	return false
}

func (r *declarativeRules) NextIndex(current int, ic InterviewContext) int {
	for i := current + 1; i < len(r.survey.Questions); i++ {
		if !r.ShouldSkip(i, ic) {
			return i
		}
	}
	return EndOfSurvey
}

func (r *declarativeRules) matches(cond SkipCondition, ic InterviewContext) bool {
	if cond.Question != "" {
		ans, ok := ic.Answers[cond.Question]
		answered := ok && !ans.Skipped && !ans.NoAnswer
		if cond.Answered != nil {
			return *cond.Answered == answered
		}
		if !answered {
			return false
		}
		return valueMatches(cond, ans.Value)
	}
	if cond.Field != "" {
		val, ok := ic.Scenario[cond.Field]
		if !ok {
			val, ok = ic.Persona[cond.Field]
		}
		if !ok {
			return false
		}
		return valueMatches(cond, val)
	}
	return false
}

func valueMatches(cond SkipCondition, value string) bool {
	if cond.Equals != "" {
		return value == cond.Equals
	}
	for _, v := range cond.OneOf {
		if value == v {
			return true
		}
	}
	return false
}

// RuleDependencies returns, for each question name, the set of question
// names referenced by any rule that can skip it. These are the
// skip-relevance edges merged into the dependency graph.
func RuleDependencies(survey *Survey) map[string][]string {
	deps := make(map[string][]string)
	for _, rule := range survey.SkipRules {
		if rule.When.Question == "" {
			continue
		}
		for _, target := range rule.Skip {
			deps[target] = append(deps[target], rule.When.Question)
		}
	}
	return deps
}
