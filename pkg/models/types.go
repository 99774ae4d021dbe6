package models

import "time"

// Question is a single survey question. Memory lists the names of prior
// questions whose answers must be presented alongside this one.
type Question struct {
	Name      string   `yaml:"name" json:"name"`
	Text      string   `yaml:"text" json:"text"`
	Type      string   `yaml:"type" json:"type"`
	Options   []string `yaml:"options,omitempty" json:"options,omitempty"`
	Memory    []string `yaml:"memory,omitempty" json:"memory,omitempty"`
	MaxTokens int      `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
}

// SkipCondition matches against a prior answer or a context field.
// Exactly one of Question or Field should be set.
type SkipCondition struct {
	Question string   `yaml:"question,omitempty" json:"question,omitempty"`
	Field    string   `yaml:"field,omitempty" json:"field,omitempty"`
	Equals   string   `yaml:"equals,omitempty" json:"equals,omitempty"`
	OneOf    []string `yaml:"one_of,omitempty" json:"one_of,omitempty"`
	Answered *bool    `yaml:"answered,omitempty" json:"answered,omitempty"`
}

// SkipRule bypasses the named questions when its condition holds.
type SkipRule struct {
	When SkipCondition `yaml:"when" json:"when"`
	Skip []string      `yaml:"skip" json:"skip"`
}

// Survey is an ordered, immutable questionnaire definition.
type Survey struct {
	Name      string     `yaml:"name" json:"name"`
	Questions []Question `yaml:"questions" json:"questions"`
	SkipRules []SkipRule `yaml:"skip_rules,omitempty" json:"skip_rules,omitempty"`
}

// Len returns the number of questions.
func (s *Survey) Len() int {
	return len(s.Questions)
}

// Index returns the survey index of the named question.
func (s *Survey) Index(name string) (int, bool) {
	for i := range s.Questions {
		if s.Questions[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

// Persona describes the simulated respondent as free-form fields.
type Persona map[string]string

// Scenario describes the situational framing of the interview.
type Scenario map[string]string

// Answer is the finalized record for one question.
type Answer struct {
	Value    string `json:"value"`
	Comment  string `json:"comment,omitempty"`
	Artifact string `json:"artifact,omitempty"`
	Skipped  bool   `json:"skipped,omitempty"`
	NoAnswer bool   `json:"no_answer,omitempty"`
}

// SkippedAnswer is the sentinel written when skip logic bypasses a question.
func SkippedAnswer() Answer {
	return Answer{Skipped: true}
}

// NoAnswerMarker is the sentinel written for questions never reached.
func NoAnswerMarker() Answer {
	return Answer{NoAnswer: true}
}

// Result is what the answer-generation service returns for one question.
type Result struct {
	Value         string `json:"value"`
	Comment       string `json:"comment,omitempty"`
	Artifact      string `json:"artifact,omitempty"`
	Valid         bool   `json:"valid"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// InterviewContext is the snapshot handed to the answerer and to skip
/// rules: everything known about the interview at the time of the call.
type InterviewContext struct {
	SurveyName string            `json:"survey_name"`
	Iteration  int               `json:"iteration"`
	Persona    Persona           `json:"persona,omitempty"`
	Scenario   Scenario          `json:"scenario,omitempty"`
	Answers    map[string]Answer `json:"answers,omitempty"`
}

// OutcomeKind classifies what happened to one question.
type OutcomeKind string

const (
	OutcomeAnswered  OutcomeKind = "answered"
	OutcomeSkipped   OutcomeKind = "skipped"
	OutcomeFailed    OutcomeKind = "failed"
	OutcomeUnreached OutcomeKind = "unreached"
)

// Outcome is the per-question record returned by an interview run.
type Outcome struct {
	Question   string      `json:"question"`
	Kind       OutcomeKind `json:"kind"`
	Value      string      `json:"value,omitempty"`
	SkipReason string      `json:"skip_reason,omitempty"`
	Failure    string      `json:"failure,omitempty"`
	Attempts   int         `json:"attempts,omitempty"`
}

// TaskStatus is one state of the per-question task machine.
type TaskStatus string

const (
	StatusNotStarted             TaskStatus = "NOT_STARTED"
	StatusWaitingForDependencies TaskStatus = "WAITING_FOR_DEPENDENCIES"
	StatusWaitingForCapacity     TaskStatus = "WAITING_FOR_CAPACITY"
	StatusInFlight               TaskStatus = "IN_FLIGHT"
	StatusSuccess                TaskStatus = "SUCCESS"
	StatusFailed                 TaskStatus = "FAILED"
	StatusSkipped                TaskStatus = "SKIPPED"
)

// Terminal reports whether the status ends the task machine.
func (s TaskStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusSkipped
}

// StatusRecord is one append-only entry in a task's status log.
type StatusRecord struct {
	Status TaskStatus `json:"status"`
	At     time.Time  `json:"at"`
}
