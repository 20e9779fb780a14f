package model

import (
	"encoding/json"
	"fmt"
)

// Outcome discriminates step results.
type Outcome int

const (
	Success Outcome = iota
	Failure
)

func (o Outcome) String() string {
	if o == Success {
		return "success"
	}
	return "failure"
}

// FailureKind classifies why a step did not produce an answer.
type FailureKind string

const (
	UnknownOperation FailureKind = "unknown_operation"
	InvalidArguments FailureKind = "invalid_arguments"
	Unresolved       FailureKind = "unresolved"
	ExecutionFailed  FailureKind = "execution"
	NoIntent         FailureKind = "no_intent"
)

// StepFailure carries the structured reason for a failed step.
type StepFailure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

func (f *StepFailure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Fail builds a StepFailure.
func Fail(kind FailureKind, format string, args ...any) *StepFailure {
	return &StepFailure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Series is one named line of chart values.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

// Chart is the renderer-agnostic payload some operations attach.
type Chart struct {
	Title  string   `json:"title"`
	Kind   string   `json:"kind"`
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

// StepResult is the outcome of executing one operation.
type StepResult struct {
	Outcome     Outcome      `json:"-"`
	Text        string       `json:"text,omitempty"`
	Failure     *StepFailure `json:"failure,omitempty"`
	Chart       *Chart       `json:"chart,omitempty"`
	Operation   string       `json:"operation"`
	Arguments   Arguments    `json:"arguments,omitempty"`
	Description string       `json:"description,omitempty"`
}

// Success reports whether the step produced an answer.
func (r StepResult) Success() bool { return r.Outcome == Success }

// Render returns the user-visible text for the result.
func (r StepResult) Render() string {
	if r.Outcome == Success {
		return r.Text
	}
	if r.Failure == nil {
		return "Error: step failed"
	}
	return "Error: " + r.Failure.Message
}

// MarshalJSON adds the success flag to the encoded result.
func (r StepResult) MarshalJSON() ([]byte, error) {
	type alias StepResult
	return json.Marshal(struct {
		Success bool `json:"success"`
		alias
	}{r.Success(), alias(r)})
}
