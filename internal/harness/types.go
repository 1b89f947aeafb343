package harness

import (
	"github.com/roach88/hatgram/internal/ir"
	"github.com/roach88/hatgram/internal/terms"
)

// Trace event kinds.
const (
	EventUtterance = "utterance"
	EventError     = "error"
	EventSettings  = "settings"
	EventOverride  = "override"
)

// TraceEvent records the outcome of one step.
type TraceEvent struct {
	Kind   string `json:"kind"`
	Step   int    `json:"step"` // 1-based
	Seq    int64  `json:"seq,omitempty"`
	Phrase string `json:"phrase,omitempty"`
	Action string `json:"action,omitempty"`

	// Output is the wire tree of a resolved utterance.
	Output ir.IRObject `json:"output,omitempty"`

	// Error is the error code of a failed utterance.
	Error string `json:"error,omitempty"`

	// Domain, Applied and Rejected describe an override reload.
	Domain   string `json:"domain,omitempty"`
	Applied  int    `json:"applied,omitempty"`
	Rejected int    `json:"rejected,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace has one event per step.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	Errors []string `json:"errors,omitempty"`

	// Rejected collects every rejected override row over the run.
	Rejected []terms.RowError `json:"-"`

	// History is the utterance log at the end of the run.
	History []ir.Utterance `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
