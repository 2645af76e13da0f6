package harness

// TraceEvent records the outcome of one step.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Op      string `json:"op"`
	Kind    string `json:"kind,omitempty"`
	Ref     string `json:"ref,omitempty"`
	Status  string `json:"status"`
	ID      int64  `json:"id,omitempty"`
	Version int32  `json:"version,omitempty"`
	// Count is the removed or pruned count of remove_range and prune steps.
	Count *int `json:"count,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step and assertion matched.
	Pass bool `json:"pass"`

	// Trace holds one event per executed step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists every mismatch. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a mismatch and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step outcome.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
