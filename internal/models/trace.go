package models

// TraceStep records one stage of a decision with its intermediate values.
type TraceStep struct {
	Stage   string            `json:"stage"`
	Details map[string]string `json:"details,omitempty"`
}

// DecisionTrace captures the ordered stages the engine walked through for a
// single request (merge, each dimension, frequency). It is only populated
// when debug tracing is enabled and is safe to ignore in production paths.
type DecisionTrace struct {
	Steps []TraceStep `json:"steps"`
}

// AddStep appends a trace entry for the given stage. Nil traces are a no-op
// so callers can pass the trace through unconditionally.
func (t *DecisionTrace) AddStep(stage string, details map[string]string) {
	if t == nil {
		return
	}
	t.Steps = append(t.Steps, TraceStep{Stage: stage, Details: details})
}
