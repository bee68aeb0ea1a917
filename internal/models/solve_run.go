package models

// SolveRunStatus tracks an asynchronous solve.
type SolveRunStatus string

const (
	SolveRunQueued    SolveRunStatus = "queued"
	SolveRunRunning   SolveRunStatus = "running"
	SolveRunSucceeded SolveRunStatus = "succeeded"
	SolveRunFailed    SolveRunStatus = "failed"
)

// Finished reports whether the run reached a terminal state.
func (s SolveRunStatus) Finished() bool {
	return s == SolveRunSucceeded || s == SolveRunFailed
}
