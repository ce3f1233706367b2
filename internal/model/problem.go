package model

// ProblemAction records what happened to a dangling reference.
type ProblemAction string

const (
	ActionMissing ProblemAction = "missing"
	ActionKept    ProblemAction = "kept"
	ActionRemoved ProblemAction = "removed"
	ActionRebound ProblemAction = "rebound"
	ActionFailed  ProblemAction = "failed"
)

// Problem is one property whose value names a file that does not exist.
type Problem struct {
	File     string        `json:"file"`
	Property string        `json:"property"`
	Value    string        `json:"value"`
	Action   ProblemAction `json:"action"`
	NewValue string        `json:"new_value,omitempty"`
}

// Changed reports whether the repair touched the file.
func (p Problem) Changed() bool {
	return p.Action == ActionRemoved || p.Action == ActionRebound
}

type PackageProblems struct {
	Location string    `json:"location"`
	Title    string    `json:"title"`
	Problems []Problem `json:"problems"`
}

type ProblemReport struct {
	Count    int               `json:"count"`
	Packages []PackageProblems `json:"packages"`
}
