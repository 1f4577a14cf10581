package session

import "github.com/samber/lo"

// Outcome of a test case, known at teardown.
type Outcome int

const (
	Passed Outcome = iota
	Failed
)

// OutcomeOf maps a failed flag as reported by the test runner to an Outcome.
func OutcomeOf(failed bool) Outcome {
	return lo.Ternary(failed, Failed, Passed)
}

func (o Outcome) String() string {
	switch o {
	case Passed:
		return "passed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
