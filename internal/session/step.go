package session

import "fmt"

// Step is the position of a session in the challenge flow.
type Step int

const (
	StepSelectingDifficulty Step = iota
	StepSelectingCategory
	StepInChallenge
	StepShowingResult
)

func (s Step) String() string {
	switch s {
	case StepSelectingDifficulty:
		return "SelectingDifficulty"
	case StepSelectingCategory:
		return "SelectingCategory"
	case StepInChallenge:
		return "InChallenge"
	case StepShowingResult:
		return "ShowingResult"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}
