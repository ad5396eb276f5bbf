package browser

// StepStatus tags the result of one scripted browser step.
type StepStatus int

const (
	StepOK StepStatus = iota
	StepTimedOut
	StepSelectorMissing
	StepFailed
)

func (s StepStatus) String() string {
	switch s {
	case StepOK:
		return "ok"
	case StepTimedOut:
		return "timed-out"
	case StepSelectorMissing:
		return "selector-missing"
	}
	return "failed"
}

// StepOutcome is the tagged result of a browser step. Err carries detail
// for logging; callers branch on Status.
type StepOutcome struct {
	Status StepStatus
	Err    error
}

func (o StepOutcome) OK() bool {
	return o.Status == StepOK
}

func Success() StepOutcome {
	return StepOutcome{Status: StepOK}
}

func TimedOut(err error) StepOutcome {
	return StepOutcome{Status: StepTimedOut, Err: err}
}

func SelectorMissing(err error) StepOutcome {
	return StepOutcome{Status: StepSelectorMissing, Err: err}
}

func Failed(err error) StepOutcome {
	return StepOutcome{Status: StepFailed, Err: err}
}
