package effect

// OutcomeLabel is the 4-tier result of a resolved action. Critical tiers only
// occur for actions that declare them.
type OutcomeLabel int

const (
	OutcomeFailure OutcomeLabel = iota
	OutcomeSuccess
	OutcomeCriticalSuccess
	OutcomeCriticalFailure
)

// String returns a human-readable outcome label.
func (o OutcomeLabel) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeCriticalSuccess:
		return "critical success"
	case OutcomeCriticalFailure:
		return "critical failure"
	default:
		return "unknown"
	}
}

// Succeeded reports whether the label is a success tier.
func (o OutcomeLabel) Succeeded() bool {
	return o == OutcomeSuccess || o == OutcomeCriticalSuccess
}

// Critical reports whether the label is a critical tier.
func (o OutcomeLabel) Critical() bool {
	return o == OutcomeCriticalSuccess || o == OutcomeCriticalFailure
}
