package models

// ThresholdLevel is an ordered alert level: Normal < Warning < Critical.
type ThresholdLevel int

const (
	LevelNormal ThresholdLevel = iota
	LevelWarning
	LevelCritical
)

func (l ThresholdLevel) String() string {
	switch l {
	case LevelNormal:
		return "normal"
	case LevelWarning:
		return "warning"
	case LevelCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ThresholdSnapshot is the last level seen per window for one account.
// FiveHour is nil when the 5-hour window was not evaluated.
type ThresholdSnapshot struct {
	FiveHour *ThresholdLevel `json:"fiveHour,omitempty"`
	Weekly   ThresholdLevel  `json:"weekly"`
}

// LevelPtr returns a pointer to l.
func LevelPtr(l ThresholdLevel) *ThresholdLevel {
	return &l
}
