package models

import (
	"encoding/json"
	"fmt"
	"math"
)

// Percent is a validated percentage in [0, 100].
type Percent struct {
	value float64
}

// NewPercent validates v. Non-finite or out-of-range values are rejected, never clamped.
func NewPercent(v float64) (Percent, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Percent{}, fmt.Errorf("percent %v is not finite", v)
	}
	if v < 0 || v > 100 {
		return Percent{}, fmt.Errorf("percent %v out of range [0,100]", v)
	}
	return Percent{value: v}, nil
}

// MustPercent is NewPercent for constants known to be valid.
func MustPercent(v float64) Percent {
	p, err := NewPercent(v)
	if err != nil {
		panic(err)
	}
	return p
}

// RemainingFromUsed converts a used percentage into the remaining percentage.
func RemainingFromUsed(used float64) (Percent, bool) {
	u, err := NewPercent(used)
	if err != nil {
		return Percent{}, false
	}
	r, err := NewPercent(100 - u.value)
	if err != nil {
		return Percent{}, false
	}
	return r, true
}

// Value returns the underlying number.
func (p Percent) Value() float64 {
	return p.value
}

// Less reports whether p < o.
func (p Percent) Less(o Percent) bool {
	return p.value < o.value
}

// AtMost reports whether p <= o.
func (p Percent) AtMost(o Percent) bool {
	return p.value <= o.value
}

func (p Percent) String() string {
	return fmt.Sprintf("%.0f%%", p.value)
}

// MarshalJSON encodes the percent as a bare number.
func (p Percent) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.value)
}

// UnmarshalJSON decodes and validates a bare number.
func (p *Percent) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := NewPercent(v)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
