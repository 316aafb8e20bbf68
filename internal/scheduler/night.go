package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/unklstewy/flightmatrix/pkg/coordinates"
)

// Night policy names accepted by NewNightPolicy.
const (
	NightPolicyHours = "hours"
	NightPolicySolar = "solar"
)

// NightPolicy decides when the display is switched off.
type NightPolicy interface {
	IsNight(t time.Time) bool
}

// IsNight reports whether hour (0-23) falls in the window [start, end).
// A window with start > end wraps past midnight. start == end is never night.
func IsNight(hour, start, end int) bool {
	switch {
	case start > end:
		return hour >= start || hour < end
	case start < end:
		return hour >= start && hour < end
	default:
		return false
	}
}

// HourWindow is night between fixed local hours.
type HourWindow struct {
	Start    int
	End      int
	Location *time.Location // nil means time.Local
}

func (w HourWindow) IsNight(t time.Time) bool {
	loc := w.Location
	if loc == nil {
		loc = time.Local
	}
	return IsNight(t.In(loc).Hour(), w.Start, w.End)
}

// SolarPolicy is night while the sun is below the horizon at Location.
type SolarPolicy struct {
	Location coordinates.Geographic
}

func (p SolarPolicy) IsNight(t time.Time) bool {
	return !coordinates.IsSunAboveHorizon(p.Location, t)
}

type neverNight struct{}

func (neverNight) IsNight(time.Time) bool { return false }

// NewNightPolicy builds the policy named by policy. A disabled night mode
// never reports night.
func NewNightPolicy(enabled bool, policy string, start, end int, loc *time.Location, reference coordinates.Geographic) (NightPolicy, error) {
	if !enabled {
		return neverNight{}, nil
	}
	switch strings.ToLower(policy) {
	case "", NightPolicyHours:
		if start < 0 || start > 23 || end < 0 || end > 23 {
			return nil, fmt.Errorf("night hours must be within 0-23, got %d-%d", start, end)
		}
		return HourWindow{Start: start, End: end, Location: loc}, nil
	case NightPolicySolar:
		return SolarPolicy{Location: reference}, nil
	default:
		return nil, fmt.Errorf("unknown night policy %q", policy)
	}
}
