package entities

import "time"

// Window is a half-open time-of-day range [From, To) used to select due
// meetings. Both bounds are zero-padded "HH:MM" strings, so lexicographic
// comparison matches chronological comparison within one day. A window whose
// From is later than its To wraps past midnight.
type Window struct {
	From string
	To   string
}

// DispatchWindow builds the due window around now: meetings up to late ago
// are still eligible, meetings up to early ahead are picked up on this tick.
func DispatchWindow(now time.Time, late, early time.Duration) Window {
	return Window{
		From: TimeOfDay(now.Add(-late)),
		To:   TimeOfDay(now.Add(early)),
	}
}

// TimeOfDay formats t as a zero-padded "HH:MM" string, seconds truncated.
func TimeOfDay(t time.Time) string {
	return t.Format("15:04")
}

// Wraps reports whether the window crosses midnight.
func (w Window) Wraps() bool {
	return w.From > w.To
}

// Contains reports whether the given "HH:MM" time of day falls inside the
// window.
func (w Window) Contains(joinTime string) bool {
	if w.Wraps() {
		return joinTime >= w.From || joinTime < w.To
	}
	return joinTime >= w.From && joinTime < w.To
}
