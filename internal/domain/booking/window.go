package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AlertWindow is the acceptance test applied to every slot. MinTime and
// MaxTime are offsets from midnight. MinDate and MaxDate are midnights in
// the location the run compares dates in.
type AlertWindow struct {
	MinDate time.Time
	MaxDate time.Time
	MinTime time.Duration
	MaxTime time.Duration

	// Exclusive marks [MinTime, MaxTime] as the undesirable middle of the
	// day: only times strictly outside it are viable.
	Exclusive bool
}

// Viable reports whether a slot starting t after midnight passes the window.
// Boundaries are viable in inclusive mode and unviable in exclusive mode.
func (w AlertWindow) Viable(t time.Duration) bool {
	if w.Exclusive {
		return t < w.MinTime || t > w.MaxTime
	}
	return t >= w.MinTime && t <= w.MaxTime
}

// AfterMaxDate reports whether d falls beyond the last date worth alerting on.
func (w AlertWindow) AfterMaxDate(d time.Time) bool {
	return d.After(w.MaxDate)
}

// Describe renders the window the way the startup banner prints it.
func (w AlertWindow) Describe() string {
	if w.Exclusive {
		return fmt.Sprintf("You will only be alerted to appointments taking place before %s and after %s.",
			FormatClock(w.MinTime), FormatClock(w.MaxTime))
	}
	return fmt.Sprintf("You will only be alerted to appointments taking place between %s and %s, inclusive.",
		FormatClock(w.MinTime), FormatClock(w.MaxTime))
}

// ParseClock parses a 24h "15:04" time of day into an offset from midnight.
func ParseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q (want HH:MM): %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// FormatClock renders an offset from midnight as "h:mm".
func FormatClock(d time.Duration) string {
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%d:%02d", h, m)
}

// ParseDisplayTime parses the portal's "h:mm tt" slot time, e.g. "2:30 PM".
func ParseDisplayTime(s string) (time.Duration, error) {
	t, err := time.Parse("3:04 PM", strings.ToUpper(strings.TrimSpace(s)))
	if err != nil {
		return 0, fmt.Errorf("invalid slot time %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// ParsePortalDate decodes the vendor date wrapper "/Date(1650412800000)/":
// epoch milliseconds sit between offset 6 and two characters before the end.
func ParsePortalDate(s string, loc *time.Location) (time.Time, error) {
	if len(s) < 9 {
		return time.Time{}, fmt.Errorf("invalid portal date %q", s)
	}
	ms, err := strconv.ParseInt(s[6:len(s)-2], 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid portal date %q: %w", s, err)
	}
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(ms).In(loc), nil
}
