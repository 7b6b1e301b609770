package booking

import (
	"fmt"
	"time"
)

// Viable is a slot that passed both the date and time-of-day tests.
type Viable struct {
	Date        time.Time
	DisplayTime string
	DisplayDate string
}

func (v Viable) String() string {
	return "VIABLE: " + v.DisplayTime + " on " + v.DisplayDate
}

// DateMatch groups the viable slots found on one booking date.
type DateMatch struct {
	Date   time.Time
	Viable []Viable
}

// Evaluation is the result of running an AlertWindow over a query result.
type Evaluation struct {
	Matches []DateMatch

	// TotalSlots counts every slot on a decodable, non-empty date,
	// including dates past MaxDate.
	TotalSlots int

	// Summary holds "{DateDisplay}: {slots}" per non-empty date.
	Summary []string

	// Skipped collects decode failures; the offending entry is ignored.
	Skipped []error
}

// Viable flattens the matches in date order.
func (e Evaluation) Viable() []Viable {
	var out []Viable
	for _, m := range e.Matches {
		out = append(out, m.Viable...)
	}
	return out
}

// AlertWorthy reports whether at least one viable slot was found.
func (e Evaluation) AlertWorthy() bool {
	for _, m := range e.Matches {
		if len(m.Viable) > 0 {
			return true
		}
	}
	return false
}

// Evaluate applies w to the booking dates of a successful query. Order of
// dates and slots is preserved.
func Evaluate(dates []BookingDate, w AlertWindow, loc *time.Location) Evaluation {
	var ev Evaluation
	for _, bd := range dates {
		d, err := ParsePortalDate(bd.Date, loc)
		if err != nil {
			ev.Skipped = append(ev.Skipped, err)
			continue
		}
		if len(bd.Slots) == 0 {
			continue
		}
		ev.TotalSlots += len(bd.Slots)
		ev.Summary = append(ev.Summary, fmt.Sprintf("%s: %d", bd.DateDisplay, len(bd.Slots)))

		if w.AfterMaxDate(d) {
			continue
		}

		var viable []Viable
		for _, s := range bd.Slots {
			t, err := ParseDisplayTime(s.DisplayTime)
			if err != nil {
				ev.Skipped = append(ev.Skipped, err)
				continue
			}
			if w.Viable(t) {
				viable = append(viable, Viable{Date: d, DisplayTime: s.DisplayTime, DisplayDate: s.DisplayDate})
			}
		}
		if len(viable) > 0 {
			ev.Matches = append(ev.Matches, DateMatch{Date: d, Viable: viable})
		}
	}
	return ev
}
