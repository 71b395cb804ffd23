package schedule

import "time"

// Status is the result of evaluating a rule at an instant.
type Status struct {
	// Open reports whether the instant falls inside an allowed window.
	Open bool

	// NextOpenInMinutes is the wait until the next window start, when one
	// remains later the same day. Nil when the instant is open or when no
	// further window starts today; the search never crosses into tomorrow.
	NextOpenInMinutes *int

	// TimeZone names the zone the instant was evaluated in.
	TimeZone string
}

// AlwaysOpen is the degraded status substituted for rules that could not be
// parsed. Availability is an unlock nicety, so a malformed rule must never
// keep a track locked.
func AlwaysOpen() Status {
	return Status{Open: true, TimeZone: time.Local.String()}
}

// Evaluate decides whether the instant falls inside one of the rule's windows,
// and if not, how long until one starts later today. It is a pure function of
// its arguments.
func Evaluate(at time.Time, rule *Rule) Status {
	loc := resolveLocation(rule.TimeZone)
	local := at.In(loc)

	minute := local.Hour()*60 + local.Minute()
	today := fromWeekday(local.Weekday())
	yesterday := today - 1
	if yesterday < Monday {
		yesterday = Sunday
	}

	status := Status{TimeZone: loc.String()}

	for _, r := range rule.Ranges {
		if r.Days.Has(today) && minute >= r.Start && minute < r.End {
			status.Open = true
			return status
		}
	}

	// A range that began yesterday and crosses midnight is still running
	// while the clock sits below its spill-over into today.
	for _, r := range rule.Ranges {
		if r.End > minutesPerDay && r.Days.Has(yesterday) && minute < r.End-minutesPerDay {
			status.Open = true
			return status
		}
	}

	next := -1
	for _, r := range rule.Ranges {
		if !r.Days.Has(today) || r.Start <= minute {
			continue
		}
		if next < 0 || r.Start < next {
			next = r.Start
		}
	}
	if next >= 0 {
		wait := next - minute
		status.NextOpenInMinutes = &wait
	}

	return status
}

// resolveLocation maps the rule's zone token to a *time.Location. The token is
// unvalidated text, so anything the zone database does not know falls back to
// the evaluating system's local zone.
func resolveLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

// fromWeekday converts Go's Sunday-first weekday to the rule language's
// Monday-first Day.
func fromWeekday(wd time.Weekday) Day {
	if wd == time.Sunday {
		return Sunday
	}
	return Day(int(wd) - 1)
}
