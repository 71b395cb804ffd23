// Package schedule implements the availability rule language that gates when a
// waypoint's track may unlock.
//
// A rule string is a semicolon-separated list of entries, each pairing a list
// of time ranges with a parenthesised list of days, optionally followed by an
// uppercase timezone abbreviation:
//
//	9am-5:30pm (MO-FR); 11-3 (SA) EST
//
// Times are minutes since midnight. A range whose end falls before its start
// spans midnight; the end is carried into the following day, so End may exceed
// 1439.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// minutesPerDay is one calendar day expressed in minutes.
const minutesPerDay = 24 * 60

// Day is a day of the week in the rule language's canonical order.
type Day int

// Canonical week order used by day ranges.
const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayTags = [...]string{"mo", "tu", "we", "th", "fr", "sa", "su"}

// String returns the two-letter lowercase tag for the day.
func (d Day) String() string {
	if d < Monday || d > Sunday {
		return "??"
	}
	return dayTags[d]
}

// DaySet is a set of days of the week.
type DaySet uint8

// With returns the set with d added.
func (s DaySet) With(d Day) DaySet {
	return s | 1<<uint(d)
}

// Has reports whether d is in the set.
func (s DaySet) Has(d Day) bool {
	return s&(1<<uint(d)) != 0
}

// String returns the contained day tags in canonical order, comma-separated.
func (s DaySet) String() string {
	var tags []string
	for d := Monday; d <= Sunday; d++ {
		if s.Has(d) {
			tags = append(tags, d.String())
		}
	}
	return strings.Join(tags, ",")
}

// TimeRange is one recurring window. Start is in [0, 1440); End is in
// [0, 2880) and exceeds 1439 only for ranges that span midnight.
type TimeRange struct {
	Start int
	End   int
	Days  DaySet
}

// Rule is the parsed form of an availability string. A rule with no ranges is
// valid and never open; the always-open degradation for unparseable text is
// the caller's concern, not the parser's.
type Rule struct {
	Ranges []TimeRange

	// TimeZone is the trailing zone token from the rule text, or empty when
	// the evaluating system's local zone applies. The token is lexical only;
	// nothing guarantees it names a real zone.
	TimeZone string
}

// FormatError reports a token that does not fit the rule grammar.
type FormatError struct {
	Token  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("schedule: %s: %q", e.Reason, e.Token)
}

// Parse interprets an availability rule string. It returns a *FormatError when
// a day token, time range, or time token is malformed. Text that degenerates
// to zero entries parses successfully into a never-open rule.
func Parse(text string) (*Rule, error) {
	body, tz := splitTimeZone(text)

	rule := &Rule{TimeZone: tz}
	for _, entry := range strings.Split(body, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		lparen := strings.Index(entry, "(")
		rparen := strings.Index(entry, ")")
		if lparen < 0 || rparen < lparen {
			return nil, &FormatError{Token: entry, Reason: "entry has no day list"}
		}

		days, err := ParseDays(entry[lparen+1 : rparen])
		if err != nil {
			return nil, err
		}

		ranges, err := parseTimeList(entry[:lparen], days)
		if err != nil {
			return nil, err
		}
		rule.Ranges = append(rule.Ranges, ranges...)
	}

	return rule, nil
}

// splitTimeZone strips a trailing whitespace-delimited token of 2-5 uppercase
// letters and returns the remaining text plus the token. The match is purely
// lexical.
func splitTimeZone(text string) (body, tz string) {
	trimmed := strings.TrimRight(text, " \t")
	cut := strings.LastIndexAny(trimmed, " \t")
	if cut < 0 {
		return text, ""
	}

	tail := trimmed[cut+1:]
	if len(tail) < 2 || len(tail) > 5 {
		return text, ""
	}
	for _, r := range tail {
		if r < 'A' || r > 'Z' {
			return text, ""
		}
	}
	return trimmed[:cut], tail
}

// ParseDays expands a comma-separated day list. Single days and inclusive
// ranges through the canonical week order are accepted; a reversed range such
// as "FR-MO" expands to the empty set rather than wrapping. Keep that quirk:
// callers' stored rules depend on it.
func ParseDays(list string) (DaySet, error) {
	var set DaySet
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)

		from, to, isRange := strings.Cut(item, "-")
		first, ok := dayByTag(from)
		if !ok {
			return 0, &FormatError{Token: item, Reason: "invalid day"}
		}
		if !isRange {
			set = set.With(first)
			continue
		}

		last, ok := dayByTag(to)
		if !ok {
			return 0, &FormatError{Token: item, Reason: "invalid day range"}
		}
		for d := first; d <= last; d++ {
			set = set.With(d)
		}
	}
	return set, nil
}

func dayByTag(tag string) (Day, bool) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for i, t := range dayTags {
		if t == tag {
			return Day(i), true
		}
	}
	return 0, false
}

// parseTimeList parses a comma-separated list of "start-end" ranges, all
// sharing the given day set.
func parseTimeList(list string, days DaySet) ([]TimeRange, error) {
	var ranges []TimeRange
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		parts := strings.Split(item, "-")
		if len(parts) != 2 {
			return nil, &FormatError{Token: item, Reason: "time range must be two times separated by '-'"}
		}

		start, err := ParseTime(parts[0])
		if err != nil {
			return nil, err
		}
		end, err := ParseTime(parts[1])
		if err != nil {
			return nil, err
		}

		// An end earlier in the day than the start means the range runs
		// overnight into the following day.
		if end < start {
			end += minutesPerDay
		}

		ranges = append(ranges, TimeRange{Start: start, End: end, Days: days})
	}
	return ranges, nil
}

// ParseTime converts one time token to minutes since midnight. Accepted forms
// are h, h:mm, h[ap]m and h:mm[ap]m, with the meridiem case-insensitive.
// Without a meridiem the hour reads as 24-hour time.
func ParseTime(token string) (int, error) {
	tok := strings.ToLower(strings.TrimSpace(token))

	meridiem := ""
	if cut, ok := strings.CutSuffix(tok, "am"); ok {
		tok, meridiem = cut, "am"
	} else if cut, ok := strings.CutSuffix(tok, "pm"); ok {
		tok, meridiem = cut, "pm"
	}

	hourPart, minutePart, hasMinutes := strings.Cut(tok, ":")

	hour, err := parseDigits(hourPart, 2)
	if err != nil || hour > 23 {
		return 0, &FormatError{Token: token, Reason: "invalid time"}
	}

	minute := 0
	if hasMinutes {
		minute, err = parseDigits(minutePart, 2)
		if err != nil || len(minutePart) != 2 || minute > 59 {
			return 0, &FormatError{Token: token, Reason: "invalid time"}
		}
	}

	switch meridiem {
	case "am":
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour >= 1 && hour <= 11 {
			hour += 12
		}
	}

	return hour*60 + minute, nil
}

// parseDigits parses an all-digit string of at most maxLen characters.
func parseDigits(s string, maxLen int) (int, error) {
	if s == "" || len(s) > maxLen {
		return 0, strconv.ErrSyntax
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}
