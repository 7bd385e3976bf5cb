package rrule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// ErrExhausted is returned when a finite rule has no occurrence after the
// reference instant.
var ErrExhausted = errors.New("rrule: no further occurrences")

// ParseRRule parses an RFC 5545 RRULE string anchored at dtstart.
// dtstart is moved to local time and truncated to whole seconds so the same
// inputs always yield the same occurrences.
func ParseRRule(ruleStr string, dtstart time.Time) (*rrule.RRule, error) {
	ruleStr = strings.TrimPrefix(strings.TrimSpace(ruleStr), "RRULE:")

	opt, err := rrule.StrToROption(ruleStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RRULE: %w", err)
	}
	opt.Dtstart = Anchor(dtstart)
	return rrule.NewRRule(*opt)
}

// Anchor normalizes a dtstart the way ParseRRule does.
func Anchor(t time.Time) time.Time {
	return t.In(time.Local).Truncate(time.Second)
}

// Normalize validates ruleStr and returns its canonical form: no RRULE:
// prefix, upper case, no DTSTART. The result is accepted by ParseRRule.
func Normalize(ruleStr string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(ruleStr))
	s = strings.TrimPrefix(s, "RRULE:")
	s = strings.TrimSuffix(s, ";")
	if s == "" {
		return "", errors.New("rrule: empty rule")
	}
	if strings.ContainsAny(s, "\r\n") || strings.Contains(s, "DTSTART") {
		return "", fmt.Errorf("rrule: rule must be a single RRULE line without DTSTART: %q", ruleStr)
	}
	if !IsRecurring(s) {
		return "", fmt.Errorf("rrule: missing FREQ in %q", ruleStr)
	}
	if _, err := rrule.StrToROption(s); err != nil {
		return "", fmt.Errorf("failed to parse RRULE: %w", err)
	}
	return s, nil
}

// NextAfter returns the earliest occurrence of the rule strictly after ref.
// It returns ErrExhausted when the rule has ended.
func NextAfter(ruleStr string, dtstart, ref time.Time) (time.Time, error) {
	rule, err := ParseRRule(ruleStr, dtstart)
	if err != nil {
		return time.Time{}, err
	}

	next := rule.After(ref, false)
	if next.IsZero() {
		return time.Time{}, ErrExhausted
	}
	return next, nil
}

// NextOccurrences returns up to count occurrences strictly after ref.
func NextOccurrences(ruleStr string, dtstart, ref time.Time, count int) ([]time.Time, error) {
	rule, err := ParseRRule(ruleStr, dtstart)
	if err != nil {
		return nil, err
	}

	results := make([]time.Time, 0, count)
	cursor := ref
	for len(results) < count {
		next := rule.After(cursor, false)
		if next.IsZero() {
			break
		}
		results = append(results, next)
		cursor = next
	}
	return results, nil
}

// IsRecurring checks if the RRULE string represents a recurring schedule
func IsRecurring(ruleStr string) bool {
	return ruleStr != "" && strings.Contains(strings.ToUpper(ruleStr), "FREQ=")
}

// Describe returns a short English description of the rule, falling back to
// the raw rule for parts it does not recognize.
func Describe(ruleStr string) string {
	ruleStr = strings.TrimPrefix(strings.TrimSpace(ruleStr), "RRULE:")
	if !IsRecurring(ruleStr) {
		return "once"
	}

	info := make(map[string]string)
	for _, p := range strings.Split(ruleStr, ";") {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) == 2 {
			info[strings.ToUpper(kv[0])] = kv[1]
		}
	}

	units := map[string]string{
		"SECONDLY": "second",
		"MINUTELY": "minute",
		"HOURLY":   "hour",
		"DAILY":    "day",
		"WEEKLY":   "week",
		"MONTHLY":  "month",
		"YEARLY":   "year",
	}
	unit, ok := units[info["FREQ"]]
	if !ok {
		return ruleStr
	}

	var sb strings.Builder
	interval, _ := strconv.Atoi(info["INTERVAL"])
	if interval > 1 {
		fmt.Fprintf(&sb, "every %d %ss", interval, unit)
	} else {
		sb.WriteString("every " + unit)
	}

	if byDay := info["BYDAY"]; byDay != "" {
		var days []string
		for _, d := range strings.Split(byDay, ",") {
			days = append(days, describeWeekday(d))
		}
		sb.WriteString(" on " + strings.Join(days, ", "))
	}
	if byMonth := info["BYMONTH"]; byMonth != "" {
		var months []string
		for _, m := range strings.Split(byMonth, ",") {
			if n, err := strconv.Atoi(m); err == nil && n >= 1 && n <= 12 {
				months = append(months, time.Month(n).String())
			}
		}
		if len(months) > 0 {
			sb.WriteString(" in " + strings.Join(months, ", "))
		}
	}
	if byMonthDay := info["BYMONTHDAY"]; byMonthDay != "" {
		var days []string
		for _, d := range strings.Split(byMonthDay, ",") {
			if d == "-1" {
				days = append(days, "last day")
				continue
			}
			days = append(days, "day "+d)
		}
		sb.WriteString(" on " + strings.Join(days, ", "))
	}
	if byHour := info["BYHOUR"]; byHour != "" {
		minute := info["BYMINUTE"]
		if minute == "" {
			minute = "0"
		}
		if h, err := strconv.Atoi(strings.Split(byHour, ",")[0]); err == nil {
			m, _ := strconv.Atoi(strings.Split(minute, ",")[0])
			fmt.Fprintf(&sb, " at %02d:%02d", h, m)
		}
	}
	if count := info["COUNT"]; count != "" {
		fmt.Fprintf(&sb, ", %s times", count)
	}
	if until := info["UNTIL"]; until != "" {
		if t, err := time.Parse("20060102T150405Z", until); err == nil {
			sb.WriteString(", until " + t.Local().Format("2006-01-02"))
		}
	}
	return sb.String()
}

func describeWeekday(code string) string {
	names := map[string]string{
		"MO": "Mon", "TU": "Tue", "WE": "Wed", "TH": "Thu",
		"FR": "Fri", "SA": "Sat", "SU": "Sun",
	}
	if len(code) < 2 {
		return code
	}
	day, ok := names[code[len(code)-2:]]
	if !ok {
		return code
	}
	prefix := code[:len(code)-2]
	if prefix == "" {
		return day
	}
	n, err := strconv.Atoi(prefix)
	if err != nil {
		return code
	}
	if n == -1 {
		return "last " + day
	}
	return ordinal(n) + " " + day
}

func ordinal(n int) string {
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return strconv.Itoa(n) + suffix
}
