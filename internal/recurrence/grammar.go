package recurrence

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	rrulego "github.com/teambition/rrule-go"

	"github.com/hray3182/RemindLine/internal/rrule"
)

var (
	countSuffixRe = regexp.MustCompile(`\s+(?:for\s+)?(\d+)\s+times?$`)
	atSuffixRe    = regexp.MustCompile(`\s+at\s+(noon|midnight|\d{1,2}(?::\d{2})?\s*(?:am|pm)?)$`)
	clockRe       = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
	unitRe        = regexp.MustCompile(`^(?:(other)\s+|(\d+)\s+)?(hour|day|week|month|year)s?$`)
	unitOnRe      = regexp.MustCompile(`^(?:(other)\s+|(\d+)\s+)?(week|month|year)s?\s+on\s+(?:the\s+)?(.+)$`)
	ordinalRe     = regexp.MustCompile(`^(\d{1,2})(?:st|nd|rd|th)?$`)
	ofMonthRe     = regexp.MustCompile(`\s+of\s+(?:the|every|each)\s+month$`)
)

var keywordFreq = map[string]rrulego.Frequency{
	"hourly":   rrule.FreqHourly,
	"daily":    rrule.FreqDaily,
	"weekly":   rrule.FreqWeekly,
	"monthly":  rrule.FreqMonthly,
	"yearly":   rrule.FreqYearly,
	"annually": rrule.FreqYearly,
}

var unitFreq = map[string]rrulego.Frequency{
	"hour":  rrule.FreqHourly,
	"day":   rrule.FreqDaily,
	"week":  rrule.FreqWeekly,
	"month": rrule.FreqMonthly,
	"year":  rrule.FreqYearly,
}

var weekdayNames = map[string]rrulego.Weekday{
	"mon": rrule.Monday, "monday": rrule.Monday,
	"tue": rrule.Tuesday, "tues": rrule.Tuesday, "tuesday": rrule.Tuesday,
	"wed": rrule.Wednesday, "weds": rrule.Wednesday, "wednesday": rrule.Wednesday,
	"thu": rrule.Thursday, "thur": rrule.Thursday, "thurs": rrule.Thursday, "thursday": rrule.Thursday,
	"fri": rrule.Friday, "friday": rrule.Friday,
	"sat": rrule.Saturday, "saturday": rrule.Saturday,
	"sun": rrule.Sunday, "sunday": rrule.Sunday,
}

var monthNames = map[string]int{
	"jan": 1, "january": 1, "feb": 2, "february": 2, "mar": 3, "march": 3,
	"apr": 4, "april": 4, "may": 5, "jun": 6, "june": 6, "jul": 7, "july": 7,
	"aug": 8, "august": 8, "sep": 9, "sept": 9, "september": 9,
	"oct": 10, "october": 10, "nov": 11, "november": 11, "dec": 12, "december": 12,
}

var nthWords = map[string]int{
	"first": 1, "1st": 1, "second": 2, "2nd": 2, "third": 3, "3rd": 3,
	"fourth": 4, "4th": 4, "fifth": 5, "5th": 5, "last": -1,
}

func looksRecurring(norm string) bool {
	if _, ok := keywordFreq[norm]; ok {
		return true
	}
	for kw := range keywordFreq {
		if strings.HasPrefix(norm, kw+" ") {
			return true
		}
	}
	return norm == "every" || strings.HasPrefix(norm, "every ")
}

// parseRecurring turns normalized (lower case, single spaced) recurrence
// text into an RRULE string.
func (p *NaturalParser) parseRecurring(s string, ref time.Time) (string, error) {
	b := &rrule.Builder{Interval: 1}

	for {
		if m := countSuffixRe.FindStringSubmatch(s); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil || n < 1 {
				return "", fmt.Errorf("invalid count %q", m[1])
			}
			b.Count = n
			s = strings.TrimSpace(s[:len(s)-len(m[0])])
			continue
		}
		if m := atSuffixRe.FindStringSubmatch(s); m != nil {
			hour, minute, err := parseClock(m[1])
			if err != nil {
				return "", err
			}
			b.ByHour = []int{hour}
			b.ByMinute = []int{minute}
			b.BySecond = []int{0}
			s = strings.TrimSpace(s[:len(s)-len(m[0])])
			continue
		}
		if idx := strings.LastIndex(s, " until "); idx >= 0 {
			until, ok := p.ResolveDate(s[idx+len(" until "):], ref)
			if !ok {
				return "", fmt.Errorf("invalid until date %q", s[idx+len(" until "):])
			}
			if until.Hour() == 0 && until.Minute() == 0 && until.Second() == 0 {
				until = until.Add(24*time.Hour - time.Second)
			}
			b.Until = &until
			s = strings.TrimSpace(s[:idx])
			continue
		}
		break
	}

	if freq, ok := keywordFreq[s]; ok {
		b.Freq = freq
		return b.String(), nil
	}

	body, ok := strings.CutPrefix(s, "every ")
	if !ok {
		return "", fmt.Errorf("expected \"every\" in %q", s)
	}
	body = ofMonthRe.ReplaceAllString(body, "")

	if err := parseBody(b, body); err != nil {
		return "", err
	}
	return b.String(), nil
}

func parseBody(b *rrule.Builder, body string) error {
	if m := unitRe.FindStringSubmatch(body); m != nil {
		b.Freq = unitFreq[m[3]]
		return setInterval(b, m[1], m[2])
	}

	if m := unitOnRe.FindStringSubmatch(body); m != nil {
		b.Freq = unitFreq[m[3]]
		if err := setInterval(b, m[1], m[2]); err != nil {
			return err
		}
		switch m[3] {
		case "week":
			days, ok := parseWeekdayList(m[4])
			if !ok {
				return fmt.Errorf("invalid weekdays %q", m[4])
			}
			b.ByWeekday = days
			return nil
		case "month":
			if days, ok := parseMonthDayList(m[4]); ok {
				b.ByMonthDay = days
				return nil
			}
			if day, ok := parseNthWeekday(m[4]); ok {
				b.ByWeekday = []rrulego.Weekday{day}
				return nil
			}
			return fmt.Errorf("invalid day of month %q", m[4])
		default:
			month, day, ok := parseMonthDate(m[4])
			if !ok {
				return fmt.Errorf("invalid date %q", m[4])
			}
			b.ByMonth = []int{month}
			b.ByMonthDay = []int{day}
			return nil
		}
	}

	switch body {
	case "weekday", "weekdays":
		b.Freq = rrule.FreqWeekly
		b.ByWeekday = []rrulego.Weekday{rrule.Monday, rrule.Tuesday, rrule.Wednesday, rrule.Thursday, rrule.Friday}
		return nil
	case "weekend", "weekends":
		b.Freq = rrule.FreqWeekly
		b.ByWeekday = []rrulego.Weekday{rrule.Saturday, rrule.Sunday}
		return nil
	}

	if days, ok := parseWeekdayList(body); ok {
		b.Freq = rrule.FreqWeekly
		b.ByWeekday = days
		return nil
	}
	if days, ok := parseMonthDayList(body); ok {
		b.Freq = rrule.FreqMonthly
		b.ByMonthDay = days
		return nil
	}
	if day, ok := parseNthWeekday(body); ok {
		b.Freq = rrule.FreqMonthly
		b.ByWeekday = []rrulego.Weekday{day}
		return nil
	}
	if month, day, ok := parseMonthDate(body); ok {
		b.Freq = rrule.FreqYearly
		b.ByMonth = []int{month}
		b.ByMonthDay = []int{day}
		return nil
	}

	return fmt.Errorf("unrecognized recurrence %q", body)
}

func setInterval(b *rrule.Builder, other, number string) error {
	switch {
	case other != "":
		b.Interval = 2
	case number != "":
		n, err := strconv.Atoi(number)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid interval %q", number)
		}
		b.Interval = n
	}
	return nil
}

// listTokens splits "mon, wed and fri" into ["mon" "wed" "fri"].
func listTokens(s string) []string {
	s = strings.ReplaceAll(s, ",", " ")
	var out []string
	for _, tok := range strings.Fields(s) {
		if tok == "and" || tok == "&" {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func lookupWeekday(tok string) (rrulego.Weekday, bool) {
	if day, ok := weekdayNames[tok]; ok {
		return day, true
	}
	if strings.HasSuffix(tok, "s") {
		day, ok := weekdayNames[strings.TrimSuffix(tok, "s")]
		return day, ok
	}
	return rrulego.Weekday{}, false
}

func parseWeekdayList(s string) ([]rrulego.Weekday, bool) {
	tokens := listTokens(s)
	if len(tokens) == 0 {
		return nil, false
	}
	seen := make(map[int]bool)
	var days []rrulego.Weekday
	for _, tok := range tokens {
		day, ok := lookupWeekday(tok)
		if !ok {
			return nil, false
		}
		if key := day.Day(); !seen[key] {
			seen[key] = true
			days = append(days, day)
		}
	}
	return days, true
}

func parseMonthDayList(s string) ([]int, bool) {
	if s == "last day" || s == "last" {
		return []int{-1}, true
	}
	tokens := listTokens(s)
	if len(tokens) == 0 {
		return nil, false
	}
	var days []int
	for _, tok := range tokens {
		m := ordinalRe.FindStringSubmatch(tok)
		if m == nil {
			return nil, false
		}
		d, _ := strconv.Atoi(m[1])
		if d < 1 || d > 31 {
			return nil, false
		}
		days = append(days, d)
	}
	return days, true
}

func parseNthWeekday(s string) (rrulego.Weekday, bool) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return rrulego.Weekday{}, false
	}
	n, ok := nthWords[fields[0]]
	if !ok {
		return rrulego.Weekday{}, false
	}
	day, ok := lookupWeekday(fields[1])
	if !ok {
		return rrulego.Weekday{}, false
	}
	return day.Nth(n), true
}

// parseMonthDate accepts "march 5", "march 5th", "5 march" and "5th of march".
func parseMonthDate(s string) (int, int, bool) {
	fields := strings.Fields(strings.ReplaceAll(s, " of ", " "))
	if len(fields) != 2 {
		return 0, 0, false
	}
	monthTok, dayTok := fields[0], fields[1]
	if _, ok := monthNames[monthTok]; !ok {
		monthTok, dayTok = fields[1], fields[0]
	}
	month, ok := monthNames[monthTok]
	if !ok {
		return 0, 0, false
	}
	m := ordinalRe.FindStringSubmatch(dayTok)
	if m == nil {
		return 0, 0, false
	}
	day, _ := strconv.Atoi(m[1])
	if day < 1 || day > 31 {
		return 0, 0, false
	}
	return month, day, true
}

func parseClock(s string) (int, int, error) {
	switch s {
	case "noon":
		return 12, 0, nil
	case "midnight":
		return 0, 0, nil
	}

	m := clockRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, fmt.Errorf("invalid time %q", s)
	}
	hour, _ := strconv.Atoi(m[1])
	minute := 0
	if m[2] != "" {
		minute, _ = strconv.Atoi(m[2])
	}
	if minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}

	switch m[3] {
	case "am", "pm":
		if hour < 1 || hour > 12 {
			return 0, 0, fmt.Errorf("invalid hour in %q", s)
		}
		hour %= 12
		if m[3] == "pm" {
			hour += 12
		}
	default:
		if hour > 23 {
			return 0, 0, errors.New("hour must be between 0 and 23")
		}
	}
	return hour, minute, nil
}
