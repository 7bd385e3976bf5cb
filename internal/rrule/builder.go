package rrule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Builder assembles an RRULE string from components.
type Builder struct {
	Freq       rrule.Frequency
	Interval   int
	ByHour     []int
	ByMinute   []int
	BySecond   []int
	ByWeekday  []rrule.Weekday
	ByMonthDay []int
	ByMonth    []int
	Count      int
	Until      *time.Time
}

// Common frequencies
const (
	FreqHourly  = rrule.HOURLY
	FreqDaily   = rrule.DAILY
	FreqWeekly  = rrule.WEEKLY
	FreqMonthly = rrule.MONTHLY
	FreqYearly  = rrule.YEARLY
)

// Weekday constants
var (
	Monday    = rrule.MO
	Tuesday   = rrule.TU
	Wednesday = rrule.WE
	Thursday  = rrule.TH
	Friday    = rrule.FR
	Saturday  = rrule.SA
	Sunday    = rrule.SU
)

var weekdayCodes = [...]string{"MO", "TU", "WE", "TH", "FR", "SA", "SU"}

func (b *Builder) String() string {
	var parts []string

	freqMap := map[rrule.Frequency]string{
		rrule.HOURLY:  "HOURLY",
		rrule.DAILY:   "DAILY",
		rrule.WEEKLY:  "WEEKLY",
		rrule.MONTHLY: "MONTHLY",
		rrule.YEARLY:  "YEARLY",
	}
	parts = append(parts, "FREQ="+freqMap[b.Freq])

	if b.Interval > 1 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", b.Interval))
	}
	if len(b.ByMonth) > 0 {
		parts = append(parts, "BYMONTH="+joinInts(b.ByMonth))
	}
	if len(b.ByMonthDay) > 0 {
		parts = append(parts, "BYMONTHDAY="+joinInts(b.ByMonthDay))
	}
	if len(b.ByWeekday) > 0 {
		days := make([]string, len(b.ByWeekday))
		for i := range b.ByWeekday {
			w := &b.ByWeekday[i]
			days[i] = weekdayCodes[w.Day()]
			if n := w.N(); n != 0 {
				days[i] = strconv.Itoa(n) + days[i]
			}
		}
		parts = append(parts, "BYDAY="+strings.Join(days, ","))
	}
	if len(b.ByHour) > 0 {
		parts = append(parts, "BYHOUR="+joinInts(b.ByHour))
	}
	if len(b.ByMinute) > 0 {
		parts = append(parts, "BYMINUTE="+joinInts(b.ByMinute))
	}
	if len(b.BySecond) > 0 {
		parts = append(parts, "BYSECOND="+joinInts(b.BySecond))
	}
	if b.Count > 0 {
		parts = append(parts, fmt.Sprintf("COUNT=%d", b.Count))
	}
	if b.Until != nil {
		parts = append(parts, "UNTIL="+b.Until.UTC().Format("20060102T150405Z"))
	}

	return strings.Join(parts, ";")
}

func joinInts(values []int) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strconv.Itoa(v)
	}
	return strings.Join(out, ",")
}
