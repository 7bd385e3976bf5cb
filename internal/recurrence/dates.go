package recurrence

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var absoluteDateRe = regexp.MustCompile(`\d{4}|\d[-/.]\d`)

func newWhen() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// ResolveDate resolves a single date phrase. Absolute dates ("2023-01-02",
// "2024/03/05 10:00") go through dateparse; relative and casual phrases
// ("in 3 days", "next friday", "tomorrow 5pm") through when.
func (p *NaturalParser) ResolveDate(phrase string, ref time.Time) (time.Time, bool) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return time.Time{}, false
	}

	if absoluteDateRe.MatchString(phrase) {
		if t, err := dateparse.ParseIn(phrase, time.Local); err == nil {
			return t.In(time.Local), true
		}
	}

	r, err := p.when.Parse(phrase, ref)
	if err != nil || r == nil {
		return time.Time{}, false
	}
	return r.Time.In(time.Local), true
}
