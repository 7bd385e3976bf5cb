package recurrence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
)

// NaturalParser is the built-in parser. Text that starts with "every" (or is
// one of daily/weekly/...) is read as a recurring rule; anything else as a
// single date phrase.
type NaturalParser struct {
	when *when.Parser
}

func NewNaturalParser() *NaturalParser {
	return &NaturalParser{when: newWhen()}
}

func (p *NaturalParser) Parse(_ context.Context, text string, ref time.Time) (*Parsed, error) {
	norm := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	if norm == "" {
		return nil, ErrUnrecognized
	}

	if looksRecurring(norm) {
		rule, err := p.parseRecurring(norm, ref)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnrecognized, err)
		}
		return &Parsed{Recurring: true, Rule: rule}, nil
	}

	at, ok := p.ResolveDate(text, ref)
	if !ok {
		return nil, ErrUnrecognized
	}
	return &Parsed{At: at}, nil
}
