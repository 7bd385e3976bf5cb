package recurrence

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnrecognized is returned by a Parser that cannot interpret the text.
var ErrUnrecognized = errors.New("recurrence: text not recognized")

// Parsed is the result of interpreting recurrence text. Exactly one of At
// (one-shot) or Rule (recurring) is meaningful, selected by Recurring.
type Parsed struct {
	Recurring bool
	At        time.Time
	Rule      string
}

// Parser interprets natural-language recurrence text relative to ref.
type Parser interface {
	Parse(ctx context.Context, text string, ref time.Time) (*Parsed, error)
}

// DateResolver turns a date phrase into a concrete time.
type DateResolver interface {
	ResolveDate(phrase string, ref time.Time) (time.Time, bool)
}

// Chain tries each parser in order and returns the first success.
type Chain []Parser

func (c Chain) Parse(ctx context.Context, text string, ref time.Time) (*Parsed, error) {
	var lastErr error
	for _, p := range c {
		if p == nil {
			continue
		}
		parsed, err := p.Parse(ctx, text, ref)
		if err == nil {
			return parsed, nil
		}
		lastErr = err
	}
	if lastErr == nil || errors.Is(lastErr, ErrUnrecognized) {
		return nil, ErrUnrecognized
	}
	return nil, fmt.Errorf("%w: %v", ErrUnrecognized, lastErr)
}
