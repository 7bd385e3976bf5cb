package recurrence

import (
	"context"
	"regexp"
	"strings"
	"time"

	apperrors "github.com/hray3182/RemindLine/internal/errors"
	"github.com/hray3182/RemindLine/internal/rrule"
)

// anchorMarkerRe introduces an anchor override, as in "every month since 2023-01-01".
// Matching runs on the original text so offsets stay valid for slicing.
var anchorMarkerRe = regexp.MustCompile(`(?i)since `)

// Kind tells a one-shot derivation from a recurring one.
type Kind int

const (
	KindOneShot Kind = iota
	KindRecurring
)

func (k Kind) String() string {
	if k == KindRecurring {
		return "recurring"
	}
	return "one-shot"
}

// Derivation is the outcome of interpreting a reminder's recurrence text.
type Derivation struct {
	Kind Kind
	// At is the fixed occurrence of a one-shot reminder.
	At time.Time
	// Rule is a normalized RRULE, set for recurring reminders.
	Rule string
	// Anchor is where rule occurrences are counted from: the anchor hint, or
	// the date named by a "since" clause.
	Anchor time.Time
}

// Adapter derives schedules from recurrence text. It is the only caller of
// the underlying Parser.
type Adapter struct {
	parser Parser
	dates  DateResolver
}

func NewAdapter(parser Parser, dates DateResolver) *Adapter {
	return &Adapter{parser: parser, dates: dates}
}

// NewDefaultAdapter wires the built-in natural language parser, optionally
// followed by extra fallback parsers.
func NewDefaultAdapter(fallbacks ...Parser) *Adapter {
	natural := NewNaturalParser()
	chain := Chain{natural}
	chain = append(chain, fallbacks...)
	return NewAdapter(chain, natural)
}

// Derive interprets text. anchorHint is the reference for a "since" clause
// and the anchor when there is none; now is the reference for the schedule
// phrase itself. Uninterpretable text yields a PARSE_ERROR.
func (a *Adapter) Derive(ctx context.Context, text string, anchorHint, now time.Time) (*Derivation, error) {
	remaining, anchor := a.splitAnchor(text, anchorHint)

	parsed, err := a.parser.Parse(ctx, remaining, now)
	if err != nil {
		return nil, apperrors.NewParse(text, err)
	}

	if !parsed.Recurring {
		if parsed.At.IsZero() {
			return nil, apperrors.NewParse(text, ErrUnrecognized)
		}
		return &Derivation{
			Kind:   KindOneShot,
			At:     parsed.At.In(time.Local).Truncate(time.Second),
			Anchor: rrule.Anchor(anchorHint),
		}, nil
	}

	rule, err := rrule.Normalize(parsed.Rule)
	if err != nil {
		return nil, apperrors.NewParse(text, err)
	}
	return &Derivation{
		Kind:   KindRecurring,
		Rule:   rule,
		Anchor: rrule.Anchor(anchor),
	}, nil
}

// splitAnchor extracts a trailing "since <date>" clause. The split is at the
// last occurrence of the marker; if the date does not resolve the text is
// returned untouched.
func (a *Adapter) splitAnchor(text string, hint time.Time) (string, time.Time) {
	if a.dates == nil {
		return text, hint
	}
	matches := anchorMarkerRe.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text, hint
	}
	last := matches[len(matches)-1]

	head := strings.TrimSpace(text[:last[0]])
	phrase := strings.TrimSpace(text[last[1]:])
	if head == "" || phrase == "" {
		return text, hint
	}

	date, ok := a.dates.ResolveDate(phrase, hint)
	if !ok {
		return text, hint
	}
	return head, date
}
