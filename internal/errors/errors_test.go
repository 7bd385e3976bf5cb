package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"parse", NewParse("blorf", nil), ErrParse, true},
		{"validation", NewValidation("days must be between 1 and 30"), ErrValidation, true},
		{"not found", NewNotFound(7), ErrNotFound, true},
		{"exhausted", NewExhaustedRule("FREQ=DAILY;COUNT=1"), ErrExhaustedRule, true},
		{"wrong code", NewNotFound(7), ErrParse, false},
		{"wrapped", fmt.Errorf("edit: %w", NewParse("x", nil)), ErrParse, true},
		{"plain error", stderrors.New("boom"), ErrInternal, false},
		{"nil", nil, ErrNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(NewValidation("bad")); got != ErrValidation {
		t.Errorf("CodeOf() = %s, want %s", got, ErrValidation)
	}
	if got := CodeOf(stderrors.New("boom")); got != ErrInternal {
		t.Errorf("CodeOf() = %s, want %s", got, ErrInternal)
	}
}

func TestNotFoundMessageHidesOwner(t *testing.T) {
	err := NewNotFound(42)
	if err.Error() != "NOT_FOUND: reminder 42 not found" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestInternalUnwraps(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := NewInternal(cause)
	if !stderrors.Is(err, cause) {
		t.Error("NewInternal should wrap its cause")
	}
}
