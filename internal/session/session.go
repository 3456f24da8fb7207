// internal/session/session.go

// Package session holds the state of one interactive generation session: the
// current input, the chosen mode and the last result.
//
// A Session is owned by a single caller and is not safe for concurrent use.
package session

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dalemusser/dotmail/internal/export"
	"github.com/dalemusser/dotmail/internal/variant"
)

// Example is the address inserted by PasteExample.
const Example = "name@gmail.com"

// DefaultCount is the initial count for a new valid input, capped at the
// input's total.
const DefaultCount = 100

var (
	ErrNoInput     = errors.New("no email entered")
	ErrNoResult    = errors.New("nothing generated yet")
	ErrCountRange  = errors.New("count out of range")
	ErrOverCeiling = errors.New("too many variants for this session")
)

// Mode selects between a bounded and an unbounded generation.
type Mode int

const (
	ModeCount Mode = iota
	ModeAll
)

func (m Mode) String() string {
	if m == ModeAll {
		return "all"
	}
	return "count"
}

// Result is the output of one Generate call.
type Result struct {
	Input    string
	Total    variant.Total
	Variants []string
}

// Len returns the number of generated variants.
func (r *Result) Len() int { return len(r.Variants) }

// Option configures a Session.
type Option func(*Session)

// WithValidator sets the validator used for input.
func WithValidator(v variant.Validator) Option {
	return func(s *Session) { s.validator = v }
}

// WithDefaultCount sets the count chosen for a new input.
func WithDefaultCount(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.defaultCount = n
		}
	}
}

// WithCeiling refuses generations larger than n. Zero disables the check.
func WithCeiling(n int) Option {
	return func(s *Session) { s.ceiling = n }
}

// Session is the per-user state behind the interactive shell.
type Session struct {
	validator    variant.Validator
	defaultCount int
	ceiling      int

	input  string
	addr   variant.Address
	err    error
	mode   Mode
	count  int
	result *Result
}

// New returns an empty session in count mode.
func New(opts ...Option) *Session {
	s := &Session{defaultCount: DefaultCount}
	for _, opt := range opts {
		opt(s)
	}
	s.err = ErrNoInput
	return s
}

// SetInput replaces the current input. It returns the validation error, if
// any; the input is kept either way so it can be shown back to the user.
// A valid input resets the count to min(default count, total).
func (s *Session) SetInput(in string) error {
	s.input = in
	if in == "" {
		s.addr, s.err = variant.Address{}, ErrNoInput
		return s.err
	}
	s.addr, s.err = s.validator.Parse(in)
	if s.err == nil {
		s.count = s.addr.Count().Clamp(variant.Max(s.defaultCount))
	}
	return s.err
}

// PasteExample sets the input to Example.
func (s *Session) PasteExample() error {
	return s.SetInput(Example)
}

// Input returns the current raw input.
func (s *Session) Input() string { return s.input }

// Err returns the validation error of the current input, or nil.
func (s *Session) Err() error { return s.err }

// Address returns the parsed input, if valid.
func (s *Session) Address() (variant.Address, bool) {
	return s.addr, s.err == nil
}

// Total returns the variant total of the current input, if valid.
func (s *Session) Total() (variant.Total, bool) {
	if s.err != nil {
		return variant.Total{}, false
	}
	return s.addr.Count(), true
}

// Mode returns the current generation mode.
func (s *Session) Mode() Mode { return s.mode }

// Count returns the count used in ModeCount.
func (s *Session) Count() int { return s.count }

// SetCount switches to ModeCount with n variants. n must be at least 1; a
// count above the input's total is clamped down to the total. Use Count to
// read back the value actually stored.
func (s *Session) SetCount(n int) error {
	total, ok := s.Total()
	if !ok {
		return s.err
	}
	if n < 1 {
		return fmt.Errorf("%w: %d (want at least 1)", ErrCountRange, n)
	}
	s.mode = ModeCount
	s.count = total.Clamp(variant.Max(n))
	return nil
}

// SetAll switches to ModeAll.
func (s *Session) SetAll() { s.mode = ModeAll }

// Limit returns the limit Generate will use.
func (s *Session) Limit() variant.Limit {
	if s.mode == ModeAll {
		return variant.All()
	}
	return variant.Max(s.count)
}

// Generate runs the generator for the current input and mode and stores the
// result.
func (s *Session) Generate() (*Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	limit := s.Limit()
	total := s.addr.Count()
	if s.ceiling > 0 && total.Exceeds(s.ceiling) {
		if n := total.Clamp(limit); n > s.ceiling {
			return nil, fmt.Errorf("%w: %d requested, limit %d", ErrOverCeiling, n, s.ceiling)
		}
	}

	s.result = &Result{
		Input:    s.input,
		Total:    total,
		Variants: s.addr.Variants(limit),
	}
	return s.result, nil
}

// Result returns the last generated result.
func (s *Session) Result() (*Result, bool) {
	return s.result, s.result != nil
}

// Save writes the last result to filename in format f.
func (s *Session) Save(filename string, f export.Format) error {
	if s.result == nil {
		return ErrNoResult
	}
	return export.Save(filename, f, slices.Values(s.result.Variants))
}
