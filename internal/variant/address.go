// internal/variant/address.go
package variant

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFormat is the root of every validation error returned by Parse.
var ErrInvalidFormat = errors.New("invalid email format")

// Validation errors. Each wraps ErrInvalidFormat.
var (
	ErrNoAt        = fmt.Errorf("%w: missing '@'", ErrInvalidFormat)
	ErrMultipleAt  = fmt.Errorf("%w: more than one '@'", ErrInvalidFormat)
	ErrEmptyLocal  = fmt.Errorf("%w: empty local part", ErrInvalidFormat)
	ErrEmptyDomain = fmt.Errorf("%w: empty domain", ErrInvalidFormat)
	ErrLeadingDot  = fmt.Errorf("%w: local part starts with '.'", ErrInvalidFormat)
	ErrTrailingDot = fmt.Errorf("%w: local part ends with '.'", ErrInvalidFormat)
	ErrDomainNoDot = fmt.Errorf("%w: domain has no '.'", ErrInvalidFormat)
)

// Tier selects how much checking Validator applies.
type Tier int

const (
	// TierMinimal checks only the '@' count and the local part's edges.
	// The domain is accepted as-is ("a@b" is valid).
	TierMinimal Tier = iota

	// TierStrict additionally requires an interior '.' in the domain.
	TierStrict
)

// String returns the config name of the tier.
func (t Tier) String() string {
	switch t {
	case TierMinimal:
		return "minimal"
	case TierStrict:
		return "strict"
	}
	return fmt.Sprintf("Tier(%d)", int(t))
}

// ParseTier maps a config name to a Tier. Empty means minimal.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "minimal":
		return TierMinimal, nil
	case "strict":
		return TierStrict, nil
	}
	return TierMinimal, fmt.Errorf("unknown validation tier %q (want minimal or strict)", s)
}

// Address is an email split on its single '@'.
type Address struct {
	Local  string
	Domain string
}

// String reassembles the address.
func (a Address) String() string {
	return a.Local + "@" + a.Domain
}

// Count returns the number of variants of a.
func (a Address) Count() Total {
	return Count(a.Local)
}

// Variants enumerates the variants of a up to limit.
func (a Address) Variants(limit Limit) []string {
	return collect(a.Local, a.Domain, limit)
}

// Validator parses addresses at a given Tier. The zero value is a minimal
// validator.
type Validator struct {
	Tier Tier
}

// Parse splits s into an Address, or returns an error wrapping
// ErrInvalidFormat.
func (v Validator) Parse(s string) (Address, error) {
	switch strings.Count(s, "@") {
	case 0:
		return Address{}, ErrNoAt
	case 1:
	default:
		return Address{}, ErrMultipleAt
	}

	local, domain, _ := strings.Cut(s, "@")
	switch {
	case local == "":
		return Address{}, ErrEmptyLocal
	case domain == "":
		return Address{}, ErrEmptyDomain
	case strings.HasPrefix(local, "."):
		return Address{}, ErrLeadingDot
	case strings.HasSuffix(local, "."):
		return Address{}, ErrTrailingDot
	}

	if v.Tier == TierStrict {
		dot := strings.IndexByte(domain, '.')
		if dot <= 0 || strings.HasSuffix(domain, ".") {
			return Address{}, ErrDomainNoDot
		}
	}

	return Address{Local: local, Domain: domain}, nil
}

// IsValid reports whether s parses at v's tier.
func (v Validator) IsValid(s string) bool {
	_, err := v.Parse(s)
	return err == nil
}

// Parse is Validator{}.Parse.
func Parse(s string) (Address, error) {
	return Validator{}.Parse(s)
}

// IsValid reports whether s is a plausible local@domain pair. It is a
// heuristic, not an RFC 5322 check: the domain is never inspected.
func IsValid(s string) bool {
	return Validator{}.IsValid(s)
}

// Reason returns a short human description of a Parse error, without the
// ErrInvalidFormat prefix. It returns "" for nil.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if errors.Is(err, ErrInvalidFormat) {
		msg = strings.TrimPrefix(msg, ErrInvalidFormat.Error()+": ")
	}
	return msg
}
