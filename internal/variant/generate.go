// internal/variant/generate.go
package variant

import (
	"iter"
	"math"
	"math/big"
	"strings"
	"unicode/utf8"
)

// Limit bounds how many variants are enumerated. The zero value is All.
type Limit struct {
	n       int
	bounded bool
}

// All is the unbounded limit: every variant is produced.
func All() Limit { return Limit{} }

// Max bounds enumeration to the first n variants. Values of n above the total
// are clamped to the total; n <= 0 yields nothing.
func Max(n int) Limit { return Limit{n: n, bounded: true} }

// Bounded reports whether l is a Max limit, and its value.
func (l Limit) Bounded() (int, bool) { return l.n, l.bounded }

// Total is the theoretical number of variants of a local part, 2^Gaps.
type Total struct {
	Gaps int
}

// Count returns the variant total for local.
func Count(local string) Total {
	return Total{Gaps: gaps(utf8.RuneCountInString(local))}
}

// Uint64 returns the total, or false when it does not fit in a uint64.
func (t Total) Uint64() (uint64, bool) {
	if t.Gaps >= 64 {
		return 0, false
	}
	return 1 << uint(t.Gaps), true
}

// Big returns the exact total.
func (t Total) Big() *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), uint(t.Gaps))
}

// String returns the exact decimal total.
func (t Total) String() string {
	if n, ok := t.Uint64(); ok {
		return new(big.Int).SetUint64(n).String()
	}
	return t.Big().String()
}

// Exceeds reports whether the total is greater than n.
func (t Total) Exceeds(n int) bool {
	total, ok := t.Uint64()
	if !ok {
		return true
	}
	return n < 0 || total > uint64(n)
}

// Clamp returns how many variants limit yields against this total: the total
// itself for All, min(n, total) for Max(n), and 0 for non-positive n. The
// result saturates at math.MaxInt.
func (t Total) Clamp(limit Limit) int {
	total, ok := t.Uint64()
	if !ok || total > math.MaxInt {
		total = math.MaxInt
	}
	if n, bounded := limit.Bounded(); bounded {
		if n <= 0 {
			return 0
		}
		if uint64(n) < total {
			return n
		}
	}
	return int(total)
}

func gaps(n int) int {
	return max(n-1, 0)
}

// Generate returns every variant of local@domain in mask order.
//
// The result has 2^(n-1) entries for a local part of n characters. Past
// about 30 characters that no longer fits in memory; use GenerateN or
// Variants for long local parts.
func Generate(local, domain string) []string {
	return collect(local, domain, All())
}

// GenerateN returns the first count variants of local@domain in mask order.
// A count above the total is clamped; count <= 0 returns an empty slice.
func GenerateN(local, domain string, count int) []string {
	return collect(local, domain, Max(count))
}

func collect(local, domain string, limit Limit) []string {
	hint := Count(local).Clamp(limit)
	// Cap the preallocation; an unbounded request can still grow past it.
	out := make([]string, 0, min(hint, 1<<16))
	for v := range Variants(local, domain, limit) {
		out = append(out, v)
	}
	return out
}

// Variants lazily enumerates the variants of local@domain up to limit, in
// increasing mask order.
//
// Masks are 64-bit. With more than 64 gaps, the leading gaps are only ever
// dotted beyond mask 2^64-1, which All never reaches; every Max limit is
// still exact.
func Variants(local, domain string, limit Limit) iter.Seq[string] {
	chars := []rune(local)
	g := gaps(len(chars))
	total := Total{Gaps: g}

	return func(yield func(string) bool) {
		var (
			end     uint64 // exclusive
			endless bool
		)
		switch _, bounded := limit.Bounded(); {
		case bounded:
			end = uint64(total.Clamp(limit))
		case total.Gaps >= 64:
			endless = true
		default:
			end, _ = total.Uint64()
		}

		for mask := uint64(0); endless || mask < end; mask++ {
			if !yield(build(chars, g, mask, domain)) {
				return
			}
			if mask == math.MaxUint64 {
				return
			}
		}
	}
}

// Variant returns the single variant for mask. Bits above the gap count are
// ignored.
func Variant(local, domain string, mask uint64) string {
	chars := []rune(local)
	return build(chars, gaps(len(chars)), mask, domain)
}

func build(chars []rune, g int, mask uint64, domain string) string {
	var b strings.Builder
	b.Grow(len(chars) + g + 1 + len(domain))
	for i, c := range chars {
		b.WriteRune(c)
		if i < g && dotAt(mask, g-1-i) {
			b.WriteByte('.')
		}
	}
	b.WriteByte('@')
	b.WriteString(domain)
	return b.String()
}

// dotAt reports whether bit is set in mask.
func dotAt(mask uint64, bit int) bool {
	return bit < 64 && mask&(1<<uint(bit)) != 0
}

// Strip removes every '.' from local. For any variant's local part it
// returns the original local part, provided the original had no dots.
func Strip(local string) string {
	return strings.ReplaceAll(local, ".", "")
}

// Mask recovers the mask of a variant local part produced from a dot-free
// local part. It returns false if v is not such a variant.
func Mask(v string) (uint64, bool) {
	if v == "" || strings.HasPrefix(v, ".") || strings.HasSuffix(v, ".") || strings.Contains(v, "..") {
		return 0, false
	}
	chars := []rune(Strip(v))
	g := gaps(len(chars))

	var mask uint64
	i := 0
	prevDot := false
	for _, c := range v {
		if c == '.' {
			bit := g - i
			if prevDot || bit >= 64 {
				return 0, false
			}
			mask |= 1 << uint(bit)
			prevDot = true
			continue
		}
		prevDot = false
		i++
	}
	return mask, true
}
