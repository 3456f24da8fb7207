// internal/text/text.go

// Package text holds the display and input helpers shared by the CLI, the
// interactive shell and the HTTP API.
package text

import (
	"strings"
	"sync"

	"github.com/dalemusser/dotmail/internal/variant"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// printers caches one message.Printer per language; a Printer is not safe
// for concurrent use, so each is guarded by its own pool.
var printers sync.Map // language.Tag -> *sync.Pool

func printerPool(tag language.Tag) *sync.Pool {
	if p, ok := printers.Load(tag); ok {
		return p.(*sync.Pool)
	}
	p, _ := printers.LoadOrStore(tag, &sync.Pool{
		New: func() any { return message.NewPrinter(tag) },
	})
	return p.(*sync.Pool)
}

// Thousands formats n with the digit grouping of tag ("1,024" for English).
func Thousands(tag language.Tag, n uint64) string {
	pool := printerPool(tag)
	p := pool.Get().(*message.Printer)
	defer pool.Put(p)
	return p.Sprintf("%d", n)
}

// Total formats a variant total for display. Totals beyond uint64 are
// grouped with commas regardless of tag.
func Total(tag language.Tag, t variant.Total) string {
	if n, ok := t.Uint64(); ok {
		return Thousands(tag, n)
	}
	return groupDigits(t.String())
}

func groupDigits(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + len(s)/3)
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// nfcPool avoids per-call allocations of the normalizing transformer.
var nfcPool = sync.Pool{
	New: func() any { return transform.Chain(norm.NFC) },
}

// Normalize trims whitespace, composes to NFC and lowercases s. Inputs that
// differ only in case or Unicode composition produce the same variants after
// normalization.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if isASCIIAndLower(s) {
		return s
	}

	t := nfcPool.Get().(transform.Transformer)
	defer func() {
		t.Reset()
		nfcPool.Put(t)
	}()

	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// isASCIIAndLower reports whether s contains only ASCII bytes and no A..Z.
func isASCIIAndLower(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b >= 0x80 || (b >= 'A' && b <= 'Z') {
			return false
		}
	}
	return true
}
