// internal/variant/doc.go

// Package variant enumerates the dot-insertion variants of an email address.
//
// Providers such as Gmail ignore dots in the local part, so "name@gmail.com",
// "n.ame@gmail.com" and "n.a.m.e@gmail.com" all reach the same mailbox. For a
// local part of n characters there are n-1 gaps, each of which either holds a
// dot or not, giving 2^(n-1) variants.
//
// Basic usage:
//
//	addr, err := variant.Parse("name@gmail.com")
//	if err != nil {
//	    return err // errors.Is(err, variant.ErrInvalidFormat)
//	}
//	for _, v := range variant.GenerateN(addr.Local, addr.Domain, 100) {
//	    fmt.Println(v)
//	}
//
// Variants are produced in increasing bitmask order. The first gap (between
// the first and second characters) maps to the most significant bit, so mask 0
// is the unmodified address and the last mask puts a dot in every gap.
//
// Lengths are counted in characters (Unicode code points), not bytes.
//
// Everything in this package is pure and safe for concurrent use.
package variant
