package sanitizer

import (
	"regexp"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	// Location/pallet/SKU/lot codes as printed on warehouse labels:
	// upper-case alphanumerics with dashes.
	reKeepCodeChars = regexp.MustCompile(`[^0-9A-Z-]+`)
	reMultiDash     = regexp.MustCompile(`-+`)

	reKeepLetters = regexp.MustCompile(`[^\p{L}]+`)
)

func trimAndUpper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func collapseDashes(s string) string {
	s = reMultiDash.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SanitizeCode normalizes a scanned or typed location, pallet, SKU or
// lot code. TUN racks scan with embedded spaces; those become dashes.
func SanitizeCode(input string) string {
	p := Pipeline{
		trimAndUpper,
		func(s string) string { return strings.ReplaceAll(s, " ", "-") },
		func(s string) string { return reKeepCodeChars.ReplaceAllString(s, "") },
		collapseDashes,
	}
	return p.Apply(input)
}

// SanitizeName normalizes a counter name for roster matching.
func SanitizeName(input string) string {
	p := Pipeline{
		func(s string) string { return strings.TrimSpace(s) },
		func(s string) string { return reKeepLetters.ReplaceAllString(s, "") },
	}
	return p.Apply(input)
}

// SanitizeNote keeps free text readable: collapses whitespace runs and
// trims, nothing more.
func SanitizeNote(input string) string {
	return TrimAndNormalize(input)
}

func SanitizeSlice(values []string, strategy Strategy) []string {
	seen := make(map[string]struct{})
	out := []string{}

	for _, v := range values {
		s := strategy(v)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	return out
}
