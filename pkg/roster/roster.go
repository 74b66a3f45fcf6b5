// Package roster holds the fixed list of counters who may receive cycle
// count assignments. The list is maintained by warehouse management and
// changes rarely enough that a code change is the agreed process.
package roster

import "strings"

// Keep as-is; includes Eric, excludes Erick; alphabetical.
var Counters = []string{
	"Aldo", "Alex", "Carlos", "Clayton", "Cody", "Enrique", "Eric",
	"James", "Jake", "Johntai", "Karen", "Kevin", "Luis", "Nyahok",
	"Stephanie", "Tyteanna",
}

// IsCounter reports whether name is on the roster. Matching ignores case
// and surrounding whitespace so scan-gun input doesn't need cleanup first.
func IsCounter(name string) bool {
	trimmed := strings.TrimSpace(name)
	for _, c := range Counters {
		if strings.EqualFold(c, trimmed) {
			return true
		}
	}
	return false
}

// Canonical returns a roster name in its canonical capitalization, or ""
// when the name is not on the roster.
func Canonical(name string) string {
	trimmed := strings.TrimSpace(name)
	for _, c := range Counters {
		if strings.EqualFold(c, trimmed) {
			return c
		}
	}
	return ""
}

func Names() []string {
	out := make([]string, len(Counters))
	copy(out, Counters)
	return out
}
