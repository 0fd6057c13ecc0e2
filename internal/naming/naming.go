package naming

import (
	"regexp"
	"strings"
)

var (
	nonAlnum     = regexp.MustCompile(`[^a-z0-9]+`)
	spaces       = regexp.MustCompile(`\s+`)
	leadingDigit = regexp.MustCompile(`^[0-9]`)
)

// Symbol substitutions applied before stripping, so that labels like
// "PO #" and "Parts & Labor" stay distinguishable after normalization.
var substitutions = []struct {
	from string
	to   string
}{
	{"#", " nbr "},
	{"&", " and "},
	{"@", " at "},
	{"*", " star "},
	{"$", " dollar "},
	{"?", " q "},
}

// Normalize converts a Quickbase label into an identifier that is safe as a
// column name in most downstream databases.
func Normalize(name string) string {
	name = strings.ToLower(name)

	for _, sub := range substitutions {
		name = strings.ReplaceAll(name, sub.from, sub.to)
	}

	name = nonAlnum.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	name = spaces.ReplaceAllString(name, "_")

	if leadingDigit.MatchString(name) {
		name = "n" + name
	}

	if len(name) > 255 {
		name = name[:255]
	}
	return name
}
