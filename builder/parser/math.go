package parser

import "regexp"

// The same delimiter set the passthrough extension is configured with.
var (
	dollarBlock  = regexp.MustCompile(`(?s)\$\$(.+?)\$\$`)
	dollarInline = regexp.MustCompile(`\$((?:\\.|[^$\n<>])+?)\$`)
	bracketBlock = regexp.MustCompile(`(?s)\\\[(.*?)\\\]`)
	parenInline  = regexp.MustCompile(`(?s)\\\((.*?)\\\)`)

	// A digit right after the opening $ reads as money, not math.
	leadingDigit = regexp.MustCompile(`^\d`)
)

// HasMath reports whether the source carries at least one math expression
// that will reach KaTeX on the client. Dollar amounts don't count.
func HasMath(source []byte) bool {
	s := string(source)
	if dollarBlock.MatchString(s) || bracketBlock.MatchString(s) || parenInline.MatchString(s) {
		return true
	}
	for _, m := range dollarInline.FindAllStringSubmatch(s, -1) {
		if len(m) >= 2 && !leadingDigit.MatchString(m[1]) {
			return true
		}
	}
	return false
}
