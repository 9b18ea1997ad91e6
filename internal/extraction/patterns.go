package extraction

import "regexp"

// totalPattern matches a total keyword, any run of non-digits, then an amount with
// exactly two decimals. Thousands commas are allowed in the integer part.
var totalPattern = regexp.MustCompile(`(?i)(?:TOTAL|AMOUNT|BALANCE|SUBTOTAL)[^\d]*(\d[\d,]*\.\d{2})`)

var (
	// day/month/year or month/day/year, separators chosen independently
	mixedDatePattern = regexp.MustCompile(`\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4}`)
	isoDatePattern   = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// datePatterns is in priority order: a match starting earlier always wins, and
// on an equal start the pattern listed first wins.
var datePatterns = []*regexp.Regexp{
	mixedDatePattern,
	isoDatePattern,
}

// earliestMatch returns the leftmost match of any pattern, breaking ties on
// start position by the order of patterns.
func earliestMatch(text string, patterns []*regexp.Regexp) (string, bool) {
	bestStart, bestEnd := -1, -1
	for _, p := range patterns {
		loc := p.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if bestStart == -1 || loc[0] < bestStart {
			bestStart, bestEnd = loc[0], loc[1]
		}
	}
	if bestStart == -1 {
		return "", false
	}
	return text[bestStart:bestEnd], true
}
