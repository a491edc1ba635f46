package search

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// tokenRe matches runs of letters or digits in any script
var tokenRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "he": {}, "in": {}, "is": {}, "it": {}, "its": {},
	"of": {}, "on": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {}, "will": {}, "with": {},
}

// Analyze turns text into lower-case, diacritic-free tokens with English stop words removed
func Analyze(text string) []string {
	folded := Fold(text)
	raw := tokenRe.FindAllString(folded, -1)
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// Fold lower-cases text and strips combining marks ("Café" -> "cafe")
func Fold(text string) string {
	// transform chains keep state, so each call builds its own
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}

// PlainText strips markup from abstracts that carry HTML and decodes entities
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// withinOneEdit reports whether a and b differ by at most one insertion,
// deletion, substitution or adjacent transposition.
func withinOneEdit(a, b []rune) bool {
	la, lb := len(a), len(b)
	if la-lb > 1 || lb-la > 1 {
		return false
	}
	if la < lb {
		a, b = b, a
		la, lb = lb, la
	}

	i := 0
	for i < lb && a[i] == b[i] {
		i++
	}
	if i == lb {
		// Equal, or a has one extra trailing rune
		return true
	}

	if la == lb {
		// Substitution at i
		if string(a[i+1:]) == string(b[i+1:]) {
			return true
		}
		// Transposition of i and i+1
		return i+1 < la && a[i] == b[i+1] && a[i+1] == b[i] && string(a[i+2:]) == string(b[i+2:])
	}
	// Deletion from the longer word at i
	return string(a[i+1:]) == string(b[i:])
}
