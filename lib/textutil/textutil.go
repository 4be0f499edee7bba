package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Fold lowercases and strips diacritics so that "Préparer l'Avis" and
// "preparer l'avis" compare equal. Whitespace runs become a single space.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	folded = whitespaceRegex.ReplaceAllString(folded, " ")
	return strings.TrimSpace(folded)
}

// NormalizeName folds a name and drops all whitespace.
func NormalizeName(name string) string {
	return whitespaceRegex.ReplaceAllString(Fold(name), "")
}

// MatchName reports whether the normalized name contains any of the matchers,
// matchers must already be normalized.
func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if m != "" && strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// ContainsAny reports whether the folded text contains any folded marker.
// A marker made of fragments joined by "+" matches only when every fragment
// is present, in any order.
func ContainsAny(text string, markers []string) bool {
	text = Fold(text)
	for _, m := range markers {
		if containsAll(text, strings.Split(m, "+")) {
			return true
		}
	}
	return false
}

func containsAll(text string, fragments []string) bool {
	matched := false
	for _, f := range fragments {
		f = Fold(f)
		if f == "" {
			continue
		}
		if !strings.Contains(text, f) {
			return false
		}
		matched = true
	}
	return matched
}

// ClosestName returns the index of the candidate most similar to `target`
// by Jaro-Winkler distance over normalized names, or -1 when no candidate
// reaches `minSimilarity`.
func ClosestName(target string, candidates []string, minSimilarity float64) int {
	target = NormalizeName(target)

	best := -1
	var bestSimilarity float64
	for i, c := range candidates {
		sim := matchr.JaroWinkler(target, NormalizeName(c), false)
		if sim >= minSimilarity && sim > bestSimilarity {
			best = i
			bestSimilarity = sim
		}
	}
	return best
}
