package orders

import (
	"rapthor-backend/lib/timezone"
	"strings"
	"time"
	"unicode"

	"github.com/govalues/decimal"
)

var currencyTokens = []string{"€", "EUR", "eur", "Eur"}

// ParseAmount parses a french formatted amount like "1 779,00 €".
// Scraped text is noisy, so anything that is not a non-negative amount is 0.
func ParseAmount(text string) decimal.Decimal {
	s := text
	for _, tok := range currencyTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Decimal{}
	}

	s, ok := canonicalDecimal(s)
	if !ok {
		return decimal.Decimal{}
	}
	d, err := decimal.Parse(s)
	if err != nil || d.IsNeg() {
		return decimal.Decimal{}
	}
	return d
}

// canonicalDecimal rewrites separators so that "." is the only decimal point
// and thousands separators are gone.
func canonicalDecimal(s string) (string, bool) {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			// 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			return strings.Replace(s, ",", ".", 1), strings.Count(s, ",") == 1
		}
		// 1,234.56
		s = strings.ReplaceAll(s, ",", "")
		return s, strings.Count(s, ".") == 1
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return "", false
		}
		return strings.Replace(s, ",", ".", 1), true
	case lastDot >= 0:
		if groupsThousands(s) {
			return strings.ReplaceAll(s, ".", ""), true
		}
		return s, strings.Count(s, ".") == 1
	}
	return s, true
}

// groupsThousands reports whether every "." in s separates groups of three
// digits, as in "1.234.567".
func groupsThousands(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts[0]) == 0 || len(parts[0]) > 3 {
		return false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return false
		}
	}
	return true
}

// ParseDate parses a DD/MM/YYYY date in the portal's timezone. A trailing time
// of day ("03/12/2025 10:00") is ignored.
func ParseDate(text string) (time.Time, bool) {
	return ParseDateLayout(text, DateLayout)
}

func ParseDateLayout(text, layout string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(layout, text, timezone.Location)
	if err == nil {
		return t, true
	}
	fields := strings.Fields(text)
	if len(fields) > 1 {
		t, err = time.ParseInLocation(layout, fields[0], timezone.Location)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseDatePtr(text string) *time.Time {
	t, ok := ParseDate(text)
	if !ok {
		return nil
	}
	return &t
}
