// Package validators holds the pure checksum and format predicates used by
// the recognizers. Every function is deterministic and side-effect free.
package validators

import (
	"strings"

	"github.com/savegress/cliniredact/pkg/models"
)

// Luhn reports whether s passes the mod-10 checksum. s must be digits only;
// anything else fails the check.
func Luhn(s string) bool {
	if len(s) < 2 {
		return false
	}
	sum := 0
	double := false
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// Digits strips spaces, hyphens and dots from s and reports whether the
// remainder is non-empty and numeric.
func Digits(s string) (string, bool) {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			b.WriteByte(c)
		case c == ' ' || c == '-' || c == '.':
		default:
			return "", false
		}
	}
	out := b.String()
	return out, out != ""
}

// healthNumberRule describes the validation applied to one province's health
// number: exact digit count, optional allowed leading digits, and an optional
// checksum over the digit string.
type healthNumberRule struct {
	length   int
	prefixes []string
	checksum func(string) bool
}

var healthNumberRules = map[models.EntityType]healthNumberRule{
	models.EntityONHealth: {length: 10, checksum: Luhn},
	models.EntityBCHealth: {length: 10, prefixes: []string{"9"}, checksum: bcChecksum},
	models.EntityABHealth: {length: 9},
	models.EntitySKHealth: {length: 9},
	models.EntityMBHealth: {length: 9},
	models.EntityNSHealth: {length: 10, checksum: Luhn},
	models.EntityNBHealth: {length: 9, checksum: Luhn},
	models.EntityNLHealth: {length: 12},
	models.EntityPEHealth: {length: 8},
	models.EntityNTHealth: {length: 7},
	models.EntityNUHealth: {length: 9, prefixes: []string{"1"}},
	models.EntityYTHealth: {length: 9},
}

// ValidHealthNumber reports whether raw is a plausible health number for the
// given provincial entity type. raw may contain space, hyphen or dot
// separators and, for types that carry them, a leading or trailing letter
// segment (Ontario version codes, NWT prefix, RAMQ name segment); letters are
// handled per type before the digit rule applies.
func ValidHealthNumber(t models.EntityType, raw string) bool {
	switch t {
	case models.EntityQCHealth:
		return validRAMQ(raw)
	case models.EntityONHealth:
		raw = trimVersionCode(raw)
	case models.EntityNTHealth:
		raw = trimLetterPrefix(raw)
	}

	rule, ok := healthNumberRules[t]
	if !ok {
		return false
	}
	digits, ok := Digits(raw)
	if !ok || len(digits) != rule.length {
		return false
	}
	if len(rule.prefixes) > 0 {
		matched := false
		for _, p := range rule.prefixes {
			if strings.HasPrefix(digits, p) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if rule.checksum != nil {
		return rule.checksum(digits)
	}
	return true
}

// trimVersionCode drops a trailing one- or two-letter Ontario version code
// and its separator, e.g. "1234-567-890-XY" -> "1234-567-890".
func trimVersionCode(raw string) string {
	s := strings.TrimRight(raw, " ")
	i := len(s)
	for i > 0 && isLetter(s[i-1]) {
		i--
	}
	letters := len(s) - i
	if letters == 0 || letters > 2 {
		return raw
	}
	return strings.TrimRight(s[:i], " -.")
}

// trimLetterPrefix drops a single leading letter, e.g. NWT's "N1234567".
func trimLetterPrefix(raw string) string {
	if len(raw) > 0 && isLetter(raw[0]) {
		return strings.TrimLeft(raw[1:], " -.")
	}
	return raw
}

// validRAMQ checks the Québec RAMQ format: four letters followed by eight
// digits, separators allowed. The sixth digit encodes sex (month offset) but
// registry assignment varies, so only the shape is enforced.
func validRAMQ(raw string) bool {
	var letters, digits int
	for i := 0; i < len(raw); i++ {
		switch c := raw[i]; {
		case isLetter(c):
			if digits > 0 {
				return false
			}
			letters++
		case c >= '0' && c <= '9':
			if letters != 4 {
				return false
			}
			digits++
		case c == ' ' || c == '-' || c == '.':
		default:
			return false
		}
	}
	return letters == 4 && digits == 8
}

// bcChecksum validates the BC PHN weighted mod-11 check. The first digit must
// be 9; digits two through nine are weighted 2,4,8,5,10,9,7,3 and the final
// digit is 11 minus the weighted sum mod 11.
func bcChecksum(digits string) bool {
	if len(digits) != 10 || digits[0] != '9' {
		return false
	}
	weights := []int{2, 4, 8, 5, 10, 9, 7, 3}
	sum := 0
	for i, w := range weights {
		sum += int(digits[i+1]-'0') * w
	}
	rem := sum % 11
	if rem == 0 || rem == 1 {
		return false
	}
	return int(digits[9]-'0') == 11-rem
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
