package contact

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// addressPattern is a conservative RFC 5322 style grammar: dot-separated atoms
// in the local part and hyphenated labels in the domain.
var addressPattern = regexp.MustCompile(
	`(?i)^[a-z0-9!#$%&'*+/=?^_` + "`" + `{|}~-]+(?:\.[a-z0-9!#$%&'*+/=?^_` + "`" + `{|}~-]+)*` +
		`@[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?(?:\.[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?)*$`,
)

// nullMarkers are cell values that spreadsheet exports use for "no value".
var nullMarkers = map[string]bool{
	"":     true,
	"nan":  true,
	"none": true,
}

// IsNullMarker reports whether a raw cell carries no address at all.
func IsNullMarker(raw string) bool {
	return nullMarkers[strings.ToLower(strings.TrimSpace(raw))]
}

// Normalize canonicalizes a raw address candidate: title-case, trim,
// lowercase and drop non-printable characters.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	s := cases.Title(language.English).String(raw)
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, s)

	// Removing control characters can expose whitespace at the edges.
	return strings.TrimSpace(s)
}

// Correct applies the fixed repair rules for common typos and returns the
// repaired candidate. ok is false when no rule changed anything.
func Correct(candidate string) (corrected string, ok bool) {
	s := candidate

	// With several '@', everything up to the last one is the local part.
	local, domain, hasAt := splitLast(s)
	if hasAt {
		s = local + "@" + domain
	}

	s = strings.ReplaceAll(s, ",com", ".com")
	s = strings.Join(strings.Fields(s), "")
	s = strings.ReplaceAll(s, ".com.", ".com")
	s = strings.ReplaceAll(s, ", ", ",")
	s = strings.TrimRight(s, ",. ")

	if _, domain, hasAt := splitLast(s); hasAt && !strings.Contains(domain, ".") {
		s += ".com"
	}

	if s == candidate {
		return "", false
	}
	return s, true
}

// ValidFormat reports whether candidate is a syntactically acceptable address.
func ValidFormat(candidate string) bool {
	if strings.Count(candidate, "@") != 1 {
		return false
	}
	local, domain, _ := strings.Cut(candidate, "@")
	if local == "" || domain == "" {
		return false
	}
	if !strings.Contains(domain, ".") {
		return false
	}
	return addressPattern.MatchString(candidate)
}

// Domain returns the part of an address after the last '@'.
func Domain(address string) string {
	_, domain, _ := splitLast(address)
	return domain
}

func splitLast(s string) (local, domain string, ok bool) {
	i := strings.LastIndex(s, "@")
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+1:], true
}
