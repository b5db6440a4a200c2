// Package normalizers canonicalizes free-text fields so that exact equality
// on the normalized value is a meaningful duplicate signal.
package normalizers

import (
	"regexp"
	"strconv"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// missingSentinels are cell values the upstream export uses for "no value"
var missingSentinels = map[string]struct{}{
	"nan":  {},
	"none": {},
	"<na>": {},
	"nat":  {},
	"null": {},
}

// IsMissing reports whether s is empty or a missing-value sentinel
func IsMissing(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" {
		return true
	}
	_, ok := missingSentinels[strings.ToLower(t)]
	return ok
}

// BlankMissing maps missing-value sentinels to the empty string
func BlankMissing(s string) string {
	if IsMissing(s) {
		return ""
	}
	return s
}

// CollapseWhitespace replaces runs of whitespace with a single space
func CollapseWhitespace(s string) string {
	return whitespaceRe.ReplaceAllString(s, " ")
}

// NormalizeString lowercases, trims and collapses whitespace. Used for
// names and addresses.
func NormalizeString(s string) string {
	s = BlankMissing(s)
	return CollapseWhitespace(strings.TrimSpace(strings.ToLower(s)))
}

// NormalizePhone removes all spaces. Other separators are kept because the
// export places only spaces inconsistently.
func NormalizePhone(s string) string {
	s = BlankMissing(s)
	return strings.ReplaceAll(s, " ", "")
}

// NormalizeEmail normalizes an email address (lowercase, trim)
func NormalizeEmail(s string) string {
	s = BlankMissing(s)
	return strings.ToLower(strings.TrimSpace(s))
}

// ParseZip turns spreadsheet-float postal codes ("8001.0") into their
// integer form and reports whether the value was numeric. Codes with
// letters are kept as they are.
func ParseZip(s string) (string, bool) {
	s = strings.TrimSpace(BlankMissing(s))
	if s == "" {
		return "", true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s, false
	}
	return strconv.FormatInt(int64(f), 10), true
}

// AbbreviateFirstName replaces the first word with its initial unless it
// is already abbreviated: "hans  muster" -> "h. muster".
func AbbreviateFirstName(name string) string {
	parts := strings.Fields(name)
	if len(parts) > 1 && !strings.HasSuffix(parts[0], ".") {
		first := []rune(parts[0])
		parts[0] = string(first[0]) + "."
	}
	return strings.Join(parts, " ")
}
