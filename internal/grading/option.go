package grading

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// optionPrefix lists the longest alternatives first so "answer" never loses to "ans".
var optionPrefix = regexp.MustCompile(`(?i)^(answer|option|choice|ans)\s*`)

var romanNumeral = regexp.MustCompile(`^[IVXLCDM]+$`)

var romanValues = map[string]int{
	"I": 1, "II": 2, "III": 3, "IV": 4, "V": 5,
	"VI": 6, "VII": 7, "VIII": 8, "IX": 9, "X": 10,
}

var optionSeparators = regexp.MustCompile(`[,;\s]+`)

const optionWrappers = `()[]{}.,;:'"`

// NormalizeOption maps a raw option token ("b", "(2)", "III", "Option C")
// to its canonical identifier. ok is false when nothing usable is left.
func NormalizeOption(raw string) (string, bool) {
	s := optionPrefix.ReplaceAllString(strings.TrimSpace(raw), "")
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(optionWrappers, r) {
			return -1
		}
		return r
	}, s)
	s = optionPrefix.ReplaceAllString(strings.TrimSpace(s), "")

	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case unicode.IsLetter(r):
			return unicode.ToUpper(r)
		}
		return -1
	}, s)
	if clean == "" {
		return "", false
	}

	runes := []rune(clean)
	if len(runes) == 1 && unicode.IsLetter(runes[0]) {
		return clean, true
	}
	if isDigits(clean) {
		n, err := strconv.Atoi(clean)
		if err != nil {
			return clean, true
		}
		if l, ok := letterFor(n); ok {
			return l, true
		}
		return clean, true
	}
	if romanNumeral.MatchString(clean) {
		if l, ok := letterFor(romanValues[clean]); ok {
			return l, true
		}
		return clean, true
	}
	for _, r := range runes {
		if unicode.IsLetter(r) {
			return string(r), true
		}
		if r >= '1' && r <= '9' {
			l, _ := letterFor(int(r - '0'))
			return l, true
		}
	}
	return clean, true
}

// NormalizeOptions returns the canonical, de-duplicated and sorted form of raw.
// Tokens that do not normalize are dropped.
func NormalizeOptions(raw []string) []string {
	set := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		if o, ok := NormalizeOption(r); ok {
			set[o] = struct{}{}
		}
	}
	return sortedKeys(set)
}

// SplitOptions breaks a single option string such as "A,B", "a b;c" or the
// postgres array text "{A,B,C}" into raw tokens.
func SplitOptions(s string) []string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		s = s[1 : len(s)-1]
	}
	var out []string
	for _, p := range optionSeparators.Split(s, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func letterFor(n int) (string, bool) {
	if n < 1 || n > 26 {
		return "", false
	}
	return string(rune('A' + n - 1)), true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// helpers

func toSet(arr []string) map[string]struct{} {
	m := make(map[string]struct{}, len(arr))
	for _, s := range arr {
		m[s] = struct{}{}
	}
	return m
}

func setEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
