package service

import (
	"strings"
	"unicode"

	"github.com/oppajeom/oppajeom/internal/core/hexagram"
)

// FormatLines renders line values as digits, bottom line first.
func FormatLines(lines []hexagram.LineValue) string {
	var b strings.Builder
	for _, v := range lines {
		b.WriteByte(byte('0' + int(v)))
	}
	return b.String()
}

// ParseLines reads six digits 6-9.
func ParseLines(s string) ([]hexagram.LineValue, error) {
	s = strings.TrimSpace(s)
	if len(s) != hexagram.LineCount {
		return nil, invalidArgument("lines", "lines must be six digits")
	}
	lines := make([]hexagram.LineValue, 0, hexagram.LineCount)
	for _, r := range s {
		v, err := hexagram.ParseLineValue(int(r - '0'))
		if err != nil {
			return nil, err
		}
		lines = append(lines, v)
	}
	return lines, nil
}

// NormalizePhone strips separators and a leading plus; 9 to 15 digits remain.
func NormalizePhone(phone string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimPrefix(strings.TrimSpace(phone), "+") {
		switch {
		case unicode.IsDigit(r) && r < unicode.MaxASCII:
			b.WriteRune(r)
		case r == '-' || r == ' ' || r == '.' || r == '(' || r == ')':
		default:
			return "", invalidArgument("phone", "phone may only contain digits and separators")
		}
	}
	digits := b.String()
	if len(digits) < 9 || len(digits) > 15 {
		return "", invalidArgument("phone", "phone must have 9 to 15 digits")
	}
	return digits, nil
}
