package outline

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ValidateName checks that name can identify a glyph: non-empty, NFC
// normalized and free of whitespace and control characters.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%w: %q is not UTF-8", ErrInvalidName, name)
	}
	if !norm.NFC.IsNormalString(name) {
		return fmt.Errorf("%w: %q is not NFC normalized", ErrInvalidName, name)
	}
	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: %q contains %U", ErrInvalidName, name, r)
		}
	}
	return nil
}

// NormalizeName returns name in NFC with surrounding space removed.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// DefaultName returns the production name conventionally used for a glyph
// mapped to r: "uniXXXX" in the BMP and "uXXXXX" beyond it.
func DefaultName(r rune) string {
	if r <= 0xFFFF {
		return fmt.Sprintf("uni%04X", r)
	}
	return fmt.Sprintf("u%05X", r)
}

// ParseUnicode accepts "U+0041", "0x41", bare hex "0041" or a single
// character "A" and returns the code point.
func ParseUnicode(s string) (rune, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("outline: empty code point")
	}
	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		if !isHexDigit(r) {
			return r, nil
		}
	}
	hex := s
	for _, prefix := range []string{"U+", "u+", "0x", "0X"} {
		hex = strings.TrimPrefix(hex, prefix)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || v > unicode.MaxRune {
		return 0, fmt.Errorf("outline: invalid code point %q", s)
	}
	return rune(v), nil
}

// FormatUnicode formats r as "U+XXXX".
func FormatUnicode(r rune) string {
	return fmt.Sprintf("U+%04X", r)
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
