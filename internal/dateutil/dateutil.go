// Package dateutil formats dates from user-friendly patterns such as
// "YYYYMMDD" or "YYYY [Line Card]". Patterns drive the output filename and
// the document title, both configurable in linecard.yaml.
package dateutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDateFormat indicates an invalid date pattern.
var ErrInvalidDateFormat = errors.New("invalid date format")

// MaxPatternLength limits pattern length.
const MaxPatternLength = 80

// Default patterns.
const (
	DefaultFilenamePattern = "[_Linecard_]YYYYMMDD"
	DefaultTitlePattern    = "YYYY [Line Card]"
)

// tokens are matched longest first so "YYYY" wins over "YY".
var tokens = []struct {
	token  string
	render func(time.Time) string
}{
	{"YYYY", func(t time.Time) string { return fmt.Sprintf("%04d", t.Year()) }},
	{"MMMM", func(t time.Time) string { return t.Month().String() }},
	{"MMM", func(t time.Time) string { return t.Month().String()[:3] }},
	{"YY", func(t time.Time) string { return fmt.Sprintf("%02d", t.Year()%100) }},
	{"MM", func(t time.Time) string { return fmt.Sprintf("%02d", int(t.Month())) }},
	{"DD", func(t time.Time) string { return fmt.Sprintf("%02d", t.Day()) }},
	{"M", func(t time.Time) string { return strconv.Itoa(int(t.Month())) }},
	{"D", func(t time.Time) string { return strconv.Itoa(t.Day()) }},
}

// Validate checks pattern syntax without formatting.
func Validate(pattern string) error {
	_, err := Format(pattern, time.Time{})
	return err
}

// Format renders t with pattern.
// Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D. Text inside [brackets] is
// copied literally; any other character passes through unchanged.
func Format(pattern string, t time.Time) (string, error) {
	if pattern == "" {
		return "", fmt.Errorf("%w: pattern cannot be empty", ErrInvalidDateFormat)
	}
	if len(pattern) > MaxPatternLength {
		return "", fmt.Errorf("%w: pattern exceeds %d characters", ErrInvalidDateFormat, MaxPatternLength)
	}

	var b strings.Builder
	b.Grow(len(pattern) + 8)

	rest := pattern
	for rest != "" {
		if rest[0] == '[' {
			end := strings.IndexByte(rest, ']')
			if end == -1 {
				return "", fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidDateFormat, len(pattern)-len(rest))
			}
			b.WriteString(rest[1:end])
			rest = rest[end+1:]
			continue
		}
		if out, n := matchToken(rest, t); n > 0 {
			b.WriteString(out)
			rest = rest[n:]
			continue
		}
		b.WriteByte(rest[0])
		rest = rest[1:]
	}
	return b.String(), nil
}

func matchToken(s string, t time.Time) (string, int) {
	for _, tok := range tokens {
		if strings.HasPrefix(s, tok.token) {
			return tok.render(t), len(tok.token)
		}
	}
	return "", 0
}
