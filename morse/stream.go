package morse

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var ErrInvalidSymbol = errors.New("invalid morse symbol")

// Sanitize strips whitespace from raw and checks that only dots and dashes remain.
func Sanitize(raw string) (string, error) {
	var b strings.Builder
	b.Grow(len(raw))
	for i, r := range raw {
		switch {
		case r == Dot || r == Dash:
			b.WriteRune(r)
		case unicode.IsSpace(r):
			continue
		default:
			return "", fmt.Errorf("%w %q at position %d", ErrInvalidSymbol, r, i)
		}
	}
	return b.String(), nil
}
