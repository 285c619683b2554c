package parser

import (
	"fmt"
	"strings"
)

// maxInputLen is the hard ceiling on raw input length. Anything longer is
// rejected before tokenization so pathological inputs cost almost nothing.
const maxInputLen = 256

// normalize trims the raw input, collapses whitespace runs to single
// spaces, and rejects oversize input or characters outside the permitted
// set. Case is preserved: the command verb is matched case-sensitively.
func normalize(raw string) (string, *Error) {
	if len(raw) > maxInputLen {
		return "", &Error{
			Kind:    KindSyntax,
			Field:   "input",
			Message: fmt.Sprintf("input exceeds %d characters", maxInputLen),
		}
	}

	var b strings.Builder
	b.Grow(len(raw))
	pendingSpace := false
	for _, r := range raw {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if b.Len() > 0 {
				pendingSpace = true
			}
		case allowedRune(r):
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		default:
			// Non-ASCII look-alikes (unicode percent signs, fullwidth
			// digits, currency symbols) fail here instead of misparsing.
			return "", &Error{
				Kind:    KindSyntax,
				Field:   "input",
				Message: fmt.Sprintf("disallowed character %q", r),
			}
		}
	}
	return b.String(), nil
}

// allowedRune reports whether r is in the permitted input alphabet:
// ASCII letters, digits, and the punctuation the grammar uses.
func allowedRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '/' || r == '.' || r == '%' || r == '=' || r == '-':
		return true
	}
	return false
}

// tokenize splits normalized input into its ordered tokens. The returned
// slice is a plain multi-pass view: every extractor scans it independently
// without consuming it.
func tokenize(normalized string) []string {
	return strings.Fields(normalized)
}
