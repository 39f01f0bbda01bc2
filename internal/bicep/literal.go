package bicep

import (
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// ParseLiteral interprets raw value text as a Bicep literal and returns its
// cty value. The second result is false when the text is not a plain
// literal: identifiers, function calls, property accesses, interpolated
// strings, arrays and objects all fail the check, because their runtime
// value cannot be proven without evaluation.
//
// Quote style is normalized: both '...' and "..." forms yield the same
// string value, so comparisons are insensitive to quoting.
func ParseLiteral(raw string) (cty.Value, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return cty.NilVal, false
	}
	switch s {
	case "true":
		return cty.True, true
	case "false":
		return cty.False, true
	case "null":
		return cty.NullVal(cty.DynamicPseudoType), true
	}
	if s[0] == '\'' || s[0] == '"' {
		return parseStringLiteral(s)
	}
	if s[0] == '-' || (s[0] >= '0' && s[0] <= '9') {
		v, err := cty.ParseNumberVal(s)
		if err != nil {
			return cty.NilVal, false
		}
		return v, true
	}
	return cty.NilVal, false
}

// parseStringLiteral unquotes a single- or double-quoted string with no
// interpolation. Interpolated strings are not literals.
func parseStringLiteral(s string) (cty.Value, bool) {
	quote := s[0]
	if len(s) < 2 || s[len(s)-1] != quote {
		return cty.NilVal, false
	}
	body := s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch c {
		case '\\':
			if i+1 >= len(body) {
				return cty.NilVal, false
			}
			i++
			switch body[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				// \', \", \\, \$ unescape to the character itself
				b.WriteByte(body[i])
			}
		case quote:
			// an unescaped quote inside the body means s was not a single literal
			return cty.NilVal, false
		case '$':
			if i+1 < len(body) && body[i+1] == '{' {
				return cty.NilVal, false
			}
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return cty.StringVal(b.String()), true
}

// FormatLiteral renders a cty value as Bicep literal text. Strings use
// single quotes, the idiomatic Bicep form. The second result is false for
// values with no literal representation (unknown, composite).
func FormatLiteral(v cty.Value) (string, bool) {
	if v == cty.NilVal || !v.IsKnown() {
		return "", false
	}
	if v.IsNull() {
		return "null", true
	}
	switch v.Type() {
	case cty.String:
		return quoteString(v.AsString()), true
	case cty.Bool:
		if v.True() {
			return "true", true
		}
		return "false", true
	case cty.Number:
		return v.AsBigFloat().Text('f', -1), true
	}
	return "", false
}

// quoteString wraps s in single quotes, escaping the characters Bicep
// requires.
func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '$':
			if i+1 < len(s) && s[i+1] == '{' {
				b.WriteString(`\$`)
			} else {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// LiteralEquals reports whether two raw value texts denote the same Bicep
// literal after normalizing quote style and surrounding whitespace. Either
// side failing the literal check makes the comparison false.
func LiteralEquals(a, b string) bool {
	av, ok := ParseLiteral(a)
	if !ok {
		return false
	}
	bv, ok := ParseLiteral(b)
	if !ok {
		return false
	}
	return av.RawEquals(bv)
}
