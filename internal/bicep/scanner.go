package bicep

import "fmt"

// maxNestingDepth is the hard ceiling on nested braces, brackets, strings and
// interpolations. It bounds scanning cost on malformed or adversarial input.
const maxNestingDepth = 64

// ParseError reports a scanning failure with its position in the input.
// Any ParseError fails the entire parse; the caller's text is never
// partially interpreted.
type ParseError struct {
	Offset int
	Line   int
	Column int
	Msg    string
}

// Error implements the error interface for ParseError.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Msg)
}

// newParseError builds a ParseError, resolving the byte offset to a
// 1-based line and column.
func newParseError(src string, offset int, msg string) *ParseError {
	line, col := 1, 1
	for i := 0; i < offset && i < len(src); i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return &ParseError{Offset: offset, Line: line, Column: col, Msg: msg}
}

// scanMode identifies what kind of region the scanner is currently inside.
type scanMode uint8

const (
	modeBlock  scanMode = iota // inside { }, [ ] or ( )
	modeInterp                 // inside a ${ } interpolation within a string
	modeSingle                 // inside a '...' string literal
	modeDouble                 // inside a "..." string literal
)

// scanFrame is one level of the scanner's mode stack.
type scanFrame struct {
	mode   scanMode
	closer byte
}

// closerFor maps an opening bracket to its closing counterpart.
func closerFor(open byte) byte {
	switch open {
	case '{':
		return '}'
	case '[':
		return ']'
	default:
		return ')'
	}
}

// isHSpace reports whether c is horizontal whitespace.
func isHSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r'
}

// isIdentStart and isIdentPart follow Bicep's identifier rules.
func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// scanBlock finds the end of the block opened by the brace at src[open].
// It returns the offset just past the matching closing brace.
//
// Braces inside string literals do not affect depth, and a `${` opener
// inside a string switches to interpolation mode until its matching `}`
// drops the scanner back into the string.
func scanBlock(src string, open int) (int, error) {
	stack := []scanFrame{{modeBlock, '}'}}
	i := open + 1
	for i < len(src) {
		c := src[i]
		top := stack[len(stack)-1]
		switch top.mode {
		case modeBlock, modeInterp:
			switch c {
			case '\'':
				stack = append(stack, scanFrame{modeSingle, '\''})
			case '"':
				stack = append(stack, scanFrame{modeDouble, '"'})
			case '{', '[', '(':
				stack = append(stack, scanFrame{modeBlock, closerFor(c)})
			case '}', ']', ')':
				if c != top.closer {
					return 0, newParseError(src, i, fmt.Sprintf("unexpected %q, expected %q", string(c), string(top.closer)))
				}
				stack = stack[:len(stack)-1]
				if len(stack) == 0 {
					return i + 1, nil
				}
			case '/':
				if i+1 < len(src) && src[i+1] == '/' {
					for i < len(src) && src[i] != '\n' {
						i++
					}
					continue
				}
				if i+1 < len(src) && src[i+1] == '*' {
					end, err := skipBlockComment(src, i)
					if err != nil {
						return 0, err
					}
					i = end
					continue
				}
			}
		case modeSingle, modeDouble:
			switch c {
			case '\\':
				i += 2 // escape sequence, skip the escaped byte
				continue
			case top.closer:
				stack = stack[:len(stack)-1]
			case '$':
				if i+1 < len(src) && src[i+1] == '{' {
					stack = append(stack, scanFrame{modeInterp, '}'})
					i += 2
					continue
				}
			}
		}
		if len(stack) > maxNestingDepth {
			return 0, newParseError(src, i, fmt.Sprintf("nesting exceeds the maximum depth of %d", maxNestingDepth))
		}
		i++
	}
	return 0, newParseError(src, len(src), "unbalanced braces or unterminated string at end of input")
}

// skipBlockComment advances past a /* ... */ comment starting at src[i].
func skipBlockComment(src string, i int) (int, error) {
	j := i + 2
	for j+1 < len(src) {
		if src[j] == '*' && src[j+1] == '/' {
			return j + 2, nil
		}
		j++
	}
	return 0, newParseError(src, i, "unterminated block comment")
}

// scanValue scans a property value starting at src[start] and bounded by
// limit (the offset of the enclosing object's closing brace). The value ends
// at the first newline, line comment, or enclosing closer found at nesting
// depth zero; nested objects, arrays, call parentheses, strings and
// interpolations are skipped as opaque regions.
//
// It returns the value's end offset (trailing whitespace excluded), the
// offset of a trailing same-line comment (-1 if none), and the offset at
// which the entry terminates (a newline or the enclosing closer).
func scanValue(src string, start, limit int) (valEnd, commentStart, term int, err error) {
	var stack []scanFrame
	valEnd = start
	i := start
	for i < limit {
		c := src[i]
		if len(stack) == 0 {
			switch {
			case c == '\n':
				return valEnd, -1, i, nil
			case c == '/' && i+1 < limit && src[i+1] == '/':
				j := i
				for j < limit && src[j] != '\n' {
					j++
				}
				return valEnd, i, j, nil
			case c == '}' || c == ']' || c == ')':
				return valEnd, -1, i, nil
			case c == '\'':
				stack = append(stack, scanFrame{modeSingle, '\''})
			case c == '"':
				stack = append(stack, scanFrame{modeDouble, '"'})
			case c == '{' || c == '[' || c == '(':
				stack = append(stack, scanFrame{modeBlock, closerFor(c)})
			}
			if !isHSpace(c) {
				valEnd = i + 1
			}
			i++
			continue
		}
		top := stack[len(stack)-1]
		switch top.mode {
		case modeBlock, modeInterp:
			switch c {
			case '\'':
				stack = append(stack, scanFrame{modeSingle, '\''})
			case '"':
				stack = append(stack, scanFrame{modeDouble, '"'})
			case '{', '[', '(':
				stack = append(stack, scanFrame{modeBlock, closerFor(c)})
			case '}', ']', ')':
				if c != top.closer {
					return 0, -1, 0, newParseError(src, i, fmt.Sprintf("unexpected %q, expected %q", string(c), string(top.closer)))
				}
				stack = stack[:len(stack)-1]
			case '/':
				if i+1 < limit && src[i+1] == '/' {
					for i < limit && src[i] != '\n' {
						i++
					}
					continue
				}
				if i+1 < limit && src[i+1] == '*' {
					end, cerr := skipBlockComment(src, i)
					if cerr != nil {
						return 0, -1, 0, cerr
					}
					i = end
					valEnd = i
					continue
				}
			}
		case modeSingle, modeDouble:
			switch c {
			case '\\':
				i += 2
				valEnd = i
				continue
			case top.closer:
				stack = stack[:len(stack)-1]
			case '$':
				if i+1 < limit && src[i+1] == '{' {
					stack = append(stack, scanFrame{modeInterp, '}'})
					i += 2
					valEnd = i
					continue
				}
			}
		}
		if len(stack) > maxNestingDepth {
			return 0, -1, 0, newParseError(src, i, fmt.Sprintf("nesting exceeds the maximum depth of %d", maxNestingDepth))
		}
		valEnd = i + 1
		i++
	}
	if len(stack) > 0 {
		return 0, -1, 0, newParseError(src, limit, "unterminated value at end of block")
	}
	return valEnd, -1, limit, nil
}
