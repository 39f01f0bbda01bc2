package bicep

import (
	"fmt"
	"regexp"
	"strings"
)

// moduleHeaderRE matches a module declaration header at the start of a line:
// `module <symbolicName> '<moduleSource>' = {`.
var moduleHeaderRE = regexp.MustCompile(`(?m)^[ \t]*module[ \t]+([A-Za-z_][A-Za-z0-9_]*)[ \t]+'([^'\r\n]+)'[ \t]*=[ \t]*\{`)

// Parse scans raw template text into a Document. Regions outside module
// declarations are captured as opaque literals. Any structural problem in a
// module block (unbalanced braces, unterminated string, malformed property)
// fails the whole parse.
func Parse(src string) (*Document, error) {
	doc := &Document{Source: src}
	pos := 0
	for pos < len(src) {
		loc := nextModuleHeader(src, pos)
		if loc == nil {
			break
		}
		start := loc[0]
		open := loc[1] - 1 // the header pattern ends at '{'
		symbolic := src[loc[2]:loc[3]]
		source := src[loc[4]:loc[5]]

		end, err := scanBlock(src, open)
		if err != nil {
			return nil, err
		}
		decl, err := parseModuleBody(src, symbolic, source, open, end)
		if err != nil {
			return nil, err
		}
		decl.Loc = Span{Start: start, End: end}

		if start > pos {
			doc.Nodes = append(doc.Nodes, &Literal{Text: src[pos:start], Loc: Span{Start: pos, End: start}})
		}
		doc.Nodes = append(doc.Nodes, &ModuleBlock{Decl: decl})
		pos = end
	}
	if pos < len(src) {
		doc.Nodes = append(doc.Nodes, &Literal{Text: src[pos:], Loc: Span{Start: pos, End: len(src)}})
	}
	return doc, nil
}

// nextModuleHeader finds the next module declaration header at or after pos,
// ignoring matches inside comments and string literals. Commented-out
// declarations are opaque text the optimizer must not touch. The returned
// submatch offsets are absolute; nil means no further declaration.
func nextModuleHeader(src string, pos int) []int {
	for pos < len(src) {
		loc := moduleHeaderRE.FindStringSubmatchIndex(src[pos:])
		if loc == nil {
			return nil
		}
		matchStart := pos + loc[0]

		// Walk the gap before the match. A comment or string opened in the
		// gap may run past matchStart and swallow the candidate.
		i := pos
		for i < matchStart {
			switch {
			case src[i] == '/' && i+1 < len(src) && src[i+1] == '/':
				for i < len(src) && src[i] != '\n' {
					i++
				}
			case src[i] == '/' && i+1 < len(src) && src[i+1] == '*':
				end, err := skipBlockComment(src, i)
				if err != nil {
					// Unterminated comment swallows the rest of the input.
					return nil
				}
				i = end
			case src[i] == '\'' || src[i] == '"':
				i = skipInlineString(src, i)
			default:
				i++
			}
		}
		if i == matchStart {
			abs := make([]int, len(loc))
			for k, v := range loc {
				abs[k] = v
				if v >= 0 {
					abs[k] = pos + v
				}
			}
			return abs
		}
		pos = i
	}
	return nil
}

// skipInlineString advances past a quoted string without leaving its line.
// Strings in the literal regions between modules are not validated here;
// an unterminated one simply runs to the end of its line.
func skipInlineString(src string, i int) int {
	quote := src[i]
	i++
	for i < len(src) && src[i] != '\n' {
		if src[i] == '\\' {
			i += 2
			continue
		}
		if src[i] == quote {
			return i + 1
		}
		i++
	}
	return i
}

// parseModuleBody extracts the name expression and params entries from a
// module block whose braces span [open, end).
func parseModuleBody(src, symbolic, source string, open, end int) (*ModuleDecl, error) {
	decl := &ModuleDecl{SymbolicName: symbolic, Source: source}
	entries, err := parseObjectEntries(src, open, end-1)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		switch e.key {
		case "name":
			decl.NameExpression = src[e.valStart:e.valEnd]
		case "params":
			if e.valStart >= len(src) || src[e.valStart] != '{' {
				return nil, newParseError(src, e.valStart, fmt.Sprintf("module %q: params must be an object", symbolic))
			}
			pend, err := scanBlock(src, e.valStart)
			if err != nil {
				return nil, err
			}
			sub, err := parseObjectEntries(src, e.valStart, pend-1)
			if err != nil {
				return nil, err
			}
			for _, pe := range sub {
				p := &Param{
					Name:      pe.key,
					RawValue:  src[pe.valStart:pe.valEnd],
					ValueSpan: Span{Start: pe.valStart, End: pe.valEnd},
					EntrySpan: Span{Start: pe.entryStart, End: pe.entryEnd},
				}
				if pe.commentStart >= 0 {
					p.Comment = strings.TrimRight(src[pe.commentStart:pe.term], "\r")
				}
				decl.Params = append(decl.Params, p)
			}
		}
	}
	return decl, nil
}

// rawEntry is one `key: value` pair located during object scanning. All
// fields are byte offsets into the source.
//
// entryStart/entryEnd bound the text whose deletion removes the entry
// without disturbing anything else. For an entry alone on its line that is
// the whole line including the newline; for an entry sharing its line with
// other tokens (an inline object, or a closing brace trailing the value) it
// is the entry text itself, extended back over the spaces before the key.
type rawEntry struct {
	key          string
	keyStart     int
	valStart     int
	valEnd       int
	commentStart int // -1 when the entry has no trailing comment
	term         int // end of the entry's last line, newline excluded
	entryStart   int
	entryEnd     int
}

// parseObjectEntries splits the top-level `key: value` pairs of the object
// whose braces are at src[open] and src[close]. Values are located with the
// nesting-aware scanner and left as raw text.
func parseObjectEntries(src string, open, close int) ([]rawEntry, error) {
	var entries []rawEntry
	i := open + 1
	for i < close {
		c := src[i]
		switch {
		case isHSpace(c) || c == '\n':
			i++
		case c == '/' && i+1 < close && src[i+1] == '/':
			for i < close && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < close && src[i+1] == '*':
			end, err := skipBlockComment(src, i)
			if err != nil {
				return nil, err
			}
			i = end
		case isIdentStart(c):
			e, next, err := parseEntry(src, i, close)
			if err != nil {
				return nil, err
			}
			entries = append(entries, e)
			i = next
		default:
			return nil, newParseError(src, i, fmt.Sprintf("expected a property name, found %q", string(c)))
		}
	}
	return entries, nil
}

// parseEntry reads a single `key: value` pair whose key starts at src[i].
func parseEntry(src string, i, close int) (rawEntry, int, error) {
	keyStart := i
	for i < close && isIdentPart(src[i]) {
		i++
	}
	key := src[keyStart:i]
	for i < close && isHSpace(src[i]) {
		i++
	}
	if i >= close || src[i] != ':' {
		return rawEntry{}, 0, newParseError(src, i, fmt.Sprintf("expected ':' after property %q", key))
	}
	i++
	for i < close && isHSpace(src[i]) {
		i++
	}
	if i >= close || src[i] == '\n' {
		return rawEntry{}, 0, newParseError(src, i, fmt.Sprintf("property %q has no value", key))
	}

	valStart := i
	valEnd, commentStart, term, err := scanValue(src, valStart, close)
	if err != nil {
		return rawEntry{}, 0, err
	}

	next := term
	if src[term] == '\n' {
		next = term + 1
	}

	ls := lineStart(src, keyStart)
	alone := src[term] == '\n'
	for j := ls; alone && j < keyStart; j++ {
		if !isHSpace(src[j]) {
			alone = false
		}
	}

	entryStart, entryEnd := ls, next
	if !alone {
		// The line carries other tokens (an enclosing brace, or text before
		// the key). Deleting the whole line would corrupt them, so the span
		// covers only the entry itself.
		entryStart = keyStart
		for entryStart > ls && isHSpace(src[entryStart-1]) {
			entryStart--
		}
		entryEnd = valEnd
		if commentStart >= 0 {
			entryEnd = term
		}
	}
	return rawEntry{
		key:          key,
		keyStart:     keyStart,
		valStart:     valStart,
		valEnd:       valEnd,
		commentStart: commentStart,
		term:         term,
		entryStart:   entryStart,
		entryEnd:     entryEnd,
	}, next, nil
}

// lineStart returns the offset of the first byte of the line containing pos.
func lineStart(src string, pos int) int {
	i := pos
	for i > 0 && src[i-1] != '\n' {
		i--
	}
	return i
}
