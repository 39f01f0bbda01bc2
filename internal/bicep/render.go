package bicep

import (
	"fmt"
	"sort"
	"strings"
)

// Edit is a single surgical replacement of a source span with new text.
// Deleting a span is an Edit with an empty NewText.
type Edit struct {
	Span    Span
	NewText string
}

// Render produces the output text for the document with the given edits
// applied. With no edits the original source is returned unchanged, byte for
// byte. Edits must lie within the source and must not overlap; they may be
// supplied in any order.
func (d *Document) Render(edits []Edit) (string, error) {
	if len(edits) == 0 {
		return d.Source, nil
	}
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Span.Start < sorted[j].Span.Start })

	var b strings.Builder
	pos := 0
	for _, e := range sorted {
		if e.Span.Start < pos || e.Span.End > len(d.Source) || e.Span.End < e.Span.Start {
			return "", fmt.Errorf("edit span [%d,%d) is out of order or out of bounds", e.Span.Start, e.Span.End)
		}
		b.WriteString(d.Source[pos:e.Span.Start])
		b.WriteString(e.NewText)
		pos = e.Span.End
	}
	b.WriteString(d.Source[pos:])
	return b.String(), nil
}
