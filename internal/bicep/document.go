package bicep

// Span is a half-open byte range [Start, End) into the original source text.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int { return s.End - s.Start }

// Node is a region of the parsed document. Nodes cover the entire input in
// order, with no gaps and no overlaps.
type Node interface {
	Span() Span
}

// Literal is a stretch of source text the parser does not interpret.
type Literal struct {
	Text string
	Loc  Span
}

// Span implements Node.
func (l *Literal) Span() Span { return l.Loc }

// Param is a single `key: value` entry inside a module's params block.
// The raw value text and any trailing same-line comment are preserved
// verbatim so the entry can round-trip unchanged.
type Param struct {
	Name     string
	RawValue string // value text exactly as written, no surrounding whitespace
	Comment  string // trailing same-line comment including "//", or empty

	// ValueSpan covers exactly the raw value text; replacing it rewrites the
	// value in place. EntrySpan covers the whole entry line from the leading
	// indentation through the trailing newline (comment included); deleting
	// it removes the entry without disturbing its neighbours.
	ValueSpan Span
	EntrySpan Span
}

// ModuleDecl is one parsed module declaration.
type ModuleDecl struct {
	SymbolicName   string
	Source         string // raw module reference, e.g. br:avm/storage:latest
	NameExpression string // raw text of the name: property, untouched
	Params         []*Param
	Loc            Span // the whole declaration, header through closing brace
}

// Param returns the named params entry, or nil if the module does not
// declare it.
func (m *ModuleDecl) Param(name string) *Param {
	for _, p := range m.Params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// ModuleBlock wraps a ModuleDecl as a document node.
type ModuleBlock struct {
	Decl *ModuleDecl
}

// Span implements Node.
func (b *ModuleBlock) Span() Span { return b.Decl.Loc }

// Document is the parsed form of a template: the original source plus an
// ordered node sequence covering it completely.
type Document struct {
	Source string
	Nodes  []Node
}

// Modules returns the module declarations in document order.
func (d *Document) Modules() []*ModuleDecl {
	var decls []*ModuleDecl
	for _, n := range d.Nodes {
		if b, ok := n.(*ModuleBlock); ok {
			decls = append(decls, b.Decl)
		}
	}
	return decls
}
