package optimize

// Action classifies what a rule did to a parameter.
type Action string

const (
	// ActionRemoved: the parameter restated the schema default and its line
	// was elided.
	ActionRemoved Action = "removed"
	// ActionSubstituted: the value was replaced with a cheaper cost tier.
	ActionSubstituted Action = "substituted"
	// ActionFlipped: an explicitly insecure value was corrected.
	ActionFlipped Action = "flipped"
	// ActionSkipped: the module is not in the registry and was passed
	// through untouched. This is the only use of the skipped action; a rule
	// quietly declining to reason about a value emits no diagnostic at all.
	ActionSkipped Action = "skipped"
)

// Diagnostic records one decision made during optimization.
type Diagnostic struct {
	Module    string // symbolic name of the module declaration
	Rule      string
	Param     string // empty for module-level diagnostics
	Action    Action
	Before    string // raw value text before the change, when applicable
	After     string // raw value text after the change, when applicable
	Rationale string
}
