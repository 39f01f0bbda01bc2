package optimize

import (
	"context"
	"fmt"

	"github.com/vk/avmopt/internal/avm"
	"github.com/vk/avmopt/internal/bicep"
	"github.com/vk/avmopt/internal/ctxlog"
)

// Optimizer applies the rule pipeline to templates against a fixed registry.
// It holds no per-call state: a single Optimizer is safe to use from
// concurrent goroutines on independent documents.
type Optimizer struct {
	registry *avm.Registry
}

// New creates an Optimizer backed by the given registry. The registry is
// passed in explicitly rather than looked up ambiently so callers control
// its lifecycle.
func New(registry *avm.Registry) *Optimizer {
	return &Optimizer{registry: registry}
}

// Optimize parses the template, runs every registry-known module through the
// rule pipeline, and renders the result. The input text is never partially
// rewritten: a parse failure fails the whole call, and modules the registry
// does not know come out byte-identical to their input spans.
func (o *Optimizer) Optimize(ctx context.Context, src string, cfg Config) (*Result, error) {
	logger := ctxlog.FromContext(ctx)
	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	doc, err := bicep.Parse(src)
	if err != nil {
		return nil, err
	}

	var diags []Diagnostic
	var edits []bicep.Edit
	for _, decl := range doc.Modules() {
		entry, ok := o.registry.Lookup(decl.Source)
		if !ok {
			logger.Debug("Module not in registry, passing through.", "module", decl.SymbolicName, "source", decl.Source)
			diags = append(diags, Diagnostic{
				Module:    decl.SymbolicName,
				Rule:      RuleRegistryLookup,
				Action:    ActionSkipped,
				Rationale: fmt.Sprintf("unknown module %s", decl.Source),
			})
			continue
		}

		st := newModuleState(decl)
		for _, rule := range pipeline {
			if !rule.AppliesWhen(cfg) {
				continue
			}
			diags = append(diags, rule.Apply(ctx, st, entry, cfg)...)
		}
		edits = append(edits, st.edits()...)
	}

	after, err := doc.Render(edits)
	if err != nil {
		return nil, fmt.Errorf("failed to render optimized template: %w", err)
	}
	logger.Debug("Optimization finished.", "modules", len(doc.Modules()), "diagnostics", len(diags))
	return newResult(src, after, diags), nil
}
