package optimize

import (
	"context"
	"fmt"

	"github.com/vk/avmopt/internal/avm"
	"github.com/vk/avmopt/internal/bicep"
	"github.com/vk/avmopt/internal/ctxlog"
)

// Rule names as they appear in diagnostics.
const (
	RuleSecurityHardening = "security-hardening"
	RuleCostOptimization  = "cost-optimization"
	RuleDefaultElision    = "default-elision"
	RuleRegistryLookup    = "registry-lookup"
)

// Rule is one rewrite pass over a module declaration. Rules are plain
// records in a fixed ordered list; there is no dynamic dispatch beyond the
// function fields.
type Rule struct {
	Name        string
	AppliesWhen func(Config) bool
	Apply       func(ctx context.Context, m *moduleState, entry *avm.Entry, cfg Config) []Diagnostic
}

// pipeline is the fixed execution order. Hardening and cost substitution may
// turn a value into the schema default, so elision runs last and judges the
// final value.
var pipeline = []Rule{
	{
		Name:        RuleSecurityHardening,
		AppliesWhen: func(c Config) bool { return c.SecurityFocus },
		Apply:       applySecurityHardening,
	},
	{
		Name:        RuleCostOptimization,
		AppliesWhen: func(c Config) bool { return c.CostOptimization },
		Apply:       applyCostOptimization,
	},
	{
		Name:        RuleDefaultElision,
		AppliesWhen: func(Config) bool { return true },
		Apply:       applyDefaultElision,
	},
}

// paramState tracks one declared parameter through the pipeline. current
// starts as the declared raw text and follows each rewrite, so later rules
// always see the latest value.
type paramState struct {
	src     *bicep.Param
	current string
	removed bool
}

// moduleState is the mutable working view of one module declaration during
// a single optimization call.
type moduleState struct {
	decl   *bicep.ModuleDecl
	params []*paramState
}

func newModuleState(decl *bicep.ModuleDecl) *moduleState {
	st := &moduleState{decl: decl}
	for _, p := range decl.Params {
		st.params = append(st.params, &paramState{src: p, current: p.RawValue})
	}
	return st
}

// lookup returns the state for the named parameter, or nil if the module
// does not declare it. Rules never add parameters: a missing entry inherits
// the registry default, which is not this engine's concern.
func (m *moduleState) lookup(name string) *paramState {
	for _, ps := range m.params {
		if ps.src.Name == name {
			return ps
		}
	}
	return nil
}

// edits materializes the accumulated parameter changes as span edits.
// Removal wins over an earlier in-place rewrite of the same parameter.
func (m *moduleState) edits() []bicep.Edit {
	var edits []bicep.Edit
	for _, ps := range m.params {
		switch {
		case ps.removed:
			edits = append(edits, bicep.Edit{Span: ps.src.EntrySpan})
		case ps.current != ps.src.RawValue:
			edits = append(edits, bicep.Edit{Span: ps.src.ValueSpan, NewText: ps.current})
		}
	}
	return edits
}

// applySecurityHardening replaces declared values that literally equal a
// registry security rule's insecure value with the secure one.
func applySecurityHardening(ctx context.Context, m *moduleState, entry *avm.Entry, cfg Config) []Diagnostic {
	logger := ctxlog.FromContext(ctx)
	var diags []Diagnostic
	for _, rule := range entry.Rules {
		ps := m.lookup(rule.Param)
		if ps == nil || ps.removed {
			continue
		}
		v, ok := bicep.ParseLiteral(ps.current)
		if !ok {
			// Non-literal value: equivalence cannot be proven, leave it alone.
			continue
		}
		if !v.RawEquals(rule.Insecure) {
			continue
		}
		secure, ok := bicep.FormatLiteral(rule.Secure)
		if !ok {
			continue
		}
		before := ps.current
		ps.current = secure
		logger.Debug("Hardened insecure parameter value.", "module", m.decl.SymbolicName, "param", rule.Param)
		diags = append(diags, Diagnostic{
			Module:    m.decl.SymbolicName,
			Rule:      RuleSecurityHardening,
			Param:     rule.Param,
			Action:    ActionFlipped,
			Before:    before,
			After:     secure,
			Rationale: rule.Rationale,
		})
	}
	return diags
}

// applyCostOptimization moves cost-tiered parameters to the cheapest tier.
// Tier lists are validated ascending, so the first tier is the cheapest and,
// among equal-cost tiers, the first in registry-declared order.
func applyCostOptimization(ctx context.Context, m *moduleState, entry *avm.Entry, cfg Config) []Diagnostic {
	logger := ctxlog.FromContext(ctx)
	var diags []Diagnostic
	for _, ps := range m.params {
		if ps.removed {
			continue
		}
		tiers, ok := entry.CostTiers[ps.src.Name]
		if !ok {
			continue
		}
		v, ok := bicep.ParseLiteral(ps.current)
		if !ok {
			continue
		}
		declaredCost := -1
		for _, t := range tiers {
			if v.RawEquals(t.Value) {
				declaredCost = t.RelativeCost
				break
			}
		}
		if declaredCost < 0 {
			// Value is not one of the known tiers; nothing safe to say.
			continue
		}
		cheapest := tiers[0]
		if declaredCost <= cheapest.RelativeCost {
			continue
		}
		after, ok := bicep.FormatLiteral(cheapest.Value)
		if !ok {
			continue
		}
		before := ps.current
		ps.current = after
		logger.Debug("Substituted cheaper cost tier.", "module", m.decl.SymbolicName, "param", ps.src.Name, "cost", declaredCost, "new_cost", cheapest.RelativeCost)
		diags = append(diags, Diagnostic{
			Module:    m.decl.SymbolicName,
			Rule:      RuleCostOptimization,
			Param:     ps.src.Name,
			Action:    ActionSubstituted,
			Before:    before,
			After:     after,
			Rationale: fmt.Sprintf("cheapest tier for the %s environment (relative cost %d -> %d)", cfg.Environment, declaredCost, cheapest.RelativeCost),
		})
	}
	return diags
}

// applyDefaultElision removes non-required parameters whose final value is a
// literal equal to the schema default.
func applyDefaultElision(ctx context.Context, m *moduleState, entry *avm.Entry, cfg Config) []Diagnostic {
	logger := ctxlog.FromContext(ctx)
	var diags []Diagnostic
	for _, ps := range m.params {
		if ps.removed {
			continue
		}
		schema := entry.Param(ps.src.Name)
		if schema == nil || schema.Required || !schema.HasDefault() {
			continue
		}
		v, ok := bicep.ParseLiteral(ps.current)
		if !ok {
			continue
		}
		if !v.RawEquals(schema.Default) {
			continue
		}
		ps.removed = true
		logger.Debug("Elided parameter restating the schema default.", "module", m.decl.SymbolicName, "param", ps.src.Name)
		diags = append(diags, Diagnostic{
			Module:    m.decl.SymbolicName,
			Rule:      RuleDefaultElision,
			Param:     ps.src.Name,
			Action:    ActionRemoved,
			Before:    ps.current,
			Rationale: "value restates the schema default",
		})
	}
	return diags
}
