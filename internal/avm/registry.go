package avm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// ParamSchema describes a single parameter of a verified module.
type ParamSchema struct {
	Name        string
	Type        string
	Default     cty.Value // cty.NilVal when the schema declares no default
	Required    bool
	Description string
}

// HasDefault reports whether the schema declares a default value.
func (p *ParamSchema) HasDefault() bool { return p.Default != cty.NilVal }

// CostTier is one ranked option for a cost-sensitive parameter. Tier lists
// are ordered by ascending RelativeCost.
type CostTier struct {
	Value        cty.Value
	RelativeCost int
}

// SecurityRule maps a known-insecure parameter value to its secure
// replacement.
type SecurityRule struct {
	Param     string
	Insecure  cty.Value
	Secure    cty.Value
	Rationale string
}

// Entry is the full schema record for one verified module. Entries are
// immutable once the registry is built.
type Entry struct {
	ModuleID     string // canonical, version-agnostic path, e.g. avm/storage
	ResourceType string // optional ARM resource type, e.g. Microsoft.Storage/storageAccounts
	Params       []*ParamSchema
	CostTiers    map[string][]CostTier
	Rules        []*SecurityRule
}

// Param returns the schema for the named parameter, or nil.
func (e *Entry) Param(name string) *ParamSchema {
	for _, p := range e.Params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// SecurityRule returns the rule governing the named parameter, or nil.
func (e *Entry) SecurityRule(name string) *SecurityRule {
	for _, r := range e.Rules {
		if r.Param == name {
			return r
		}
	}
	return nil
}

// Registry is the read-only module catalog.
type Registry struct {
	entries    map[string]*Entry
	byResource map[string]*Entry
}

// NewRegistry validates the given entries and builds a registry from them.
// A duplicate module id, a duplicate parameter, a tier list that is not in
// ascending cost order, or a tier/rule referencing an unknown parameter is a
// load error; the engine must not start with a malformed catalog.
func NewRegistry(entries []*Entry) (*Registry, error) {
	reg := &Registry{
		entries:    make(map[string]*Entry, len(entries)),
		byResource: make(map[string]*Entry),
	}
	var errs []string
	for _, e := range entries {
		id := CanonicalModuleID(e.ModuleID)
		if id == "" {
			errs = append(errs, "entry with empty module id")
			continue
		}
		if _, dup := reg.entries[id]; dup {
			errs = append(errs, fmt.Sprintf("duplicate module id %q", id))
			continue
		}
		if err := validateEntry(e); err != nil {
			errs = append(errs, fmt.Sprintf("module %q: %v", id, err))
			continue
		}
		e.ModuleID = id
		reg.entries[id] = e
		if e.ResourceType != "" {
			reg.byResource[strings.ToLower(e.ResourceType)] = e
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("registry load failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return reg, nil
}

// validateEntry checks the internal consistency of a single entry.
func validateEntry(e *Entry) error {
	seen := make(map[string]struct{}, len(e.Params))
	for _, p := range e.Params {
		if p.Name == "" {
			return errors.New("parameter with empty name")
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("duplicate parameter %q", p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	for param, tiers := range e.CostTiers {
		if _, ok := seen[param]; !ok {
			return fmt.Errorf("cost tiers reference unknown parameter %q", param)
		}
		if len(tiers) == 0 {
			return fmt.Errorf("parameter %q has an empty cost tier list", param)
		}
		for i := 1; i < len(tiers); i++ {
			if tiers[i].RelativeCost < tiers[i-1].RelativeCost {
				return fmt.Errorf("cost tiers for %q are not in ascending cost order", param)
			}
		}
	}
	ruleSeen := make(map[string]struct{}, len(e.Rules))
	for _, r := range e.Rules {
		if _, ok := seen[r.Param]; !ok {
			return fmt.Errorf("security rule references unknown parameter %q", r.Param)
		}
		if _, dup := ruleSeen[r.Param]; dup {
			return fmt.Errorf("duplicate security rule for parameter %q", r.Param)
		}
		ruleSeen[r.Param] = struct{}{}
		if r.Insecure == cty.NilVal || r.Secure == cty.NilVal {
			return fmt.Errorf("security rule for %q is missing a value", r.Param)
		}
	}
	return nil
}

// CanonicalModuleID reduces a raw module reference to its version-agnostic
// catalog key: the `br:` registry scheme (with any alias) and a trailing
// `:version` or `:tag` suffix are stripped.
//
//	br:avm/storage:latest  -> avm/storage
//	avm/storage:1.2.3      -> avm/storage
//	avm/storage            -> avm/storage
func CanonicalModuleID(source string) string {
	s := strings.TrimSpace(source)
	if i := strings.Index(s, ":"); i >= 0 {
		scheme := s[:i]
		if scheme == "br" || strings.HasPrefix(scheme, "br/") {
			s = s[i+1:]
		}
	}
	if j := strings.LastIndex(s, ":"); j >= 0 {
		s = s[:j]
	}
	return s
}

// Lookup resolves a raw module source reference to its catalog entry. The
// second result is false for modules the catalog does not know; callers
// treat that as "pass through untouched", never as an error.
func (r *Registry) Lookup(source string) (*Entry, bool) {
	e, ok := r.entries[CanonicalModuleID(source)]
	return e, ok
}

// Resolve maps an ARM resource type (e.g. Microsoft.Web/sites) to the
// verified module that provisions it, if the catalog records one.
func (r *Registry) Resolve(resourceType string) (*Entry, bool) {
	e, ok := r.byResource[strings.ToLower(resourceType)]
	return e, ok
}

// Default returns the schema default for a module parameter.
func (r *Registry) Default(moduleID, param string) (cty.Value, bool) {
	e, ok := r.entries[CanonicalModuleID(moduleID)]
	if !ok {
		return cty.NilVal, false
	}
	p := e.Param(param)
	if p == nil || !p.HasDefault() {
		return cty.NilVal, false
	}
	return p.Default, true
}

// CostTierOrdering returns the ascending-cost tier list for a module
// parameter.
func (r *Registry) CostTierOrdering(moduleID, param string) ([]CostTier, bool) {
	e, ok := r.entries[CanonicalModuleID(moduleID)]
	if !ok {
		return nil, false
	}
	tiers, ok := e.CostTiers[param]
	return tiers, ok
}

// SecurityRule returns the security rule governing a module parameter.
func (r *Registry) SecurityRule(moduleID, param string) (*SecurityRule, bool) {
	e, ok := r.entries[CanonicalModuleID(moduleID)]
	if !ok {
		return nil, false
	}
	rule := e.SecurityRule(param)
	return rule, rule != nil
}

// Len returns the number of catalog entries.
func (r *Registry) Len() int { return len(r.entries) }
