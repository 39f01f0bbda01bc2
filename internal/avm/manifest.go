package avm

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/avmopt/internal/ctxlog"
	"github.com/vk/avmopt/internal/fsutil"
)

// manifestFile is the top-level HCL structure of a registry manifest.
type manifestFile struct {
	Modules []*moduleManifest `hcl:"module,block"`
}

// moduleManifest is one `module "<id>" { ... }` block.
type moduleManifest struct {
	ID            string              `hcl:"id,label"`
	ResourceType  string              `hcl:"resource_type,optional"`
	Params        []*paramManifest    `hcl:"param,block"`
	CostTiers     []*costTierManifest `hcl:"cost_tiers,block"`
	SecurityRules []*ruleManifest     `hcl:"security_rule,block"`
}

// paramManifest is one `param "<name>" { ... }` block.
type paramManifest struct {
	Name        string     `hcl:"name,label"`
	Type        string     `hcl:"type"`
	Default     *cty.Value `hcl:"default,optional"`
	Required    bool       `hcl:"required,optional"`
	Description string     `hcl:"description,optional"`
}

// costTierManifest is one `cost_tiers "<param>" { ... }` block. Tiers are
// listed cheapest first.
type costTierManifest struct {
	Param string          `hcl:"param,label"`
	Tiers []*tierManifest `hcl:"tier,block"`
}

type tierManifest struct {
	Value        cty.Value `hcl:"value"`
	RelativeCost int       `hcl:"relative_cost"`
}

// ruleManifest is one `security_rule "<param>" { ... }` block.
type ruleManifest struct {
	Param     string    `hcl:"param,label"`
	Insecure  cty.Value `hcl:"insecure"`
	Secure    cty.Value `hcl:"secure"`
	Rationale string    `hcl:"rationale"`
}

// DecodeManifest parses one HCL manifest and converts its module blocks into
// registry entries. The filename is used only for diagnostics.
func DecodeManifest(filename string, src []byte) ([]*Entry, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse registry manifest %s: %s", filename, diags.Error())
	}

	var mf manifestFile
	diags = gohcl.DecodeBody(file.Body, nil, &mf)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode registry manifest %s: %s", filename, diags.Error())
	}

	entries := make([]*Entry, 0, len(mf.Modules))
	for _, m := range mf.Modules {
		e, err := m.toEntry()
		if err != nil {
			return nil, fmt.Errorf("manifest %s: %w", filename, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// toEntry converts a decoded manifest block into an Entry, rejecting value
// shapes the optimizer cannot compare as literals.
func (m *moduleManifest) toEntry() (*Entry, error) {
	e := &Entry{
		ModuleID:     m.ID,
		ResourceType: m.ResourceType,
	}
	for _, p := range m.Params {
		def := cty.NilVal
		if p.Default != nil {
			if !isPrimitive(*p.Default) {
				return nil, fmt.Errorf("module %q: param %q: default must be a string, bool or number", m.ID, p.Name)
			}
			def = *p.Default
		}
		e.Params = append(e.Params, &ParamSchema{
			Name:        p.Name,
			Type:        p.Type,
			Default:     def,
			Required:    p.Required,
			Description: p.Description,
		})
	}
	if len(m.CostTiers) > 0 {
		e.CostTiers = make(map[string][]CostTier, len(m.CostTiers))
	}
	for _, ct := range m.CostTiers {
		tiers := make([]CostTier, 0, len(ct.Tiers))
		for _, t := range ct.Tiers {
			if !isPrimitive(t.Value) {
				return nil, fmt.Errorf("module %q: cost tier for %q: value must be a string, bool or number", m.ID, ct.Param)
			}
			tiers = append(tiers, CostTier{Value: t.Value, RelativeCost: t.RelativeCost})
		}
		e.CostTiers[ct.Param] = tiers
	}
	for _, r := range m.SecurityRules {
		if !isPrimitive(r.Insecure) || !isPrimitive(r.Secure) {
			return nil, fmt.Errorf("module %q: security rule for %q: values must be strings, bools or numbers", m.ID, r.Param)
		}
		e.Rules = append(e.Rules, &SecurityRule{
			Param:     r.Param,
			Insecure:  r.Insecure,
			Secure:    r.Secure,
			Rationale: r.Rationale,
		})
	}
	return e, nil
}

// isPrimitive reports whether v is a known string, bool or number.
func isPrimitive(v cty.Value) bool {
	if v == cty.NilVal || !v.IsKnown() || v.IsNull() {
		return false
	}
	t := v.Type()
	return t == cty.String || t == cty.Bool || t == cty.Number
}

// LoadDir decodes every .hcl manifest under dir into registry entries.
func LoadDir(ctx context.Context, dir string) ([]*Entry, error) {
	logger := ctxlog.FromContext(ctx)
	paths, err := fsutil.FindFilesByExtension(dir, ".hcl")
	if err != nil {
		return nil, fmt.Errorf("failed to scan registry directory %s: %w", dir, err)
	}
	if len(paths) == 0 {
		logger.Warn("No .hcl registry manifests found in directory.", "path", dir)
		return nil, nil
	}

	var entries []*Entry
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read registry manifest %s: %w", path, err)
		}
		decoded, err := DecodeManifest(path, src)
		if err != nil {
			return nil, err
		}
		logger.Debug("Decoded registry manifest.", "path", path, "modules", len(decoded))
		entries = append(entries, decoded...)
	}
	return entries, nil
}
