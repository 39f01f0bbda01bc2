package optimize

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/avmopt/internal/avm"
	"github.com/vk/avmopt/internal/bicep"
)

func testOptimizer(t *testing.T) *Optimizer {
	t.Helper()
	reg, err := avm.BuiltinRegistry()
	require.NoError(t, err)
	return New(reg)
}

func mustOptimize(t *testing.T, src string, cfg Config) *Result {
	t.Helper()
	result, err := testOptimizer(t).Optimize(context.Background(), src, cfg)
	require.NoError(t, err)
	return result
}

func TestOptimize_DefaultElision(t *testing.T) {
	src := `module storageAccountModule 'br:avm/storage:latest' = {
  name: 'st${uniqueString(resourceGroup().id)}'
  params: {
    name: 'mystorage'
    kind: 'StorageV2'
    accessTier: 'Hot'
    httpsOnly: true
    skuName: 'Standard_LRS'
  }
}
`
	result := mustOptimize(t, src, Config{})

	expected := `module storageAccountModule 'br:avm/storage:latest' = {
  name: 'st${uniqueString(resourceGroup().id)}'
  params: {
    name: 'mystorage'
    skuName: 'Standard_LRS'
  }
}
`
	assert.Equal(t, expected, result.TemplateAfter)
	assert.Equal(t, src, result.TemplateBefore)

	require.Len(t, result.Diagnostics, 3)
	for _, d := range result.Diagnostics {
		assert.Equal(t, ActionRemoved, d.Action)
		assert.Equal(t, RuleDefaultElision, d.Rule)
		assert.Equal(t, "storageAccountModule", d.Module)
	}
	assert.Equal(t, Summary{Removed: 3}, result.Summary)
}

func TestOptimize_SingleLineParamsObject(t *testing.T) {
	// Eliding the only entry of a single-line params object must leave the
	// object's braces in place.
	src := `module st 'br:avm/storage:latest' = {
  name: 'st'
  params: { kind: 'StorageV2' }
}
`
	result := mustOptimize(t, src, Config{})

	expected := `module st 'br:avm/storage:latest' = {
  name: 'st'
  params: { }
}
`
	assert.Equal(t, expected, result.TemplateAfter)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, ActionRemoved, result.Diagnostics[0].Action)
	assert.Equal(t, "kind", result.Diagnostics[0].Param)
}

func TestOptimize_ParamOnClosingBraceLine(t *testing.T) {
	src := `module st 'br:avm/storage:latest' = {
  name: 'st'
  params: {
    skuName: 'Premium_ZRS'
    kind: 'StorageV2' }
}
`
	result := mustOptimize(t, src, Config{})

	expected := `module st 'br:avm/storage:latest' = {
  name: 'st'
  params: {
    skuName: 'Premium_ZRS'
 }
}
`
	assert.Equal(t, expected, result.TemplateAfter)
	assert.Equal(t, Summary{Removed: 1}, result.Summary)
}

func TestOptimize_CommentedOutModuleUntouched(t *testing.T) {
	src := `/*
module old 'br:avm/storage:latest' = {
  name: 'old'
  params: {
    kind: 'StorageV2'
    httpsOnly: false
  }
}
*/
var live = true
`
	result := mustOptimize(t, src, Config{CostOptimization: true, SecurityFocus: true})

	assert.Equal(t, src, result.TemplateAfter)
	assert.Empty(t, result.Diagnostics)
}

func TestOptimize_RequiredParamNeverElided(t *testing.T) {
	// web-app marks httpsOnly required; restating the default must survive.
	src := `module webAppModule 'br:avm/web-app:latest' = {
  name: 'site'
  params: {
    httpsOnly: true
  }
}
`
	result := mustOptimize(t, src, Config{})
	assert.Equal(t, src, result.TemplateAfter)
	assert.Empty(t, result.Diagnostics)
}

func TestOptimize_CostSubstitution(t *testing.T) {
	src := `module stModule 'br:avm/storage:latest' = {
  name: 'st'
  params: {
    skuName: 'Premium_ZRS'
  }
}
`
	result := mustOptimize(t, src, Config{CostOptimization: true})

	assert.Contains(t, result.TemplateAfter, "skuName: 'Standard_LRS'")
	assert.NotContains(t, result.TemplateAfter, "Premium_ZRS")

	require.Len(t, result.Diagnostics, 1)
	d := result.Diagnostics[0]
	assert.Equal(t, ActionSubstituted, d.Action)
	assert.Equal(t, RuleCostOptimization, d.Rule)
	assert.Equal(t, "skuName", d.Param)
	assert.Equal(t, `'Premium_ZRS'`, d.Before)
	assert.Equal(t, `'Standard_LRS'`, d.After)
	assert.Contains(t, d.Rationale, "dev")
}

func TestOptimize_CostMonotonicity(t *testing.T) {
	// Every declared tier must come out at a cost no greater than it went in.
	reg, err := avm.BuiltinRegistry()
	require.NoError(t, err)
	tiers, ok := reg.CostTierOrdering("avm/storage", "skuName")
	require.True(t, ok)

	costOf := func(raw string) int {
		v, ok := bicep.ParseLiteral(raw)
		require.True(t, ok)
		for _, tier := range tiers {
			if v.RawEquals(tier.Value) {
				return tier.RelativeCost
			}
		}
		t.Fatalf("value %s is not a known tier", raw)
		return 0
	}

	for _, declared := range []string{"'Standard_LRS'", "'Standard_ZRS'", "'Standard_GRS'", "'Premium_LRS'", "'Premium_ZRS'"} {
		src := "module st 'br:avm/storage:latest' = {\n  name: 'st'\n  params: {\n    skuName: " + declared + "\n  }\n}\n"
		result := mustOptimize(t, src, Config{CostOptimization: true})

		doc, err := bicep.Parse(result.TemplateAfter)
		require.NoError(t, err)
		sku := doc.Modules()[0].Param("skuName")
		if sku == nil {
			continue // elided: substitution produced the schema default
		}
		assert.LessOrEqual(t, costOf(sku.RawValue), costOf(declared), "declared %s", declared)
	}
}

func TestOptimize_SecurityHardening(t *testing.T) {
	src := `module webAppModule 'br:avm/web-app:latest' = {
  name: 'site'
  params: {
    httpsOnly: false
  }
}
`
	result := mustOptimize(t, src, Config{SecurityFocus: true})

	assert.Contains(t, result.TemplateAfter, "httpsOnly: true")
	require.Len(t, result.Diagnostics, 1)
	d := result.Diagnostics[0]
	assert.Equal(t, ActionFlipped, d.Action)
	assert.Equal(t, RuleSecurityHardening, d.Rule)
	assert.Equal(t, "false", d.Before)
	assert.Equal(t, "true", d.After)
	assert.NotEmpty(t, d.Rationale)
}

func TestOptimize_SecurityDisabledWithoutFlag(t *testing.T) {
	src := `module webAppModule 'br:avm/web-app:latest' = {
  name: 'site'
  params: {
    httpsOnly: false
  }
}
`
	result := mustOptimize(t, src, Config{})
	assert.Equal(t, src, result.TemplateAfter)
	assert.Empty(t, result.Diagnostics)
}

func TestOptimize_HardeningThenElision(t *testing.T) {
	// Hardening turns the value into the schema default, and elision judges
	// the final value: the corrected line is then removed outright.
	src := `module st 'br:avm/storage:latest' = {
  name: 'st'
  params: {
    httpsOnly: false
    skuName: 'Standard_LRS'
  }
}
`
	result := mustOptimize(t, src, Config{SecurityFocus: true})

	assert.NotContains(t, result.TemplateAfter, "httpsOnly")
	assert.Contains(t, result.TemplateAfter, "skuName: 'Standard_LRS'")

	require.Len(t, result.Diagnostics, 2)
	assert.Equal(t, ActionFlipped, result.Diagnostics[0].Action)
	assert.Equal(t, ActionRemoved, result.Diagnostics[1].Action)
	assert.Equal(t, "httpsOnly", result.Diagnostics[1].Param)
}

func TestOptimize_UnknownModulePassthrough(t *testing.T) {
	src := `// untouched region
module mysteryModule 'br:avm/unknown-thing:latest' = {
  name: 'x'
  params: {
    kind: 'StorageV2'
    httpsOnly: true
    anything:   goes  // odd spacing preserved
  }
}
`
	for _, cfg := range []Config{
		{},
		{CostOptimization: true},
		{SecurityFocus: true},
		{Environment: EnvProd, CostOptimization: true, SecurityFocus: true},
	} {
		result := mustOptimize(t, src, cfg)
		assert.Equal(t, src, result.TemplateAfter, "config %+v", cfg)

		require.Len(t, result.Diagnostics, 1)
		d := result.Diagnostics[0]
		assert.Equal(t, ActionSkipped, d.Action)
		assert.Equal(t, RuleRegistryLookup, d.Rule)
		assert.Contains(t, d.Rationale, "unknown module")
		assert.Contains(t, d.Rationale, "br:avm/unknown-thing:latest")
	}
}

func TestOptimize_NonLiteralValuesAreLeftAlone(t *testing.T) {
	src := `module st 'br:avm/storage:latest' = {
  name: 'st'
  params: {
    skuName: skuVar
    kind: pickKind()
    accessTier: '${tierPrefix}Hot'
  }
}
`
	result := mustOptimize(t, src, Config{CostOptimization: true, SecurityFocus: true})
	assert.Equal(t, src, result.TemplateAfter)
	// No diagnostics at all: silently declining to reason is not "skipped".
	assert.Empty(t, result.Diagnostics)
}

func TestOptimize_Idempotence(t *testing.T) {
	src := `module storageAccountModule 'br:avm/storage:latest' = {
  name: 'st${uniqueString(resourceGroup().id)}'
  params: {
    kind: 'StorageV2'
    accessTier: 'Hot'
    httpsOnly: true
    skuName: 'Premium_ZRS'
    minimumTlsVersion: 'TLS1_0'
  }
}

module other 'br:avm/unknown-thing:latest' = {
  name: 'o'
  params: {
    whatever: true
  }
}
`
	for _, cfg := range []Config{
		{},
		{CostOptimization: true},
		{SecurityFocus: true},
		{CostOptimization: true, SecurityFocus: true},
	} {
		first := mustOptimize(t, src, cfg)
		second := mustOptimize(t, first.TemplateAfter, cfg)

		assert.Equal(t, first.TemplateAfter, second.TemplateAfter, "config %+v", cfg)
		for _, d := range second.Diagnostics {
			// Only the unknown-module skip may repeat; nothing is rewritten twice.
			assert.Equal(t, ActionSkipped, d.Action, "config %+v: unexpected %+v", cfg, d)
		}
	}
}

func TestOptimize_Deterministic(t *testing.T) {
	src := `module kv 'br:avm/key-vault:latest' = {
  name: 'kv'
  params: {
    skuName: 'premium'
    enableSoftDelete: false
    publicNetworkAccess: 'Enabled'
  }
}
`
	cfg := Config{CostOptimization: true, SecurityFocus: true}
	first := mustOptimize(t, src, cfg)
	for i := 0; i < 5; i++ {
		again := mustOptimize(t, src, cfg)
		if diff := cmp.Diff(first, again); diff != "" {
			t.Fatalf("optimize is not deterministic (-first +again):\n%s", diff)
		}
	}
}

func TestOptimize_ParseFailureFailsWholeCall(t *testing.T) {
	src := "module broken 'br:avm/storage:latest' = {\n  params: {\n    kind: 'StorageV2'\n"
	_, err := testOptimizer(t).Optimize(context.Background(), src, Config{})
	require.Error(t, err)
	var perr *bicep.ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestOptimize_InvalidEnvironment(t *testing.T) {
	_, err := testOptimizer(t).Optimize(context.Background(), "", Config{Environment: "qa"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "qa")
}

func TestOptimize_EmptyAndModuleFreeInput(t *testing.T) {
	for _, src := range []string{"", "param x string\n", "// just a comment\n"} {
		result := mustOptimize(t, src, Config{CostOptimization: true, SecurityFocus: true})
		assert.Equal(t, src, result.TemplateAfter)
		assert.Empty(t, result.Diagnostics)
	}
}

func TestOptimize_CommentRemovedWithElidedLine(t *testing.T) {
	src := `module st 'br:avm/storage:latest' = {
  name: 'st'
  params: {
    accessTier: 'Hot' // default anyway
    skuName: 'Premium_LRS'
  }
}
`
	result := mustOptimize(t, src, Config{})
	assert.NotContains(t, result.TemplateAfter, "accessTier")
	assert.NotContains(t, result.TemplateAfter, "default anyway")
	assert.True(t, strings.Contains(result.TemplateAfter, "skuName: 'Premium_LRS'"))
}
