package optimize

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryCounts(t *testing.T) {
	diags := []Diagnostic{
		{Module: "a", Action: ActionRemoved},
		{Module: "a", Action: ActionRemoved},
		{Module: "b", Action: ActionSubstituted},
		{Module: "c", Action: ActionFlipped},
		{Module: "d", Action: ActionSkipped},
	}
	r := newResult("before", "after", diags)
	assert.Equal(t, Summary{Removed: 2, Substituted: 1, Flipped: 1, Skipped: 1}, r.Summary)
	assert.Equal(t, 5, r.Summary.Total())
	assert.True(t, r.Changed())
}

func TestByModule_GroupsInFirstSeenOrder(t *testing.T) {
	diags := []Diagnostic{
		{Module: "web", Action: ActionFlipped},
		{Module: "st", Action: ActionRemoved},
		{Module: "web", Action: ActionRemoved},
	}
	r := newResult("x", "x", diags)

	groups := r.ByModule()
	require.Len(t, groups, 2)
	assert.Equal(t, "web", groups[0].Module)
	assert.Len(t, groups[0].Diagnostics, 2)
	assert.Equal(t, "st", groups[1].Module)
	assert.Len(t, groups[1].Diagnostics, 1)
	assert.False(t, r.Changed())
}

func TestResult_Diff(t *testing.T) {
	src := `module st 'br:avm/storage:latest' = {
  name: 'st'
  params: {
    kind: 'StorageV2'
    skuName: 'Premium_ZRS'
  }
}
`
	result := mustOptimize(t, src, Config{CostOptimization: true})

	diff, err := result.Diff()
	require.NoError(t, err)
	assert.Contains(t, diff, "-    kind: 'StorageV2'")
	assert.Contains(t, diff, "-    skuName: 'Premium_ZRS'")
	assert.Contains(t, diff, "+    skuName: 'Standard_LRS'")
}

func TestResult_WriteReport(t *testing.T) {
	src := `module st 'br:avm/storage:latest' = {
  name: 'st'
  params: {
    kind: 'StorageV2'
    skuName: 'Premium_ZRS'
  }
}

module mystery 'br:avm/unknown-thing:latest' = {
  name: 'm'
  params: {
    x: 1
  }
}
`
	result := mustOptimize(t, src, Config{CostOptimization: true})

	var b strings.Builder
	require.NoError(t, result.WriteReport(&b))
	out := b.String()

	assert.Contains(t, out, "module st:")
	assert.Contains(t, out, "module mystery:")
	assert.Contains(t, out, "substituted skuName: 'Premium_ZRS' -> 'Standard_LRS'")
	assert.Contains(t, out, "removed kind: 'StorageV2'")
	assert.Contains(t, out, "skipped: unknown module br:avm/unknown-thing:latest")
	assert.Contains(t, out, "summary: 1 removed, 1 substituted, 0 flipped, 1 skipped")
	assert.Contains(t, out, "--- template.bicep")
}

func TestResult_WriteReport_NoChanges(t *testing.T) {
	result, err := testOptimizer(t).Optimize(context.Background(), "param x string\n", Config{})
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, result.WriteReport(&b))
	assert.Equal(t, "summary: 0 removed, 0 substituted, 0 flipped, 0 skipped\n", b.String())
}
