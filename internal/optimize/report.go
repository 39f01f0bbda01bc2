package optimize

import (
	"fmt"
	"io"

	"github.com/pmezard/go-difflib/difflib"
)

// Summary aggregates diagnostic counts by action type.
type Summary struct {
	Removed     int
	Substituted int
	Flipped     int
	Skipped     int
}

// Total returns the overall diagnostic count.
func (s Summary) Total() int {
	return s.Removed + s.Substituted + s.Flipped + s.Skipped
}

// ModuleReport groups the diagnostics attributed to one module declaration.
type ModuleReport struct {
	Module      string
	Diagnostics []Diagnostic
}

// Result is the complete outcome of one optimization call.
type Result struct {
	TemplateBefore string
	TemplateAfter  string
	Diagnostics    []Diagnostic
	Summary        Summary
}

// newResult assembles a Result and its summary counts.
func newResult(before, after string, diags []Diagnostic) *Result {
	r := &Result{
		TemplateBefore: before,
		TemplateAfter:  after,
		Diagnostics:    diags,
	}
	for _, d := range diags {
		switch d.Action {
		case ActionRemoved:
			r.Summary.Removed++
		case ActionSubstituted:
			r.Summary.Substituted++
		case ActionFlipped:
			r.Summary.Flipped++
		case ActionSkipped:
			r.Summary.Skipped++
		}
	}
	return r
}

// Changed reports whether any rewrite took place.
func (r *Result) Changed() bool {
	return r.TemplateBefore != r.TemplateAfter
}

// ByModule groups diagnostics per module in first-seen order.
func (r *Result) ByModule() []ModuleReport {
	index := make(map[string]int)
	var reports []ModuleReport
	for _, d := range r.Diagnostics {
		i, ok := index[d.Module]
		if !ok {
			i = len(reports)
			index[d.Module] = i
			reports = append(reports, ModuleReport{Module: d.Module})
		}
		reports[i].Diagnostics = append(reports[i].Diagnostics, d)
	}
	return reports
}

// Diff renders a unified diff between the input and output templates.
func (r *Result) Diff() (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(r.TemplateBefore),
		B:        difflib.SplitLines(r.TemplateAfter),
		FromFile: "template.bicep",
		ToFile:   "template.bicep (optimized)",
		Context:  3,
	})
}

// WriteReport writes a human-readable change summary: per-module
// diagnostics, aggregate counts, and a unified diff when anything changed.
// Callers use it to render review output or gate a CI workflow.
func (r *Result) WriteReport(w io.Writer) error {
	for _, mr := range r.ByModule() {
		if _, err := fmt.Fprintf(w, "module %s:\n", mr.Module); err != nil {
			return err
		}
		for _, d := range mr.Diagnostics {
			var err error
			switch d.Action {
			case ActionRemoved:
				_, err = fmt.Fprintf(w, "  %s %s: %s (%s)\n", d.Action, d.Param, d.Before, d.Rationale)
			case ActionSkipped:
				_, err = fmt.Fprintf(w, "  %s: %s\n", d.Action, d.Rationale)
			default:
				_, err = fmt.Fprintf(w, "  %s %s: %s -> %s (%s)\n", d.Action, d.Param, d.Before, d.After, d.Rationale)
			}
			if err != nil {
				return err
			}
		}
	}
	if _, err := fmt.Fprintf(w, "summary: %d removed, %d substituted, %d flipped, %d skipped\n",
		r.Summary.Removed, r.Summary.Substituted, r.Summary.Flipped, r.Summary.Skipped); err != nil {
		return err
	}
	if r.Changed() {
		diff, err := r.Diff()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprint(w, diff); err != nil {
			return err
		}
	}
	return nil
}
