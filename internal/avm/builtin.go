package avm

import (
	"embed"
	"fmt"
	"sort"
)

//go:embed manifests/*.hcl
var builtinFS embed.FS

// BuiltinEntries decodes the catalog manifests embedded in the binary.
func BuiltinEntries() ([]*Entry, error) {
	names, err := builtinFS.ReadDir("manifests")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded registry manifests: %w", err)
	}
	sort.Slice(names, func(i, j int) bool { return names[i].Name() < names[j].Name() })

	var entries []*Entry
	for _, d := range names {
		src, err := builtinFS.ReadFile("manifests/" + d.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded registry manifest %s: %w", d.Name(), err)
		}
		decoded, err := DecodeManifest(d.Name(), src)
		if err != nil {
			return nil, err
		}
		entries = append(entries, decoded...)
	}
	return entries, nil
}

// BuiltinRegistry builds a registry from the embedded catalog alone. A
// failure here is a build defect, surfaced at startup.
func BuiltinRegistry() (*Registry, error) {
	entries, err := BuiltinEntries()
	if err != nil {
		return nil, err
	}
	return NewRegistry(entries)
}
