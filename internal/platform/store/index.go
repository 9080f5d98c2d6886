package store

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
)

// Namespaces shipped with the viewer.
const (
	NamespaceFHIRR4 = "fhir-r4"
	NamespaceUSCore = "us-core-stu6.1"
)

// Index entry types.
const (
	EntryResource = "resource"
	EntryProfile  = "profile"
	EntryDatatype = "datatype"
)

// IndexPath is the location of the catalog index relative to the data root.
const IndexPath = "index/resources.json"

// IndexEntry locates one definition file.
type IndexEntry struct {
	Name             string `json:"name,omitempty"`
	Spec             string `json:"spec"`
	Type             string `json:"type"`
	File             string `json:"file"`
	BaseDefinition   string `json:"baseDefinition,omitempty"`
	Kind             string `json:"kind,omitempty"`
	ElementCount     int    `json:"elementCount"`
	MustSupportCount int    `json:"mustSupportCount,omitempty"`
}

// Index is the catalog of every definition, keyed by name.
type Index struct {
	ByName map[string]IndexEntry `json:"byName"`
}

// ParseIndex decodes resources.json. Entry names are filled from their keys.
func ParseIndex(data []byte) (*Index, error) {
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}
	if idx.ByName == nil {
		idx.ByName = map[string]IndexEntry{}
	}
	for name, e := range idx.ByName {
		e.Name = name
		idx.ByName[name] = e
	}
	return &idx, nil
}

// Lookup finds the entry for name inside namespace.
func (idx *Index) Lookup(namespace, name string) (IndexEntry, bool) {
	e, ok := idx.ByName[name]
	if !ok || e.Spec != namespace {
		return IndexEntry{}, false
	}
	return e, true
}

// Entries returns the namespace's entries sorted by name. An empty entryType
// matches every type.
func (idx *Index) Entries(namespace, entryType string) []IndexEntry {
	var out []IndexEntry
	for _, e := range idx.ByName {
		if e.Spec != namespace || (entryType != "" && e.Type != entryType) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Namespaces returns the distinct namespaces in the index.
func (idx *Index) Namespaces() []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range idx.ByName {
		if !seen[e.Spec] {
			seen[e.Spec] = true
			out = append(out, e.Spec)
		}
	}
	sort.Strings(out)
	return out
}

// entryFromPath derives an index entry from a file path relative to the data
// root, such as "us-core-stu6.1/profiles/USCorePatientProfile.json".
func entryFromPath(rel string) (IndexEntry, bool) {
	rel = strings.TrimPrefix(path.Clean(rel), "/")
	if path.Ext(rel) != ".json" || strings.HasPrefix(rel, "index/") {
		return IndexEntry{}, false
	}
	parts := strings.Split(rel, "/")
	if len(parts) < 2 {
		return IndexEntry{}, false
	}

	e := IndexEntry{
		Name: strings.TrimSuffix(path.Base(rel), ".json"),
		Spec: parts[0],
		Type: EntryResource,
		File: rel,
	}
	switch parts[len(parts)-2] {
	case "profiles":
		e.Type = EntryProfile
	case "datatypes":
		e.Type = EntryDatatype
		e.Kind = "complex-type"
	}
	return e, true
}

// buildIndex assembles an index from file paths. When two files share a name
// the first one wins.
func buildIndex(paths []string) *Index {
	idx := &Index{ByName: map[string]IndexEntry{}}
	sort.Strings(paths)
	for _, p := range paths {
		e, ok := entryFromPath(p)
		if !ok {
			continue
		}
		if _, dup := idx.ByName[e.Name]; !dup {
			idx.ByName[e.Name] = e
		}
	}
	return idx
}
