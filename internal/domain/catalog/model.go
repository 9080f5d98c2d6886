package catalog

import (
	"github.com/ehr/fhirviewer/internal/platform/fhir"
	"github.com/ehr/fhirviewer/internal/platform/store"
)

// Summary is one catalog listing row.
type Summary struct {
	Name             string `json:"name"`
	DisplayName      string `json:"displayName"`
	Namespace        string `json:"namespace"`
	Type             string `json:"type"`
	Kind             string `json:"kind,omitempty"`
	BaseDefinition   string `json:"baseDefinition,omitempty"`
	ElementCount     int    `json:"elementCount"`
	MustSupportCount int    `json:"mustSupportCount"`
}

func summaryFromEntry(e store.IndexEntry) Summary {
	display := e.Name
	if e.Type == store.EntryProfile {
		display = fhir.CleanProfileName(e.Name)
	}
	return Summary{
		Name:             e.Name,
		DisplayName:      display,
		Namespace:        e.Spec,
		Type:             e.Type,
		Kind:             e.Kind,
		BaseDefinition:   e.BaseDefinition,
		ElementCount:     e.ElementCount,
		MustSupportCount: e.MustSupportCount,
	}
}

// TreeView is the field forest of one definition, ready for display.
type TreeView struct {
	Name        string                `json:"name"`
	DisplayName string                `json:"displayName"`
	Namespace   string                `json:"namespace"`
	Kind        fhir.DefinitionKind   `json:"kind"`
	Base        string                `json:"base"`
	FieldCount  int                   `json:"fieldCount"`
	Fields      []*fhir.FieldTreeNode `json:"fields"`
}

// Comparison is a profile diff together with the definitions it was computed
// from.
type Comparison struct {
	Namespace     string `json:"namespace"`
	BaseNamespace string `json:"baseNamespace"`
	fhir.ComparisonResult
}

// Stats reports catalog size and cache counters.
type Stats struct {
	Namespaces  []string         `json:"namespaces"`
	Definitions int              `json:"definitions"`
	Cache       store.CacheStats `json:"cache"`
}
