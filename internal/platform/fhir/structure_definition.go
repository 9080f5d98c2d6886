package fhir

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedDefinition is returned when a definition carries neither a flat
// element list nor a differential/snapshot.
var ErrMalformedDefinition = errors.New("malformed definition")

// ============================================================================
// StructureDefinition Models
// ============================================================================

// StructureDefinitionResource is the subset of a FHIR R4 StructureDefinition
// the viewer reads.
type StructureDefinitionResource struct {
	ResourceType   string                 `json:"resourceType"`
	ID             string                 `json:"id,omitempty"`
	URL            string                 `json:"url"`
	Name           string                 `json:"name"`
	Title          string                 `json:"title,omitempty"`
	Status         string                 `json:"status"` // draft, active, retired
	Kind           string                 `json:"kind"`   // primitive-type, complex-type, resource, logical
	Abstract       bool                   `json:"abstract"`
	Type           string                 `json:"type"` // e.g., "Patient", "Observation"
	BaseDefinition string                 `json:"baseDefinition,omitempty"`
	Derivation     string                 `json:"derivation,omitempty"` // specialization, constraint
	Description    string                 `json:"description,omitempty"`
	FHIRVersion    string                 `json:"fhirVersion,omitempty"`
	Snapshot       *StructureSnapshot     `json:"snapshot,omitempty"`
	Differential   *StructureDifferential `json:"differential,omitempty"`
}

// StructureSnapshot contains the full set of element definitions for the structure.
type StructureSnapshot struct {
	Element []ElementDefinition `json:"element"`
}

// StructureDifferential contains the delta of element definitions relative to the base.
type StructureDifferential struct {
	Element []ElementDefinition `json:"element"`
}

// ElementDefinition describes a single element within a StructureDefinition.
type ElementDefinition struct {
	ID          string              `json:"id,omitempty"`
	Path        string              `json:"path"`
	Short       string              `json:"short,omitempty"`
	Definition  string              `json:"definition,omitempty"`
	Min         *int                `json:"min,omitempty"`
	Max         string              `json:"max,omitempty"`
	Type        []ElementType       `json:"type,omitempty"`
	Binding     *ElementBinding     `json:"binding,omitempty"`
	Constraint  []ElementConstraint `json:"constraint,omitempty"`
	MustSupport bool                `json:"mustSupport,omitempty"`
	IsModifier  bool                `json:"isModifier,omitempty"`
	IsSummary   bool                `json:"isSummary,omitempty"`
}

// ElementType describes a datatype for an element.
type ElementType struct {
	Code          string   `json:"code"`
	Profile       []string `json:"profile,omitempty"`
	TargetProfile []string `json:"targetProfile,omitempty"`
}

// ElementBinding describes a terminology binding for an element.
type ElementBinding struct {
	Strength    string `json:"strength"` // required, extensible, preferred, example
	ValueSet    string `json:"valueSet,omitempty"`
	Description string `json:"description,omitempty"`
}

// ElementConstraint is an invariant declared on an element.
type ElementConstraint struct {
	Key        string `json:"key"`
	Severity   string `json:"severity,omitempty"`
	Human      string `json:"human,omitempty"`
	Expression string `json:"expression,omitempty"`
}

// ============================================================================
// Raw definitions
// ============================================================================

// RawDefinition is what a definition file decodes into: either an already
// flattened element list or a structural StructureDefinition.
type RawDefinition interface {
	rawDefinition()
}

// DefinitionMeta is the descriptive header shared by both raw forms.
type DefinitionMeta struct {
	ID             string `json:"id,omitempty"`
	Name           string `json:"name"`
	Title          string `json:"title,omitempty"`
	Description    string `json:"description,omitempty"`
	URL            string `json:"url,omitempty"`
	Kind           string `json:"kind,omitempty"`
	Type           string `json:"type,omitempty"`
	ResourceType   string `json:"resourceType,omitempty"`
	BaseDefinition string `json:"baseDefinition,omitempty"`
	BaseResource   string `json:"baseResource,omitempty"`
	Derivation     string `json:"derivation,omitempty"`
}

// FlatDefinition is a pre-normalized definition with an "elements" array.
type FlatDefinition struct {
	DefinitionMeta
	Elements []FieldRecord `json:"elements"`
}

// StructuralDefinition wraps a StructureDefinition carrying a differential
// and/or a snapshot.
type StructuralDefinition struct {
	*StructureDefinitionResource
}

func (FlatDefinition) rawDefinition()       {}
func (StructuralDefinition) rawDefinition() {}

// DecodeRawDefinition inspects the top-level keys of a definition document
// and decodes it into the matching RawDefinition variant.
func DecodeRawDefinition(data []byte) (RawDefinition, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: decode definition: %v", ErrMalformedDefinition, err)
	}

	if _, ok := probe["elements"]; ok {
		var flat FlatDefinition
		if err := json.Unmarshal(data, &flat); err != nil {
			return nil, fmt.Errorf("%w: decode flat definition: %v", ErrMalformedDefinition, err)
		}
		return flat, nil
	}

	_, hasSnapshot := probe["snapshot"]
	_, hasDifferential := probe["differential"]
	if hasSnapshot || hasDifferential {
		var sd StructureDefinitionResource
		if err := json.Unmarshal(data, &sd); err != nil {
			return nil, fmt.Errorf("%w: decode structure definition: %v", ErrMalformedDefinition, err)
		}
		return StructuralDefinition{&sd}, nil
	}

	var name string
	if raw, ok := probe["name"]; ok {
		_ = json.Unmarshal(raw, &name)
	}
	return nil, fmt.Errorf("%w: %q has no elements, differential or snapshot", ErrMalformedDefinition, name)
}
