package fhir

import (
	"fmt"
	"strings"
)

// DefaultProfileMarkers are the lower-cased substrings that identify a
// profile family in a canonical URL, id or name.
var DefaultProfileMarkers = []string{"us-core", "uscore", "/us/core/"}

// Normalizer turns raw definitions into ResourceDescriptors.
type Normalizer struct {
	profileMarkers []string
}

// NewNormalizer creates a Normalizer. With no markers, DefaultProfileMarkers
// are used.
func NewNormalizer(profileMarkers ...string) *Normalizer {
	if len(profileMarkers) == 0 {
		profileMarkers = DefaultProfileMarkers
	}
	markers := make([]string, 0, len(profileMarkers))
	for _, m := range profileMarkers {
		if m = strings.ToLower(strings.TrimSpace(m)); m != "" {
			markers = append(markers, m)
		}
	}
	return &Normalizer{profileMarkers: markers}
}

// Normalize converts either raw form into a descriptor with a flat, ordered
// field list. The root element (a path without dots) is dropped.
func (n *Normalizer) Normalize(raw RawDefinition) (*ResourceDescriptor, error) {
	switch def := raw.(type) {
	case FlatDefinition:
		return n.normalizeFlat(def), nil
	case StructuralDefinition:
		return n.normalizeStructural(def)
	case nil:
		return nil, fmt.Errorf("%w: nil definition", ErrMalformedDefinition)
	default:
		return nil, fmt.Errorf("%w: unsupported definition form %T", ErrMalformedDefinition, raw)
	}
}

func (n *Normalizer) normalizeFlat(def FlatDefinition) *ResourceDescriptor {
	fields := make([]FieldRecord, 0, len(def.Elements))
	for _, f := range def.Elements {
		if PathDepth(f.Path) == 0 {
			continue
		}
		if f.Name == "" {
			f.Name = LocalName(f.Path)
		}
		f.IsExtension = isExtensionPath(f.Path)
		fields = append(fields, f)
	}

	meta := def.DefinitionMeta
	typeName := meta.Type
	if typeName == string(KindResource) || typeName == string(KindProfile) || typeName == "" {
		typeName = meta.ResourceType
	}
	if typeName == "" && len(fields) > 0 {
		typeName = rootSegment(fields[0].Path)
	}

	desc := &ResourceDescriptor{
		Name:        firstNonEmpty(meta.Name, meta.ID, typeName),
		Title:       meta.Title,
		Description: meta.Description,
		URL:         meta.URL,
		Structure:   structureKind(meta.Kind),
		Type:        typeName,
		Elements:    fields,
	}
	desc.Kind = n.classifyKind(meta.Type == string(KindProfile), meta.Derivation, meta.BaseResource, meta.BaseDefinition, desc.Type, meta.URL, meta.ID, desc.Name)
	if desc.Kind == KindProfile {
		desc.BaseType = firstNonEmpty(meta.BaseResource, desc.Type, lastURLSegment(meta.BaseDefinition))
	}
	finishDescriptor(desc)
	return desc
}

func (n *Normalizer) normalizeStructural(def StructuralDefinition) (*ResourceDescriptor, error) {
	sd := def.StructureDefinitionResource
	if sd == nil {
		return nil, fmt.Errorf("%w: empty structure definition", ErrMalformedDefinition)
	}

	var source []ElementDefinition
	switch {
	case sd.Differential != nil && len(sd.Differential.Element) > 0:
		source = sd.Differential.Element
	case sd.Snapshot != nil:
		source = sd.Snapshot.Element
	default:
		return nil, fmt.Errorf("%w: %q has no differential or snapshot elements", ErrMalformedDefinition, sd.Name)
	}

	fields := make([]FieldRecord, 0, len(source))
	for i := range source {
		el := &source[i]
		if PathDepth(el.Path) == 0 {
			continue
		}
		f, err := fieldFromElement(el)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedDefinition, el.Path, err)
		}
		fields = append(fields, f)
	}

	typeName := sd.Type
	if typeName == "" && len(source) > 0 {
		typeName = rootSegment(source[0].Path)
	}

	desc := &ResourceDescriptor{
		Name:        firstNonEmpty(sd.Name, sd.ID, typeName),
		Title:       sd.Title,
		Description: sd.Description,
		URL:         sd.URL,
		Structure:   structureKind(sd.Kind),
		Type:        typeName,
		Elements:    fields,
	}
	desc.Kind = n.classifyKind(false, sd.Derivation, "", sd.BaseDefinition, desc.Type, sd.URL, sd.ID, desc.Name)
	if desc.Kind == KindProfile {
		desc.BaseType = firstNonEmpty(desc.Type, lastURLSegment(sd.BaseDefinition))
	}
	finishDescriptor(desc)
	return desc, nil
}

// classifyKind decides once, at normalization time, whether a definition is a
// profile. Consumers read ResourceDescriptor.Kind instead of re-deriving it.
func (n *Normalizer) classifyKind(flaggedProfile bool, derivation, baseResource, baseDefinition, typeName string, identifiers ...string) DefinitionKind {
	if flaggedProfile || derivation == "constraint" || baseResource != "" {
		return KindProfile
	}
	// A profile constrains a definition of its own type; a base resource
	// specializes an abstract parent such as DomainResource.
	if base := lastURLSegment(baseDefinition); base != "" && base == typeName {
		return KindProfile
	}
	for _, id := range identifiers {
		lower := strings.ToLower(id)
		for _, m := range n.profileMarkers {
			if strings.Contains(lower, m) {
				return KindProfile
			}
		}
	}
	return KindResource
}

func fieldFromElement(el *ElementDefinition) (FieldRecord, error) {
	card, err := NewCardinality(el.Min, el.Max)
	if err != nil {
		return FieldRecord{}, err
	}
	f := FieldRecord{
		ID:          el.ID,
		Path:        el.Path,
		Name:        LocalName(el.Path),
		Cardinality: card,
		Type:        formatTypes(el.Type),
		Short:       el.Short,
		Description: firstNonEmpty(el.Short, el.Definition),
		MustSupport: el.MustSupport,
		IsModifier:  el.IsModifier,
		IsSummary:   el.IsSummary,
		IsExtension: isExtensionPath(el.Path),
	}
	if el.Binding != nil {
		f.Binding = &Binding{
			Strength:    el.Binding.Strength,
			ValueSet:    el.Binding.ValueSet,
			Description: el.Binding.Description,
		}
	}
	for _, c := range el.Constraint {
		f.Constraints = append(f.Constraints, Constraint{
			Key:        c.Key,
			Severity:   c.Severity,
			Human:      c.Human,
			Expression: c.Expression,
		})
	}
	return f, nil
}

// formatTypes renders each type code, appending referenced profile names in
// parentheses: Reference(Patient|Group).
func formatTypes(types []ElementType) TypeList {
	if len(types) == 0 {
		return nil
	}
	out := make(TypeList, 0, len(types))
	for _, t := range types {
		refs := t.TargetProfile
		if len(refs) == 0 {
			refs = t.Profile
		}
		if len(refs) == 0 {
			out = append(out, t.Code)
			continue
		}
		names := make([]string, 0, len(refs))
		for _, r := range refs {
			names = append(names, lastURLSegment(r))
		}
		out = append(out, t.Code+"("+strings.Join(names, "|")+")")
	}
	return out
}

func finishDescriptor(d *ResourceDescriptor) {
	d.Stats = computeStats(d.Elements)
	d.MustSupportCount = d.Stats.MustSupportCount
}

func structureKind(kind string) StructureKind {
	switch StructureKind(kind) {
	case StructureComplexType, StructurePrimitiveType, StructureLogical:
		return StructureKind(kind)
	default:
		return StructureResource
	}
}

func rootSegment(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return path
}

func lastURLSegment(url string) string {
	url = strings.TrimRight(url, "/")
	return url[strings.LastIndexByte(url, '/')+1:]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
