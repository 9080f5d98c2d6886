package fhir

// DefinitionKind separates base resources from constrained profiles.
type DefinitionKind string

const (
	KindResource DefinitionKind = "resource"
	KindProfile  DefinitionKind = "profile"
)

// StructureKind mirrors StructureDefinition.kind.
type StructureKind string

const (
	StructureResource      StructureKind = "resource"
	StructureComplexType   StructureKind = "complex-type"
	StructurePrimitiveType StructureKind = "primitive-type"
	StructureLogical       StructureKind = "logical"
)

// IsDataType reports whether the structure is a data type rather than a
// domain entity.
func (k StructureKind) IsDataType() bool {
	return k == StructureComplexType || k == StructurePrimitiveType
}

// ElementStats summarizes a descriptor's fields.
type ElementStats struct {
	ElementCount     int `json:"elementCount"`
	RequiredCount    int `json:"requiredElements"`
	OptionalCount    int `json:"optionalElements"`
	SummaryCount     int `json:"summaryElements"`
	ModifierCount    int `json:"modifierElements"`
	MustSupportCount int `json:"mustSupportElements"`
}

// ResourceDescriptor is one browsable resource or profile. It is built by the
// Normalizer and never modified afterwards.
type ResourceDescriptor struct {
	Name        string         `json:"name"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	URL         string         `json:"url,omitempty"`
	Namespace   string         `json:"namespace,omitempty"`
	Kind        DefinitionKind `json:"kind"`
	Structure   StructureKind  `json:"structure"`
	// Type is the structure's underlying type ("Patient" for both Patient and
	// us-core-patient).
	Type string `json:"type"`
	// BaseType is the type this definition constrains; empty for base resources.
	BaseType         string        `json:"baseType,omitempty"`
	Elements         []FieldRecord `json:"elements"`
	MustSupportCount int           `json:"mustSupportCount"`
	Stats            ElementStats  `json:"stats"`
}

// IsProfile reports whether the descriptor constrains another definition.
func (d *ResourceDescriptor) IsProfile() bool {
	return d.Kind == KindProfile
}

func computeStats(fields []FieldRecord) ElementStats {
	s := ElementStats{ElementCount: len(fields)}
	for _, f := range fields {
		if f.Cardinality.Required() {
			s.RequiredCount++
		} else {
			s.OptionalCount++
		}
		if f.IsSummary {
			s.SummaryCount++
		}
		if f.IsModifier {
			s.ModifierCount++
		}
		if f.MustSupport {
			s.MustSupportCount++
		}
	}
	return s
}
