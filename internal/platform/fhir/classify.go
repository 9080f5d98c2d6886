package fhir

// BaseKind is the abstract type whose fields a definition inherits.
type BaseKind int

const (
	// BaseNone marks the Element type itself: its fields are shown flat.
	BaseNone BaseKind = iota
	BaseElement
	BaseResource
	BaseDomainResource
)

var (
	elementFields  = []string{"id", "extension"}
	resourceFields = []string{"id", "meta", "implicitRules", "language"}
)

// Label is the display label of the inherited base type.
func (k BaseKind) Label() string {
	switch k {
	case BaseElement:
		return "Element"
	case BaseResource:
		return "Resource"
	case BaseDomainResource:
		return "DomainResource"
	default:
		return ""
	}
}

func (k BaseKind) String() string {
	if k == BaseNone {
		return "none"
	}
	return k.Label()
}

// Classification is the outcome of Classify: the base kind plus the set of
// local names treated as inherited for it.
type Classification struct {
	Base      BaseKind
	Inherited map[string]bool
}

// Inherits reports whether a field with the given local name belongs to the
// inherited set.
func (c Classification) Inherits(name string) bool {
	return c.Inherited[name]
}

// InheritancePolicy holds the configurable parts of base-kind classification.
type InheritancePolicy struct {
	// RootOnly lists resources that derive directly from Resource.
	RootOnly []string `yaml:"rootOnly"`
	// DomainMarkers are top-level field names whose presence signals a
	// DomainResource. They are also the fields DomainResource adds to Resource.
	DomainMarkers []string `yaml:"domainMarkers"`
}

// DefaultInheritancePolicy returns the stock FHIR R4 policy.
func DefaultInheritancePolicy() InheritancePolicy {
	return InheritancePolicy{
		RootOnly:      []string{"Resource", "Bundle", "Binary", "Parameters"},
		DomainMarkers: []string{"text", "contained", "extension", "modifierExtension"},
	}
}

func (p InheritancePolicy) isRootOnly(name string) bool {
	for _, r := range p.RootOnly {
		if r == name {
			return true
		}
	}
	return false
}

// Classify decides which base kind a descriptor inherits from and the local
// names of the inherited fields. The first matching rule wins:
//  1. the Element type itself: no grouping
//  2. any data type: Element
//  3. a root-only resource: Resource
//  4. a resource without any domain marker among its top-level fields: Resource
//  5. otherwise: DomainResource
func Classify(d *ResourceDescriptor, policy InheritancePolicy) Classification {
	typeName := d.Type
	if typeName == "" {
		typeName = d.Name
	}

	switch {
	case typeName == "Element":
		return Classification{Base: BaseNone, Inherited: map[string]bool{}}
	case d.Structure.IsDataType():
		return newClassification(BaseElement, elementFields)
	case policy.isRootOnly(typeName) || policy.isRootOnly(d.Name):
		return newClassification(BaseResource, resourceFields)
	case !hasDomainMarker(d.Elements, policy.DomainMarkers):
		return newClassification(BaseResource, resourceFields)
	default:
		names := append(append([]string{}, resourceFields...), policy.DomainMarkers...)
		return newClassification(BaseDomainResource, names)
	}
}

func newClassification(base BaseKind, names []string) Classification {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return Classification{Base: base, Inherited: set}
}

func hasDomainMarker(fields []FieldRecord, markers []string) bool {
	for _, f := range fields {
		if f.Depth() != 1 {
			continue
		}
		name := LocalName(f.Path)
		for _, m := range markers {
			if name == m {
				return true
			}
		}
	}
	return false
}
