package fhir

import "strconv"

// ChangeKind names the attribute a profile changed on a base field.
type ChangeKind string

const (
	ChangeCardinality      ChangeKind = "cardinality"
	ChangeType             ChangeKind = "type"
	ChangeMustSupportAdded ChangeKind = "mustSupportAdded"
)

// Change is one differing attribute between a base field and its profile
// counterpart.
type Change struct {
	Kind   ChangeKind `json:"changeKind"`
	Before string     `json:"before"`
	After  string     `json:"after"`
}

// ModifiedField is a profile field that exists in the base with at least one
// change.
type ModifiedField struct {
	Field   FieldRecord `json:"field"`
	Base    FieldRecord `json:"base"`
	Changes []Change    `json:"changes"`
}

// ComparisonResult describes how a profile differs from its base.
type ComparisonResult struct {
	Profile           string          `json:"profile,omitempty"`
	Base              string          `json:"base,omitempty"`
	AddedFields       []FieldRecord   `json:"addedFields"`
	ModifiedFields    []ModifiedField `json:"modifiedFields"`
	MustSupportFields []FieldRecord   `json:"mustSupportFields"`
	// Overlap counts profile paths found in the base. Zero usually means the
	// two definitions are unrelated.
	Overlap int `json:"overlap"`
}

// Compare matches profile fields to base fields by exact path. Results keep
// profile order.
//
// Must-support is only compared in the added direction. A profile clearing a
// base must-support flag produces no change record.
func Compare(profileFields, baseFields []FieldRecord) ComparisonResult {
	base := make(map[string]FieldRecord, len(baseFields))
	for _, f := range baseFields {
		if _, ok := base[f.Path]; !ok {
			base[f.Path] = f
		}
	}

	res := ComparisonResult{
		AddedFields:       []FieldRecord{},
		ModifiedFields:    []ModifiedField{},
		MustSupportFields: []FieldRecord{},
	}
	for _, pf := range profileFields {
		if pf.MustSupport {
			res.MustSupportFields = append(res.MustSupportFields, pf)
		}
		bf, ok := base[pf.Path]
		if !ok {
			res.AddedFields = append(res.AddedFields, pf)
			continue
		}
		res.Overlap++
		if changes := diffField(bf, pf); len(changes) > 0 {
			res.ModifiedFields = append(res.ModifiedFields, ModifiedField{Field: pf, Base: bf, Changes: changes})
		}
	}
	return res
}

// CompareDescriptors compares a profile descriptor with its base descriptor.
func CompareDescriptors(profile, base *ResourceDescriptor) ComparisonResult {
	res := Compare(profile.Elements, base.Elements)
	res.Profile = profile.Name
	res.Base = base.Name
	return res
}

func diffField(base, profile FieldRecord) []Change {
	var changes []Change
	if b, p := base.Cardinality.String(), profile.Cardinality.String(); b != p {
		changes = append(changes, Change{Kind: ChangeCardinality, Before: b, After: p})
	}
	if b, p := base.Type.String(), profile.Type.String(); b != p {
		changes = append(changes, Change{Kind: ChangeType, Before: b, After: p})
	}
	if profile.MustSupport && !base.MustSupport {
		changes = append(changes, Change{
			Kind:   ChangeMustSupportAdded,
			Before: strconv.FormatBool(base.MustSupport),
			After:  strconv.FormatBool(profile.MustSupport),
		})
	}
	return changes
}
