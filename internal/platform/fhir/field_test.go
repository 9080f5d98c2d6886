package fhir

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func intPtr(v int) *int { return &v }

// field builds a FieldRecord for tests; card is the rendered "min..max" form.
func field(t *testing.T, path, card string, mustSupport bool, types ...string) FieldRecord {
	t.Helper()
	c, err := ParseCardinality(card)
	if err != nil {
		t.Fatalf("ParseCardinality(%q): %v", card, err)
	}
	var tl TypeList
	if len(types) > 0 {
		tl = types
	}
	return FieldRecord{
		Path:        path,
		Name:        LocalName(path),
		Cardinality: c,
		Type:        tl,
		MustSupport: mustSupport,
		IsExtension: isExtensionPath(path),
	}
}

func TestNewCardinality(t *testing.T) {
	tests := []struct {
		name string
		min  *int
		max  string
		want string
	}{
		{"defaults", nil, "", "0..1"},
		{"required", intPtr(1), "1", "1..1"},
		{"unbounded", intPtr(0), "*", "0..*"},
		{"required unbounded", intPtr(1), "*", "1..*"},
		{"explicit max", intPtr(0), "3", "0..3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCardinality(tt.min, tt.max)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := c.String(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestNewCardinality_Invalid(t *testing.T) {
	if _, err := NewCardinality(intPtr(-1), "1"); err == nil {
		t.Error("expected error for negative min")
	}
	if _, err := NewCardinality(nil, "many"); err == nil {
		t.Error("expected error for non-numeric max")
	}
}

func TestParseCardinality(t *testing.T) {
	c, err := ParseCardinality("1..*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Required() || !c.Unbounded || c.Min != 1 {
		t.Errorf("unexpected cardinality %+v", c)
	}

	for _, bad := range []string{"", "1", "x..1", "0.."} {
		if _, err := ParseCardinality(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestTypeList_JSON(t *testing.T) {
	tl := TypeList{"Reference(Patient|Group)", "CodeableConcept"}
	data, err := json.Marshal(tl)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"Reference(Patient|Group) | CodeableConcept"` {
		t.Errorf("unexpected JSON %s", data)
	}

	var fromString TypeList
	if err := json.Unmarshal(data, &fromString); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if diff := cmp.Diff(tl, fromString); diff != "" {
		t.Errorf("string form mismatch (-want +got):\n%s", diff)
	}

	var fromArray TypeList
	if err := json.Unmarshal([]byte(`["string","boolean"]`), &fromArray); err != nil {
		t.Fatalf("unmarshal array: %v", err)
	}
	if diff := cmp.Diff(TypeList{"string", "boolean"}, fromArray); diff != "" {
		t.Errorf("array form mismatch (-want +got):\n%s", diff)
	}
}

func TestPathHelpers(t *testing.T) {
	if got := PathDepth("Patient.contact.name"); got != 2 {
		t.Errorf("expected depth 2, got %d", got)
	}
	if got := ParentPath("Patient.contact.name"); got != "Patient.contact" {
		t.Errorf("expected Patient.contact, got %s", got)
	}
	if got := ParentPath("Patient"); got != "" {
		t.Errorf("expected empty parent for root, got %q", got)
	}
	if got := LocalName("Observation.value[x]"); got != "value[x]" {
		t.Errorf("expected value[x], got %s", got)
	}
}
