package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryFromPath(t *testing.T) {
	tests := []struct {
		path string
		want IndexEntry
		ok   bool
	}{
		{"fhir-r4/resources/Patient.json", IndexEntry{Name: "Patient", Spec: "fhir-r4", Type: EntryResource, File: "fhir-r4/resources/Patient.json"}, true},
		{"us-core-stu6.1/profiles/USCorePatientProfile.json", IndexEntry{Name: "USCorePatientProfile", Spec: "us-core-stu6.1", Type: EntryProfile, File: "us-core-stu6.1/profiles/USCorePatientProfile.json"}, true},
		{"fhir-r4/datatypes/HumanName.json", IndexEntry{Name: "HumanName", Spec: "fhir-r4", Type: EntryDatatype, Kind: "complex-type", File: "fhir-r4/datatypes/HumanName.json"}, true},
		{"index/resources.json", IndexEntry{}, false},
		{"README.md", IndexEntry{}, false},
		{"top.json", IndexEntry{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := entryFromPath(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseIndex(t *testing.T) {
	idx, err := ParseIndex([]byte(`{"byName":{"Goal":{"spec":"fhir-r4","type":"resource","file":"fhir-r4/resources/Goal.json","elementCount":12}}}`))
	require.NoError(t, err)

	e, ok := idx.Lookup("fhir-r4", "Goal")
	require.True(t, ok)
	assert.Equal(t, "Goal", e.Name)
	assert.Equal(t, 12, e.ElementCount)

	_, ok = idx.Lookup("us-core-stu6.1", "Goal")
	assert.False(t, ok)

	_, err = ParseIndex([]byte(`not json`))
	assert.Error(t, err)

	empty, err := ParseIndex([]byte(`{}`))
	require.NoError(t, err)
	assert.NotNil(t, empty.ByName)
}

func TestBuildIndex_FirstNameWins(t *testing.T) {
	idx := buildIndex([]string{
		"us-core-stu6.1/resources/Patient.json",
		"fhir-r4/resources/Patient.json",
	})
	require.Len(t, idx.ByName, 1)
	assert.Equal(t, "fhir-r4", idx.ByName["Patient"].Spec)
}
