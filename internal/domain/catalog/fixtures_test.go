package catalog

import (
	"testing/fstest"

	"github.com/rs/zerolog"

	"github.com/ehr/fhirviewer/internal/platform/fhir"
	"github.com/ehr/fhirviewer/internal/platform/store"
)

const patientFlat = `{
  "name": "Patient",
  "type": "resource",
  "resourceType": "Patient",
  "elements": [
    {"path": "Patient", "cardinality": "0..*", "type": "", "description": ""},
    {"path": "Patient.id", "cardinality": "0..1", "type": "id", "description": "Logical id of this artifact"},
    {"path": "Patient.meta", "cardinality": "0..1", "type": "Meta", "description": "Metadata about the resource"},
    {"path": "Patient.text", "cardinality": "0..1", "type": "Narrative", "description": "Text summary of the resource"},
    {"path": "Patient.extension", "cardinality": "0..*", "type": "Extension", "description": "Additional content"},
    {"path": "Patient.identifier", "cardinality": "0..*", "type": "Identifier", "description": "An identifier for this patient"},
    {"path": "Patient.name", "cardinality": "0..*", "type": "HumanName", "description": "A name associated with the patient"},
    {"path": "Patient.name.family", "cardinality": "0..1", "type": "string", "description": "Family name"},
    {"path": "Patient.gender", "cardinality": "0..1", "type": "code", "description": "male | female | other | unknown"}
  ]
}`

const usCorePatient = `{
  "resourceType": "StructureDefinition",
  "id": "us-core-patient",
  "url": "http://hl7.org/fhir/us/core/StructureDefinition/us-core-patient",
  "name": "USCorePatientProfile",
  "kind": "resource",
  "type": "Patient",
  "baseDefinition": "http://hl7.org/fhir/StructureDefinition/Patient",
  "derivation": "constraint",
  "differential": {"element": [
    {"id": "Patient", "path": "Patient"},
    {"id": "Patient.identifier", "path": "Patient.identifier", "min": 1, "max": "*", "mustSupport": true, "type": [{"code": "Identifier"}]},
    {"id": "Patient.name", "path": "Patient.name", "min": 1, "max": "*", "mustSupport": true, "type": [{"code": "HumanName"}]},
    {"id": "Patient.gender", "path": "Patient.gender", "min": 1, "max": "1", "mustSupport": true, "type": [{"code": "code"}]},
    {"id": "Patient.birthDate", "path": "Patient.birthDate", "min": 0, "max": "1", "mustSupport": true, "type": [{"code": "date"}]}
  ]}
}`

const addressFlat = `{
  "name": "Address",
  "type": "Address",
  "elements": [
    {"path": "Address.id", "cardinality": "0..1", "type": "string", "description": "Unique id"},
    {"path": "Address.extension", "cardinality": "0..*", "type": "Extension", "description": "Additional content"},
    {"path": "Address.line", "cardinality": "0..*", "type": "string", "description": "Street name"}
  ]
}`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"fhir-r4/resources/Patient.json":                   {Data: []byte(patientFlat)},
		"fhir-r4/resources/Broken.json":                    {Data: []byte(`{"name":"Broken"}`)},
		"fhir-r4/datatypes/Address.json":                   {Data: []byte(addressFlat)},
		"us-core-stu6.1/profiles/USCorePatientProfile.json": {Data: []byte(usCorePatient)},
	}
}

func newTestService() *Service {
	s := store.New(store.NewFSSource(testFS()), fhir.NewNormalizer(), store.WithCacheSize(16))
	return NewService(s, fhir.DefaultInheritancePolicy(), fhir.DefaultDescriptionLimit, zerolog.Nop())
}
