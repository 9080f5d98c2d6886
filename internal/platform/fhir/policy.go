package fhir

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadInheritancePolicy reads an InheritancePolicy from a YAML file. Lists
// left out of the file keep their default values.
func LoadInheritancePolicy(path string) (InheritancePolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return InheritancePolicy{}, fmt.Errorf("read inheritance policy %s: %w", path, err)
	}
	return ParseInheritancePolicy(data)
}

// ParseInheritancePolicy parses YAML of the form
//
//	rootOnly: [Resource, Bundle, Binary, Parameters]
//	domainMarkers: [text, contained, extension, modifierExtension]
func ParseInheritancePolicy(data []byte) (InheritancePolicy, error) {
	var p InheritancePolicy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return InheritancePolicy{}, fmt.Errorf("parse inheritance policy: %w", err)
	}
	applyPolicyDefaults(&p)
	return p, nil
}

func applyPolicyDefaults(p *InheritancePolicy) {
	def := DefaultInheritancePolicy()
	if p.RootOnly == nil {
		p.RootOnly = def.RootOnly
	}
	if p.DomainMarkers == nil {
		p.DomainMarkers = def.DomainMarkers
	}
}
