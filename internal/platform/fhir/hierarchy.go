package fhir

import "fmt"

// FieldTreeNode is one node of the field forest. The synthetic inheritance
// root wraps a synthesized record and only ever appears first at top level.
type FieldTreeNode struct {
	Field     FieldRecord      `json:"field"`
	Synthetic bool             `json:"synthetic,omitempty"`
	BaseLabel string           `json:"baseLabel,omitempty"`
	Display   Display          `json:"display"`
	Children  []*FieldTreeNode `json:"children,omitempty"`
}

// TreeBuilder reconstructs the field forest from a flat field list.
type TreeBuilder struct {
	// DescriptionLimit is the display budget used when filling node
	// descriptions. Zero means DefaultDescriptionLimit.
	DescriptionLimit int
}

// BuildTree builds a forest with the default description limit.
func BuildTree(fields []FieldRecord, displayName string, cls Classification) []*FieldTreeNode {
	return (&TreeBuilder{}).Build(fields, displayName, cls)
}

// Build partitions fields into inherited and business content and returns the
// ordered top-level forest. Every input field is reachable exactly once.
//
// A field is inherited only when it is a direct child of the root and its
// local name is in the classification's inherited set, so a nested field that
// happens to be called "id" stays under its real parent.
func (b *TreeBuilder) Build(fields []FieldRecord, displayName string, cls Classification) []*FieldTreeNode {
	limit := b.DescriptionLimit
	if limit <= 0 {
		limit = DefaultDescriptionLimit
	}

	var inherited, business []FieldRecord
	for _, f := range fields {
		if cls.Base != BaseNone && f.Depth() <= 1 && cls.Inherits(LocalName(f.Path)) {
			inherited = append(inherited, f)
		} else {
			business = append(business, f)
		}
	}

	forest := make([]*FieldTreeNode, 0, len(business)+1)
	if len(inherited) > 0 {
		forest = append(forest, inheritanceRoot(inherited, displayName, cls.Base, limit))
	}

	nodes := make([]*FieldTreeNode, len(business))
	byPath := make(map[string]*FieldTreeNode, len(business))
	for i, f := range business {
		nodes[i] = &FieldTreeNode{Field: f, Display: DescribeField(f, limit)}
		// Repeated paths (slices) resolve children to the first occurrence.
		if _, ok := byPath[f.Path]; !ok {
			byPath[f.Path] = nodes[i]
		}
	}

	for _, n := range nodes {
		if n.Field.Depth() <= 1 {
			forest = append(forest, n)
			continue
		}
		parent, ok := byPath[n.Field.ParentPath()]
		if !ok || parent == n {
			// Orphans are shown at top level rather than dropped.
			forest = append(forest, n)
			continue
		}
		parent.Children = append(parent.Children, n)
	}
	return forest
}

func inheritanceRoot(inherited []FieldRecord, displayName string, base BaseKind, limit int) *FieldTreeNode {
	rootPath := rootSegment(inherited[0].Path)
	if displayName == "" {
		displayName = rootPath
	}
	description := fmt.Sprintf("Common fields inherited from %s", base.Label())
	root := &FieldTreeNode{
		Field: FieldRecord{
			Path:        rootPath,
			Name:        displayName,
			Description: description,
		},
		Synthetic: true,
		BaseLabel: base.Label(),
		Display:   Display{Short: description, Full: description},
		Children:  make([]*FieldTreeNode, 0, len(inherited)),
	}
	for _, f := range inherited {
		root.Children = append(root.Children, &FieldTreeNode{Field: f, Display: DescribeField(f, limit)})
	}
	return root
}

// Walk visits every node depth first in display order. Returning false from
// fn skips the node's children.
func Walk(forest []*FieldTreeNode, fn func(n *FieldTreeNode, level int) bool) {
	walk(forest, 0, fn)
}

func walk(nodes []*FieldTreeNode, level int, fn func(*FieldTreeNode, int) bool) {
	for _, n := range nodes {
		if fn(n, level) {
			walk(n.Children, level+1, fn)
		}
	}
}

// CountFields returns the number of real (non-synthetic) fields in a forest.
func CountFields(forest []*FieldTreeNode) int {
	count := 0
	Walk(forest, func(n *FieldTreeNode, _ int) bool {
		if !n.Synthetic {
			count++
		}
		return true
	})
	return count
}
