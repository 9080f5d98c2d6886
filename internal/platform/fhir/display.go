package fhir

import (
	"strings"
	"unicode"

	"github.com/iancoleman/strcase"
)

// DefaultDescriptionLimit is the two-row description budget in characters.
const DefaultDescriptionLimit = 150

// Ellipsis marks a truncated description.
const Ellipsis = "..."

// canonicalDescriptions replace the governance boilerplate carried by the
// generic extension elements.
var canonicalDescriptions = map[string]string{
	"extension":         "Additional content defined by implementations",
	"modifierExtension": "Extensions that cannot be ignored",
}

// Display is the presentation form of a field description. Full always holds
// the untouched text.
type Display struct {
	Short     string `json:"short"`
	Full      string `json:"full,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
}

// DescribeField returns the display description of a field.
func DescribeField(f FieldRecord, limit int) Display {
	if canonical, ok := canonicalDescriptions[LocalName(f.Path)]; ok {
		return Display{Short: canonical, Full: f.Description, Truncated: f.Description != canonical}
	}
	short, truncated := TruncateDescription(f.Description, limit)
	return Display{Short: short, Full: f.Description, Truncated: truncated}
}

// TruncateDescription shortens s to fit within limit characters, cutting at the
// last word boundary before the limit and appending Ellipsis. Text that fits
// is returned unchanged. Text with no word boundary to cut at is also
// returned unchanged, since cutting would split a word.
func TruncateDescription(s string, limit int) (string, bool) {
	if limit <= 0 {
		limit = DefaultDescriptionLimit
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s, false
	}

	cut := -1
	for i := limit; i > 0; i-- {
		if unicode.IsSpace(runes[i]) {
			cut = i
			break
		}
	}
	if cut < 0 {
		// The first word alone exceeds the budget; end after it.
		for i := limit + 1; i < len(runes); i++ {
			if unicode.IsSpace(runes[i]) {
				cut = i
				break
			}
		}
	}
	if cut < 0 {
		return s, false
	}

	prefix := strings.TrimRightFunc(string(runes[:cut]), unicode.IsSpace)
	if prefix == "" {
		return s, false
	}
	return prefix + Ellipsis, true
}

// CleanProfileName strips the profile-family prefix and the "Profile" suffix
// from a profile name or id: "USCorePatientProfile" and "us-core-patient" both
// become "Patient". Names without the convention are returned as-is.
func CleanProfileName(name string) string {
	cleaned := strings.TrimSpace(name)
	for _, prefix := range []string{"USCore", "US Core ", "us-core-", "uscore-"} {
		if strings.HasPrefix(cleaned, prefix) {
			cleaned = strings.TrimPrefix(cleaned, prefix)
			break
		}
	}
	cleaned = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(cleaned, "Profile"), "-profile"))
	if cleaned == "" {
		return name
	}
	if strings.ContainsAny(cleaned, "- _") || unicode.IsLower([]rune(cleaned)[0]) {
		cleaned = strcase.ToCamel(cleaned)
	}
	return cleaned
}

// DisplayName is the label shown for a descriptor in breadcrumbs and on the
// inheritance root.
func DisplayName(d *ResourceDescriptor) string {
	if d.IsProfile() {
		return CleanProfileName(d.Name)
	}
	return d.Name
}

// FilterOptions narrows a forest for display.
type FilterOptions struct {
	HideExtensions  bool
	MustSupportOnly bool
	// MaxDepth limits field depth; zero means unlimited.
	MaxDepth int
}

func (o FilterOptions) active() bool {
	return o.HideExtensions || o.MustSupportOnly || o.MaxDepth > 0
}

// FilterTree returns a filtered copy of the forest. Required and must-support
// fields are always kept, as are the ancestors of every kept node. A synthetic
// root survives only while it has children.
func FilterTree(forest []*FieldTreeNode, opts FilterOptions) []*FieldTreeNode {
	if !opts.active() {
		return forest
	}
	out := make([]*FieldTreeNode, 0, len(forest))
	for _, n := range forest {
		if kept := filterNode(n, opts); kept != nil {
			out = append(out, kept)
		}
	}
	return out
}

func filterNode(n *FieldTreeNode, opts FilterOptions) *FieldTreeNode {
	var children []*FieldTreeNode
	for _, c := range n.Children {
		if kept := filterNode(c, opts); kept != nil {
			children = append(children, kept)
		}
	}

	keep := len(children) > 0
	if !n.Synthetic {
		keep = keep || alwaysShown(n.Field) || passes(n.Field, opts)
	}
	if !keep {
		return nil
	}
	cp := *n
	cp.Children = children
	return &cp
}

func alwaysShown(f FieldRecord) bool {
	return f.Cardinality.Required() || f.MustSupport
}

func passes(f FieldRecord, opts FilterOptions) bool {
	if opts.HideExtensions && f.IsExtension {
		return false
	}
	if opts.MustSupportOnly && !f.MustSupport {
		return false
	}
	if opts.MaxDepth > 0 && f.Depth() > opts.MaxDepth {
		return false
	}
	return true
}
