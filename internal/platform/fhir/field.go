package fhir

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ============================================================================
// Cardinality
// ============================================================================

// Cardinality is the (min, max) occurrence constraint of an element.
type Cardinality struct {
	Min       int
	Max       int
	Unbounded bool
}

// NewCardinality builds a Cardinality from the raw min/max pair found in an
// ElementDefinition. A nil min defaults to 0 and an empty max defaults to "1".
func NewCardinality(min *int, max string) (Cardinality, error) {
	c := Cardinality{Max: 1}
	if min != nil {
		if *min < 0 {
			return Cardinality{}, fmt.Errorf("negative min cardinality %d", *min)
		}
		c.Min = *min
	}
	switch max {
	case "":
	case "*":
		c.Unbounded = true
		c.Max = 0
	default:
		n, err := strconv.Atoi(max)
		if err != nil || n < 0 {
			return Cardinality{}, fmt.Errorf("invalid max cardinality %q", max)
		}
		c.Max = n
	}
	return c, nil
}

// ParseCardinality parses the rendered "min..max" form.
func ParseCardinality(s string) (Cardinality, error) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(s), "..")
	if !ok {
		return Cardinality{}, fmt.Errorf("invalid cardinality %q", s)
	}
	min, err := strconv.Atoi(lo)
	if err != nil {
		return Cardinality{}, fmt.Errorf("invalid cardinality %q", s)
	}
	if hi == "" {
		return Cardinality{}, fmt.Errorf("invalid cardinality %q", s)
	}
	return NewCardinality(&min, hi)
}

// String renders the cardinality as "min..max", using "*" for unbounded.
func (c Cardinality) String() string {
	if c.Unbounded {
		return strconv.Itoa(c.Min) + "..*"
	}
	return strconv.Itoa(c.Min) + ".." + strconv.Itoa(c.Max)
}

// Required reports whether at least one occurrence is mandatory.
func (c Cardinality) Required() bool {
	return c.Min > 0
}

func (c Cardinality) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Cardinality) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("cardinality must be a string: %w", err)
	}
	parsed, err := ParseCardinality(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ============================================================================
// Type list
// ============================================================================

// typeSeparator joins the type alternatives of a choice element.
const typeSeparator = " | "

// TypeList is the ordered set of type names an element may take.
// Its JSON form is the " | "-joined string used by the pre-normalized files;
// decoding also accepts a plain array.
type TypeList []string

// String joins the types with " | ".
func (t TypeList) String() string {
	return strings.Join(t, typeSeparator)
}

func (t TypeList) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TypeList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = ParseTypeList(s)
		return nil
	}
	var arr []string
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("type must be a string or an array of strings: %w", err)
	}
	*t = arr
	return nil
}

// ParseTypeList splits a " | "-joined type string. Parameterized forms such as
// Reference(A|B) use a bare "|" and are kept intact.
func ParseTypeList(s string) TypeList {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, typeSeparator)
	out := make(TypeList, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ============================================================================
// FieldRecord
// ============================================================================

// Binding names the value set constraining a coded field.
type Binding struct {
	Strength    string `json:"strength,omitempty"` // required, extensible, preferred, example
	ValueSet    string `json:"valueSet,omitempty"`
	Description string `json:"description,omitempty"`
}

// Constraint is an invariant attached to a field. The viewer does not
// evaluate it.
type Constraint struct {
	Key        string `json:"key,omitempty"`
	Severity   string `json:"severity,omitempty"`
	Human      string `json:"human,omitempty"`
	Expression string `json:"expression,omitempty"`
}

// FieldRecord is one normalized element definition.
type FieldRecord struct {
	ID          string       `json:"id,omitempty"`
	Path        string       `json:"path"`
	Name        string       `json:"name"`
	Cardinality Cardinality  `json:"cardinality"`
	Type        TypeList     `json:"type"`
	Short       string       `json:"short,omitempty"`
	Description string       `json:"description"`
	MustSupport bool         `json:"mustSupport,omitempty"`
	IsModifier  bool         `json:"isModifier,omitempty"`
	IsSummary   bool         `json:"isSummary,omitempty"`
	Binding     *Binding     `json:"binding,omitempty"`
	Constraints []Constraint `json:"constraints,omitempty"`
	IsExtension bool         `json:"isExtension,omitempty"`
}

// Depth is the number of path segments below the resource root.
// "Patient.contact.name" has depth 2.
func (f FieldRecord) Depth() int {
	return PathDepth(f.Path)
}

// ParentPath returns the path with its last segment removed.
func (f FieldRecord) ParentPath() string {
	return ParentPath(f.Path)
}

// PathDepth counts the dots in a dotted element path.
func PathDepth(path string) int {
	return strings.Count(path, ".")
}

// ParentPath drops the last segment of a dotted path. A path without dots
// has no parent and yields "".
func ParentPath(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return path[:i]
}

// LocalName returns the last segment of a dotted path.
func LocalName(path string) string {
	return path[strings.LastIndexByte(path, '.')+1:]
}

func isExtensionPath(path string) bool {
	return strings.Contains(path, "extension")
}
