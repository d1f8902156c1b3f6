package kb

import (
	"strings"

	"github.com/inception-project/concept-linker-go/internal/apptype"
)

// MatchKind selects the primary condition of a ConditionSet.
type MatchKind string

const (
	// MatchNone is the zero state; executing it is an error.
	MatchNone MatchKind = "none"
	// MatchIdentifier matches by exact identifier.
	MatchIdentifier MatchKind = "identifier"
	// MatchLabelExact matches labels exactly against any of a list of strings.
	MatchLabelExact MatchKind = "label-exact"
	// MatchLabelPrefix matches labels starting with a string.
	MatchLabelPrefix MatchKind = "label-prefix"
	// MatchLabelContains matches labels containing any of a list of strings.
	MatchLabelContains MatchKind = "label-contains"
)

// ConditionSet is an immutable description of a single retrieval strategy.
// All transformation methods return a modified copy, so a base condition set
// (e.g. one carrying the scope restriction) can be shared across strategies
// and diverged per strategy without aliasing. Construction never fails;
// validation is deferred to execution.
type ConditionSet struct {
	valueType           apptype.ValueType
	scope               string
	match               MatchKind
	identifier          string
	labels              []string
	retrieveLabel       bool
	retrieveDescription bool
}

// NewConditions starts a condition set for the given value type.
func NewConditions(valueType apptype.ValueType) ConditionSet {
	return ConditionSet{valueType: valueType, match: MatchNone}
}

// DescendantsOf restricts results to descendants of the given concept.
func (c ConditionSet) DescendantsOf(scope string) ConditionSet {
	c.scope = scope
	return c
}

// WithIdentifier matches by exact identifier.
func (c ConditionSet) WithIdentifier(identifier string) ConditionSet {
	c.match = MatchIdentifier
	c.identifier = identifier
	c.labels = nil
	return c
}

// WithLabelMatchingExactlyAnyOf matches labels exactly against any of the
// given strings.
func (c ConditionSet) WithLabelMatchingExactlyAnyOf(labels ...string) ConditionSet {
	c.match = MatchLabelExact
	c.identifier = ""
	c.labels = append([]string(nil), labels...)
	return c
}

// WithLabelStartingWith matches labels starting with the given string.
func (c ConditionSet) WithLabelStartingWith(prefix string) ConditionSet {
	c.match = MatchLabelPrefix
	c.identifier = ""
	c.labels = []string{prefix}
	return c
}

// WithLabelContainingAnyOf matches labels containing any of the given strings.
func (c ConditionSet) WithLabelContainingAnyOf(labels ...string) ConditionSet {
	c.match = MatchLabelContains
	c.identifier = ""
	c.labels = append([]string(nil), labels...)
	return c
}

// RetrieveLabel requests label retrieval.
func (c ConditionSet) RetrieveLabel() ConditionSet {
	c.retrieveLabel = true
	return c
}

// RetrieveDescription requests description retrieval.
func (c ConditionSet) RetrieveDescription() ConditionSet {
	c.retrieveDescription = true
	return c
}

// ValueType returns the target value type.
func (c ConditionSet) ValueType() apptype.ValueType { return c.valueType }

// Scope returns the scope restriction, or "" if none.
func (c ConditionSet) Scope() string { return c.scope }

// Match returns the primary condition kind.
func (c ConditionSet) Match() MatchKind { return c.match }

// Identifier returns the identifier for MatchIdentifier condition sets.
func (c ConditionSet) Identifier() string { return c.identifier }

// Labels returns a copy of the label operands.
func (c ConditionSet) Labels() []string { return append([]string(nil), c.labels...) }

// WantsLabel reports whether label retrieval was requested.
func (c ConditionSet) WantsLabel() bool { return c.retrieveLabel }

// WantsDescription reports whether description retrieval was requested.
func (c ConditionSet) WantsDescription() bool { return c.retrieveDescription }

// Key returns a stable cache key covering every field that affects execution.
func (c ConditionSet) Key() string {
	parts := []string{
		string(c.valueType),
		c.scope,
		string(c.match),
		c.identifier,
	}
	parts = append(parts, c.labels...)
	if c.retrieveLabel {
		parts = append(parts, "+label")
	}
	if c.retrieveDescription {
		parts = append(parts, "+description")
	}
	return strings.Join(parts, "\x1f")
}

// Wire is the JSON form of a ConditionSet used by remote backends.
type Wire struct {
	ValueType           apptype.ValueType `json:"valueType"`
	Scope               string            `json:"scope,omitempty"`
	Match               MatchKind         `json:"match"`
	Identifier          string            `json:"identifier,omitempty"`
	Labels              []string          `json:"labels,omitempty"`
	RetrieveLabel       bool              `json:"retrieveLabel,omitempty"`
	RetrieveDescription bool              `json:"retrieveDescription,omitempty"`
}

// ToWire converts the condition set to its wire form.
func (c ConditionSet) ToWire() Wire {
	return Wire{
		ValueType:           c.valueType,
		Scope:               c.scope,
		Match:               c.match,
		Identifier:          c.identifier,
		Labels:              c.Labels(),
		RetrieveLabel:       c.retrieveLabel,
		RetrieveDescription: c.retrieveDescription,
	}
}

// FromWire reconstructs a condition set from its wire form.
func FromWire(w Wire) ConditionSet {
	return ConditionSet{
		valueType:           w.ValueType,
		scope:               w.Scope,
		match:               w.Match,
		identifier:          w.Identifier,
		labels:              append([]string(nil), w.Labels...),
		retrieveLabel:       w.RetrieveLabel,
		retrieveDescription: w.RetrieveDescription,
	}
}
