package kb

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inception-project/concept-linker-go/internal/apptype"
)

func TestConditionsAreImmutable(t *testing.T) {
	base := NewConditions(apptype.ValueTypeConcept).DescendantsOf("http://example.org/root")

	exact := base.WithLabelMatchingExactlyAnyOf("Paris")
	prefix := base.WithLabelStartingWith("Par")
	contains := base.WithLabelContainingAnyOf("aris")

	// Deriving strategies must not write through to the shared base.
	assert.Equal(t, MatchNone, base.Match())
	assert.Empty(t, base.Labels())

	assert.Equal(t, MatchLabelExact, exact.Match())
	assert.Equal(t, []string{"Paris"}, exact.Labels())
	assert.Equal(t, MatchLabelPrefix, prefix.Match())
	assert.Equal(t, []string{"Par"}, prefix.Labels())
	assert.Equal(t, MatchLabelContains, contains.Match())
	assert.Equal(t, []string{"aris"}, contains.Labels())

	// All derived sets keep the base scope.
	assert.Equal(t, "http://example.org/root", exact.Scope())
	assert.Equal(t, "http://example.org/root", prefix.Scope())
	assert.Equal(t, "http://example.org/root", contains.Scope())
}

func TestConditionsSwitchingPrimaryConditionClearsOperands(t *testing.T) {
	c := NewConditions(apptype.ValueTypeAnyObject).
		WithLabelMatchingExactlyAnyOf("Paris", "paris").
		WithIdentifier("http://example.org/Paris")

	assert.Equal(t, MatchIdentifier, c.Match())
	assert.Equal(t, "http://example.org/Paris", c.Identifier())
	assert.Empty(t, c.Labels())

	back := c.WithLabelStartingWith("Par")
	assert.Equal(t, MatchLabelPrefix, back.Match())
	assert.Empty(t, back.Identifier())
}

func TestConditionsLabelsReturnsCopy(t *testing.T) {
	c := NewConditions(apptype.ValueTypeAnyObject).WithLabelMatchingExactlyAnyOf("a", "b")

	labels := c.Labels()
	labels[0] = "mutated"

	assert.Equal(t, []string{"a", "b"}, c.Labels())
}

func TestConditionsKey(t *testing.T) {
	a := NewConditions(apptype.ValueTypeConcept).WithLabelStartingWith("Par").RetrieveLabel()
	b := NewConditions(apptype.ValueTypeConcept).WithLabelStartingWith("Par").RetrieveLabel()
	c := NewConditions(apptype.ValueTypeConcept).WithLabelStartingWith("Par")
	d := NewConditions(apptype.ValueTypeInstance).WithLabelStartingWith("Par").RetrieveLabel()

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.NotEqual(t, a.Key(), d.Key())
}

func TestConditionsWireRoundTrip(t *testing.T) {
	original := NewConditions(apptype.ValueTypeInstance).
		DescendantsOf("http://example.org/City").
		WithLabelContainingAnyOf("Paris", "Lutetia").
		RetrieveLabel().
		RetrieveDescription()

	encoded, err := json.Marshal(original.ToWire())
	require.NoError(t, err)

	var wire Wire
	require.NoError(t, json.Unmarshal(encoded, &wire))

	decoded := FromWire(wire)
	assert.Equal(t, original.Key(), decoded.Key())
}
