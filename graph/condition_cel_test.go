package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileCondition_Comparison(t *testing.T) {
	cond, err := CompileCondition(`context["router.confidence"] >= 0.5`)
	require.NoError(t, err)

	assert.True(t, cond(With(NewContext(), KeyRouterConfidence, 0.7)))
	assert.False(t, cond(With(NewContext(), KeyRouterConfidence, 0.3)))
}

func TestCompileCondition_MissingKeyRejects(t *testing.T) {
	cond, err := CompileCondition(`context["absent"] == "x"`)
	require.NoError(t, err)

	// Missing keys are an evaluation error inside CEL; the condition
	// turns that into a rejection.
	assert.False(t, cond(NewContext()))
}

func TestCompileCondition_MembershipGuard(t *testing.T) {
	cond, err := CompileCondition(`"tier" in context && context["tier"] == "gold"`)
	require.NoError(t, err)

	assert.False(t, cond(NewContext()))
	assert.True(t, cond(With(NewContext(), tierKey, "gold")))
	assert.False(t, cond(With(NewContext(), tierKey, "silver")))
}

func TestCompileCondition_StringFunctions(t *testing.T) {
	selected := NewContextKey[string]("router.selected")

	cond, err := CompileCondition(`context["router.selected"].startsWith("billing")`)
	require.NoError(t, err)

	assert.True(t, cond(With(NewContext(), selected, "billing-eu")))
	assert.False(t, cond(With(NewContext(), selected, "support")))
}

func TestCompileCondition_SyntaxErrorFailsCompilation(t *testing.T) {
	_, err := CompileCondition(`context[`)
	assert.Error(t, err)
}

func TestCompileCondition_NonBooleanRejected(t *testing.T) {
	_, err := CompileCondition(`context["score"]`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boolean")

	_, err = CompileCondition(`1 + 1`)
	assert.Error(t, err)
}

func TestMustCompileCondition_PanicsOnBadExpression(t *testing.T) {
	assert.Panics(t, func() {
		MustCompileCondition(`not valid cel ]]`)
	})
	assert.NotPanics(t, func() {
		MustCompileCondition(`true`)
	})
}

func TestCompileCondition_OnWorkflowEdge(t *testing.T) {
	cond := MustCompileCondition(`context["score"] > 0.5`)

	e := Edge{ID: "a->b#0", From: "a", To: "b", Condition: cond}

	assert.True(t, e.allows(With(NewContext(), scoreKey, 0.9)))
	assert.False(t, e.allows(With(NewContext(), scoreKey, 0.1)))
}
