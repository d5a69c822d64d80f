package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollowprose/graphein/core/config"
)

func TestCompileRulesBadPattern(t *testing.T) {
	_, err := compileRules([]config.ClassRule{
		{Name: "broken", Patterns: []string{"["}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `rule "broken"`)
}

func TestApplyRulesFirstMatchWins(t *testing.T) {
	rules, err := compileRules([]config.ClassRule{
		{Name: "gallows", Role: "operator", Hazard: true, Patterns: []string{"k*"}},
		{Name: "catchall", Role: "filler", Patterns: []string{"*"}},
	})
	require.NoError(t, err)

	r, ok := applyRules(rules, "ked", nil)
	require.True(t, ok)
	assert.Equal(t, "gallows", r.name)
	assert.True(t, r.hazard)

	r, ok = applyRules(rules, "ed", nil)
	require.True(t, ok)
	assert.Equal(t, "catchall", r.name)
}

func TestApplyRulesMatchesPrefixedForm(t *testing.T) {
	rules, err := compileRules([]config.ClassRule{
		{Name: "q-marked", Role: "marker", Patterns: []string{"qo*"}},
	})
	require.NoError(t, err)

	// The bare middle misses, but the observed qo+middle form matches.
	_, ok := applyRules(rules, "k", nil)
	assert.False(t, ok)

	r, ok := applyRules(rules, "k", map[string]int{"qo": 3, "o": 1})
	require.True(t, ok)
	assert.Equal(t, "q-marked", r.name)
}

func TestApplyRulesNoMatch(t *testing.T) {
	rules, err := compileRules([]config.ClassRule{
		{Name: "gallows", Patterns: []string{"k*"}},
	})
	require.NoError(t, err)

	_, ok := applyRules(rules, "ed", map[string]int{"ch": 2})
	assert.False(t, ok)
}
