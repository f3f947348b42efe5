package followup

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driftwatch/domain/cohort"
	"driftwatch/domain/risk"
	"driftwatch/internal/errors"
)

func TestNewGenerator_DefaultTemplatesPassAudit(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)
	require.NotNil(t, g)
}

func TestQuestion_DeterministicForSamePersonAndScore(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	first := g.Question("person-1", 72, risk.CategoryPsychoEmotional, "stress_level")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, g.Question("person-1", 72, risk.CategoryPsychoEmotional, "stress_level"))
	}
}

func TestQuestion_VariesAcrossPersons(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := cohort.PersonID(fmt.Sprintf("person-%02d", i))
		seen[g.Question(id, 72, risk.CategoryPsychoEmotional, "stress_level")] = true
	}
	assert.Greater(t, len(seen), 1, "fifty persons should not all draw the same candidate")
}

func TestQuestion_FeatureKeyTakesPrecedence(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	q := g.Question("person-1", 55, risk.CategoryMetabolic, "sleep_hours")
	assert.Contains(t, defaultTemplates()[templateKey{Feature: "sleep_hours"}], q)
}

func TestQuestion_FallsBackToCategoryThenGeneral(t *testing.T) {
	g, err := NewGenerator()
	require.NoError(t, err)

	q := g.Question("person-1", 55, risk.CategoryMetabolic, "unmapped_feature")
	assert.Contains(t, defaultTemplates()[templateKey{Category: risk.CategoryMetabolic}], q)

	q = g.Question("person-1", 55, risk.Category("Unknown"), "")
	assert.Contains(t, defaultTemplates()[keyGeneral], q)
}

func TestAuditTemplates_RejectsForbiddenPhrases(t *testing.T) {
	templates := map[templateKey][]string{
		keyGeneral: {
			"Would you like to share how you've been feeling?",
			"Is there anything going on you'd like to mention?",
			"You should see a doctor about a possible diagnosis.",
		},
	}
	err := auditTemplates(templates)
	require.Error(t, err)
	assert.Equal(t, errors.CodeTemplateUnsafe, errors.GetCode(err))
}

func TestAuditTemplates_EnforcesCandidateCount(t *testing.T) {
	templates := map[templateKey][]string{
		keyGeneral: {
			"Would you like to share how you've been feeling?",
			"Is there anything going on you'd like to mention?",
		},
	}
	err := auditTemplates(templates)
	require.Error(t, err)
	assert.Equal(t, errors.CodeTemplateUnsafe, errors.GetCode(err))
}

func TestDefaultTemplates_CoverEveryFeatureAndCategory(t *testing.T) {
	templates := defaultTemplates()
	for name := range cohort.DefaultPolarityTable() {
		assert.Contains(t, templates, templateKey{Feature: name}, "feature %s needs a template set", name)
	}
	for _, group := range cohort.SignalGroups {
		assert.Contains(t, templates, templateKey{Category: risk.Category(group)})
	}
	assert.Contains(t, templates, keyGeneral)
}
