package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsecheck-labs/survey-runtime/internal/models"
)

func intPtr(n int) *int { return &n }

func validSurvey() *models.Survey {
	return &models.Survey{
		ID:    "s1",
		Title: "Follow-up",
		Questions: []models.Question{
			{
				ID: "q1", Text: "How satisfied are you?", Kind: models.KindScale,
				ScaleMin: intPtr(1), ScaleMax: intPtr(5), Position: 0,
			},
			{
				ID: "q2", Text: "Why?", Kind: models.KindText, Position: 1,
			},
		},
	}
}

func TestValidateSurvey(t *testing.T) {
	v := NewSurveyValidator()

	t.Run("valid survey has no warnings", func(t *testing.T) {
		warnings, err := v.ValidateSurvey(validSurvey())
		require.NoError(t, err)
		assert.Empty(t, warnings)
	})

	t.Run("missing title", func(t *testing.T) {
		s := validSurvey()
		s.Title = ""
		_, err := v.ValidateSurvey(s)
		assert.Error(t, err)
	})

	t.Run("no questions", func(t *testing.T) {
		s := validSurvey()
		s.Questions = nil
		_, err := v.ValidateSurvey(s)
		assert.Error(t, err)
	})

	t.Run("duplicate question ids", func(t *testing.T) {
		s := validSurvey()
		s.Questions[1].ID = "q1"
		_, err := v.ValidateSurvey(s)
		assert.Error(t, err)
	})

	t.Run("scale bounds must be ordered", func(t *testing.T) {
		s := validSurvey()
		s.Questions[0].ScaleMin = intPtr(5)
		s.Questions[0].ScaleMax = intPtr(5)
		_, err := v.ValidateSurvey(s)
		assert.Error(t, err)
	})

	t.Run("choice question needs options", func(t *testing.T) {
		s := validSurvey()
		s.Questions[1] = models.Question{ID: "q2", Text: "Pick one", Kind: models.KindChoice, Position: 1}
		_, err := v.ValidateSurvey(s)
		assert.Error(t, err)
	})

	t.Run("unsupported rule condition is fatal", func(t *testing.T) {
		s := validSurvey()
		s.Questions[0].BranchingRules = []models.Rule{
			{Condition: "between", ComparisonValue: "2", Target: "q2"},
		}
		_, err := v.ValidateSurvey(s)
		assert.Error(t, err)
	})

	t.Run("numeric condition on text question warns but passes", func(t *testing.T) {
		s := validSurvey()
		s.Questions[1].BranchingRules = []models.Rule{
			{Condition: models.ConditionGreaterThan, ComparisonValue: "3", Target: "q1"},
		}
		warnings, err := v.ValidateSurvey(s)
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "greater_than comparison on a text question")
	})

	t.Run("dangling target warns but passes", func(t *testing.T) {
		s := validSurvey()
		s.Questions[0].BranchingRules = []models.Rule{
			{Condition: models.ConditionEquals, ComparisonValue: "5", Target: "q99"},
		}
		warnings, err := v.ValidateSurvey(s)
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "matches no question")
	})

	t.Run("end target does not warn", func(t *testing.T) {
		s := validSurvey()
		s.Questions[0].BranchingRules = []models.Rule{
			{Condition: models.ConditionLessThan, ComparisonValue: "3", Target: models.RuleTargetEnd},
		}
		warnings, err := v.ValidateSurvey(s)
		require.NoError(t, err)
		assert.Empty(t, warnings)
	})

	t.Run("non-numeric comparison value on numeric condition warns", func(t *testing.T) {
		s := validSurvey()
		s.Questions[0].BranchingRules = []models.Rule{
			{Condition: models.ConditionLessThan, ComparisonValue: "low", Target: "q2"},
		}
		warnings, err := v.ValidateSurvey(s)
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], "not numeric")
	})
}
