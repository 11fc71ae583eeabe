package utils

import (
	"fmt"
	"strconv"

	"github.com/pulsecheck-labs/survey-runtime/internal/models"
)

// SurveyValidator checks survey definitions before they are handed to the
// navigator. Errors make a definition unusable; warnings flag authoring gaps
// that the runtime tolerates through defined fallbacks.
type SurveyValidator struct{}

func NewSurveyValidator() *SurveyValidator {
	return &SurveyValidator{}
}

// ValidateSurvey validates a complete definition and returns fatal errors
// alongside non-fatal authoring warnings.
func (v *SurveyValidator) ValidateSurvey(survey *models.Survey) (warnings []string, err error) {
	if survey.Title == "" {
		return nil, fmt.Errorf("survey title is required")
	}
	if len(survey.Questions) == 0 {
		return nil, fmt.Errorf("survey must have at least one question")
	}

	ids := make(map[string]bool, len(survey.Questions))
	for _, q := range survey.Questions {
		if ids[q.ID] {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		ids[q.ID] = true
	}

	for i := range survey.Questions {
		q := &survey.Questions[i]
		if qErr := v.validateQuestion(q); qErr != nil {
			return nil, fmt.Errorf("question %q: %w", q.ID, qErr)
		}
		warnings = append(warnings, v.ruleWarnings(q, ids)...)
	}

	return warnings, nil
}

func (v *SurveyValidator) validateQuestion(q *models.Question) error {
	if q.Text == "" {
		return fmt.Errorf("question text is required")
	}

	switch q.Kind {
	case models.KindScale:
		if q.ScaleMin == nil || q.ScaleMax == nil {
			return fmt.Errorf("scale question requires min and max")
		}
		if *q.ScaleMin >= *q.ScaleMax {
			return fmt.Errorf("scale min (%d) must be less than max (%d)", *q.ScaleMin, *q.ScaleMax)
		}
	case models.KindChoice, models.KindMultiSelect:
		if len(q.Options) == 0 {
			return fmt.Errorf("%s question requires at least one option", q.Kind)
		}
	case models.KindText, models.KindRating:
		// no kind-specific constraints; rating is always 1-5
	default:
		return fmt.Errorf("unsupported question kind: %s", q.Kind)
	}

	for i, rule := range q.BranchingRules {
		switch rule.Condition {
		case models.ConditionEquals, models.ConditionNotEquals,
			models.ConditionGreaterThan, models.ConditionLessThan:
		default:
			return fmt.Errorf("rule %d has unsupported condition %q", i, rule.Condition)
		}
		if rule.Target == "" {
			return fmt.Errorf("rule %d has no target", i)
		}
	}

	return nil
}

// ruleWarnings surfaces configurations the runtime degrades gracefully on:
// numeric comparisons against non-numeric question kinds (which can only
// match if the answer text parses as a number) and targets that point at no
// question (which fall back to default ordering).
func (v *SurveyValidator) ruleWarnings(q *models.Question, ids map[string]bool) []string {
	var warnings []string
	for i, rule := range q.BranchingRules {
		numeric := rule.Condition == models.ConditionGreaterThan || rule.Condition == models.ConditionLessThan
		if numeric && !q.Kind.IsNumeric() {
			warnings = append(warnings, fmt.Sprintf(
				"question %q rule %d: %s comparison on a %s question matches only numeric-looking answers",
				q.ID, i, rule.Condition, q.Kind))
		}
		if numeric {
			if _, err := strconv.ParseFloat(rule.ComparisonValue, 64); err != nil {
				warnings = append(warnings, fmt.Sprintf(
					"question %q rule %d: comparison value %q is not numeric, rule can never match",
					q.ID, i, rule.ComparisonValue))
			}
		}
		if rule.Target != models.RuleTargetEnd && !ids[rule.Target] {
			warnings = append(warnings, fmt.Sprintf(
				"question %q rule %d: target %q matches no question, default ordering will apply",
				q.ID, i, rule.Target))
		}
	}
	return warnings
}
