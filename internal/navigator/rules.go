package navigator

import (
	"math"
	"strconv"
	"strings"

	"github.com/pulsecheck-labs/survey-runtime/internal/models"
)

// matchRule evaluates a question's branching rules in list order against the
// just-submitted answer and returns the target of the first match. No match,
// or no rules, returns matched == false.
func matchRule(rules []models.Rule, answer models.AnswerValue) (target string, matched bool) {
	for _, rule := range rules {
		if ruleMatches(rule, answer) {
			return rule.Target, true
		}
	}
	return "", false
}

// ruleMatches is a closed switch over the condition set; rules are never a
// general expression language. equals/not_equals compare string forms;
// greater_than/less_than compare numeric forms, where a non-numeric operand
// coerces to NaN and the comparison is false.
func ruleMatches(rule models.Rule, answer models.AnswerValue) bool {
	switch rule.Condition {
	case models.ConditionEquals:
		return answer.StringForm() == rule.ComparisonValue
	case models.ConditionNotEquals:
		return answer.StringForm() != rule.ComparisonValue
	case models.ConditionGreaterThan:
		a, c := answer.NumericForm(), comparisonNumber(rule.ComparisonValue)
		return !math.IsNaN(a) && !math.IsNaN(c) && a > c
	case models.ConditionLessThan:
		a, c := answer.NumericForm(), comparisonNumber(rule.ComparisonValue)
		return !math.IsNaN(a) && !math.IsNaN(c) && a < c
	default:
		return false
	}
}

func comparisonNumber(s string) float64 {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

// questionPosition locates a rule target in the question list. Not finding it
// is a defined fallback, not an error.
func questionPosition(questions []models.Question, id string) (int, bool) {
	for i, q := range questions {
		if q.ID == id {
			return i, true
		}
	}
	return 0, false
}
