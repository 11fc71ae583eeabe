package models

import (
	"math"
	"strconv"
	"strings"
)

type ValueKind string

const (
	ValueNumber ValueKind = "number"
	ValueText   ValueKind = "text"
	ValueList   ValueKind = "list"
)

// AnswerValue is the runtime value of a single answer: a number for
// scale/rating questions, a string for text/choice, or a list of selected
// labels for multi_select. The zero value means "no answer given".
type AnswerValue struct {
	Kind   ValueKind `json:"kind"`
	Number float64   `json:"number,omitempty"`
	Text   string    `json:"text,omitempty"`
	List   []string  `json:"list,omitempty"`
}

func NumberValue(n float64) AnswerValue {
	return AnswerValue{Kind: ValueNumber, Number: n}
}

func TextValue(s string) AnswerValue {
	return AnswerValue{Kind: ValueText, Text: s}
}

func ListValue(items []string) AnswerValue {
	return AnswerValue{Kind: ValueList, List: items}
}

// IsEmpty reports whether the value counts as "not answered" for required
// validation: absent, an empty string, or an empty selection list. A number
// is never empty once given.
func (v AnswerValue) IsEmpty() bool {
	switch v.Kind {
	case ValueNumber:
		return false
	case ValueText:
		return v.Text == ""
	case ValueList:
		return len(v.List) == 0
	default:
		return true
	}
}

// StringForm renders the value the way JS string coercion would: numbers
// without trailing zeros, lists as a comma join.
func (v AnswerValue) StringForm() string {
	switch v.Kind {
	case ValueNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case ValueText:
		return v.Text
	case ValueList:
		return strings.Join(v.List, ",")
	default:
		return ""
	}
}

// NumericForm mirrors JS Number() coercion: non-numeric values become NaN,
// which makes every ordering comparison evaluate false.
func (v AnswerValue) NumericForm() float64 {
	switch v.Kind {
	case ValueNumber:
		return v.Number
	case ValueText:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
		if err != nil {
			return math.NaN()
		}
		return n
	default:
		return math.NaN()
	}
}
