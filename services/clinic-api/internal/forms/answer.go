// Package forms resolves questionnaire answers to their scored values.
package forms

import (
	"strconv"
	"strings"

	"github.com/medplanner/medplanner/services/clinic-api/internal/model"
)

// AnswerValue maps a raw answer to its stored value. For option questions
// the selected label is matched against Options, first exactly and then
// case-insensitively, and the index-aligned OptionsValue entry is returned.
// Free-form questions coerce by Type. Unresolvable answers yield nil.
func AnswerValue(q model.Question, selected string) any {
	if q.HasOptions {
		idx := optionIndex(q.Options, selected)
		if idx < 0 || idx >= len(q.OptionsValue) {
			return nil
		}
		return q.OptionsValue[idx]
	}

	switch q.Type {
	case "number":
		f, err := strconv.ParseFloat(strings.TrimSpace(selected), 64)
		if err != nil {
			return nil
		}
		return f
	case "boolean":
		switch strings.ToLower(strings.TrimSpace(selected)) {
		case "true", "1":
			return true
		case "false", "0":
			return false
		}
		return nil
	default:
		return selected
	}
}

func optionIndex(options []string, selected string) int {
	for i, o := range options {
		if o == selected {
			return i
		}
	}
	for i, o := range options {
		if strings.EqualFold(o, selected) {
			return i
		}
	}
	return -1
}
