package forms

import "github.com/medplanner/medplanner/services/clinic-api/internal/model"

// DefaultForms returns the intake questionnaires bundled with the service.
// They are inserted at startup when the specialization has no form yet.
func DefaultForms() []model.QuestionnaireForm {
	return []model.QuestionnaireForm{
		{
			Specialization: "general",
			FormName:       "General Intake",
			Questions: []model.Question{
				{
					QuestionID: "gen-1",
					Question:   "How would you rate your overall health?",
					HasOptions: true,
					Options:    []string{"Poor", "Fair", "Good", "Excellent"},
					OptionsValue: []float64{0, 1, 2, 3},
				},
				{
					QuestionID: "gen-2",
					Question:   "Do you currently take any prescription medication?",
					Type:       "boolean",
				},
				{
					QuestionID: "gen-3",
					Question:   "Describe your main complaint.",
					Type:       "text",
				},
			},
		},
		{
			Specialization: "cardiology",
			FormName:       "Cardiology Intake",
			Questions: []model.Question{
				{
					QuestionID: "card-1",
					Question:   "How often do you experience chest pain?",
					HasOptions: true,
					Options:    []string{"Never", "Rarely", "Weekly", "Daily"},
					OptionsValue: []float64{0, 1, 2, 3},
				},
				{
					QuestionID: "card-2",
					Question:   "What is your resting heart rate?",
					Type:       "number",
				},
				{
					QuestionID: "card-3",
					Question:   "Do you smoke?",
					Type:       "boolean",
				},
			},
		},
		{
			Specialization: "psychiatry",
			FormName:       "Mood Screening",
			Questions: []model.Question{
				{
					QuestionID: "psy-1",
					Question:   "Little interest or pleasure in doing things?",
					HasOptions: true,
					Options:    []string{"Not at all", "Several days", "More than half the days", "Nearly every day"},
					OptionsValue: []float64{0, 1, 2, 3},
				},
				{
					QuestionID: "psy-2",
					Question:   "Feeling down, depressed, or hopeless?",
					HasOptions: true,
					Options:    []string{"Not at all", "Several days", "More than half the days", "Nearly every day"},
					OptionsValue: []float64{0, 1, 2, 3},
				},
			},
		},
	}
}
