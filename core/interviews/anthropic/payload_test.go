package anthropic

import (
	"strings"
	"testing"
)

func TestSanitizePreservesPlainJSON(t *testing.T) {
	payload := `{"score": 4}`
	if got := sanitizeEvaluationText(payload); got != payload {
		t.Fatalf("expected plain JSON untouched, got %q", got)
	}
}

func TestSanitizeStripsBacktickFences(t *testing.T) {
	payload := "```json\n{\"score\": 3}\n```"
	if got := sanitizeEvaluationText(payload); got != `{"score": 3}` {
		t.Fatalf("expected fences stripped, got %q", got)
	}
}

func TestSanitizeStripsTildeFences(t *testing.T) {
	payload := "~~~\n{\"score\": 2}\n~~~"
	if got := sanitizeEvaluationText(payload); got != `{"score": 2}` {
		t.Fatalf("expected tilde fences stripped, got %q", got)
	}
}

func TestSanitizeHandlesInlineFences(t *testing.T) {
	payload := "```{\"score\": 5}```"
	if got := sanitizeEvaluationText(payload); got != `{"score": 5}` {
		t.Fatalf("expected inline fences stripped, got %q", got)
	}
}

func TestDecodeEvaluationFiltersMalformedEntries(t *testing.T) {
	raw := `{
		"mode": "TOEFL",
		"criterion_scores": {},
		"equivalent_scores": {},
		"question_breakdown": [{"question_number": 1, "score": 3}, "invalid"],
		"strengths": ["Clear pronunciation", 123],
		"improvements": ["Add more detail", null],
		"specific_examples": {
			"good": ["Used advanced vocabulary", 5],
			"needs_work": ["Limited organisation", {}]
		},
		"detailed_feedback": "Solid response overall."
	}`

	report, err := decodeEvaluation(raw)
	if err != nil {
		t.Fatalf("expected the payload to decode, got %v", err)
	}

	if report.Mode != "toefl" {
		t.Fatalf("expected the mode lowercased, got %q", report.Mode)
	}
	if len(report.QuestionBreakdown) != 1 || report.QuestionBreakdown[0].Score != 3 {
		t.Fatalf("expected the malformed breakdown entry dropped, got %+v", report.QuestionBreakdown)
	}
	if len(report.Strengths) != 1 || report.Strengths[0] != "Clear pronunciation" {
		t.Fatalf("expected non-string strengths dropped, got %v", report.Strengths)
	}
	if len(report.Improvements) != 1 || report.Improvements[0] != "Add more detail" {
		t.Fatalf("expected null improvements dropped, got %v", report.Improvements)
	}
	if len(report.SpecificExamples.Good) != 1 || len(report.SpecificExamples.NeedsWork) != 1 {
		t.Fatalf("expected non-string examples dropped, got %+v", report.SpecificExamples)
	}
	if report.DetailedFeedback != "Solid response overall." {
		t.Fatalf("expected the feedback preserved, got %q", report.DetailedFeedback)
	}
}

func TestDecodeEvaluationRejectsStructurallyWrongPayloads(t *testing.T) {
	for _, raw := range []string{
		`null`,
		`[]`,
		`{"criterion_scores": []}`,
		`{"criterion_scores": {}, "equivalent_scores": [], "question_breakdown": []}`,
		`{"specific_examples": "not an object"}`,
		`{"detailed_feedback": 42}`,
		`{"mode": 7}`,
	} {
		if _, err := decodeEvaluation(raw); err == nil {
			t.Fatalf("expected %s to be rejected", raw)
		}
	}
}

func TestDecodeEvaluationAcceptsModeSpecificExtras(t *testing.T) {
	raw := `{
		"mode": "business",
		"overall_score": 85,
		"professional_level": "Senior",
		"recommended_roles": ["Program Manager", "Consultant"]
	}`

	report, err := decodeEvaluation(raw)
	if err != nil {
		t.Fatalf("expected the payload to decode, got %v", err)
	}
	if report.ProfessionalLevel != "Senior" || len(report.RecommendedRoles) != 2 {
		t.Fatalf("expected the business extras carried, got %+v", report)
	}
}

func TestBuildEvaluationPromptEmbedsRubric(t *testing.T) {
	catalog := mustCatalog(t)
	config, err := catalog.Get("toefl")
	if err != nil {
		t.Fatalf("expected the toefl config, got %v", err)
	}
	rubric, err := catalog.Rubric("toefl")
	if err != nil {
		t.Fatalf("expected the toefl rubric, got %v", err)
	}

	prompt := buildEvaluationPrompt(config, rubric, "Interviewer: Q?\nCandidate: A.")

	for _, fragment := range []string{
		"INTERVIEW TRANSCRIPT:",
		"Interviewer: Q?",
		rubric.Guidance,
		`"overall_scale": "0-30"`,
		`"max_score": 4,`,
		"cefr_level",
	} {
		if !strings.Contains(prompt, fragment) {
			t.Fatalf("expected the prompt to contain %q", fragment)
		}
	}
}
