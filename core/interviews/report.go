package interviews

// Report is the structured evaluation produced at finalization. The shape
// follows the rubric JSON the evaluator is instructed to return; fields the
// evaluator omits are left at their zero values.
type Report struct {
	Mode         string  `json:"mode"`
	OverallScore float64 `json:"overall_score"`
	// OverallScale names the scale OverallScore is expressed in, e.g. "0-30"
	// for TOEFL or "Band 0-9" for IELTS.
	OverallScale    string                    `json:"overall_scale"`
	CriterionScores map[string]CriterionScore `json:"criterion_scores"`
	CEFRLevel       string                    `json:"cefr_level"`
	// EquivalentScores approximates the result on the other modes' scales.
	EquivalentScores  map[string]float64 `json:"equivalent_scores"`
	QuestionBreakdown []QuestionScore    `json:"question_breakdown"`
	Strengths         []string           `json:"strengths"`
	Improvements      []string           `json:"improvements"`
	DetailedFeedback  string             `json:"detailed_feedback"`
	SpecificExamples  ExampleSet         `json:"specific_examples"`

	// Mode-specific extras. The business rubric fills the professional
	// fields, the casual rubric the native-likeness ones.
	ProfessionalLevel string   `json:"professional_level,omitempty"`
	RecommendedRoles  []string `json:"recommended_roles,omitempty"`
	NativeLikeness    float64  `json:"native_likeness,omitempty"`
	IdiomExamples     []string `json:"idiom_examples,omitempty"`
}

type CriterionScore struct {
	Score    float64 `json:"score"`
	MaxScore float64 `json:"max_score,omitempty"`
	Weight   float64 `json:"weight,omitempty"`
}

type QuestionScore struct {
	QuestionNumber int     `json:"question_number"`
	Score          float64 `json:"score"`
	MaxScore       float64 `json:"max_score"`
	Feedback       string  `json:"feedback"`
}

// ExampleSet quotes transcript moments that support the scoring.
type ExampleSet struct {
	Good      []string `json:"good"`
	NeedsWork []string `json:"needs_work"`
}
