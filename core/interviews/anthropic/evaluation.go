package anthropic

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/oralprep/interview-core/core/interviews"
	"github.com/oralprep/interview-core/core/modes"
)

// Evaluate scores a finished interview transcript against the mode's
// rubric and returns the structured report.
func (c *Client) Evaluate(ctx context.Context, req interviews.EvaluationRequest) (*interviews.Report, error) {
	ctx, span := tracer.Start(ctx, "evaluate interview transcript")
	defer span.End()
	span.SetAttributes(attribute.String("interview.mode", req.Mode))

	if strings.TrimSpace(req.Transcript) == "" {
		return nil, fmt.Errorf("transcript is empty")
	}
	config, err := c.catalog.Get(req.Mode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	rubric, err := c.catalog.Rubric(config.Mode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	apiKey, err := c.resolveKey(req.APIKey)
	if err != nil {
		return nil, err
	}

	userPrompt := buildEvaluationPrompt(config, rubric, req.Transcript)

	text, err := c.sendMessages(ctx, apiKey, messagesRequest{
		Model:     c.model,
		MaxTokens: evaluationMaxTokens,
		System:    rubric.SystemPrompt,
		Messages:  []message{{Role: messageRoleUser, Content: userPrompt}},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if text == "" {
		err := fmt.Errorf("empty evaluation response")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	report, err := decodeEvaluation(sanitizeEvaluationText(text))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Error("failed to decode evaluation payload", "error", err)
		return nil, err
	}

	if report.Mode == "" {
		report.Mode = config.Mode
	}
	if report.OverallScale == "" {
		report.OverallScale = rubric.OverallScale
	}

	if c.persister != nil {
		if err := c.persister.SaveLastMode(config.Mode); err != nil {
			logger.Warn("failed to persist last evaluation mode", "error", err)
		}
	}

	return report, nil
}

// buildEvaluationPrompt assembles the user prompt: the mode's evaluation
// directive, the transcript, the rubric's calibration material, and the
// exact JSON shape the response must take.
func buildEvaluationPrompt(config *modes.Config, rubric *modes.Rubric, transcript string) string {
	schema := reportSchemaJSON()

	return fmt.Sprintf(`%s

INTERVIEW TRANSCRIPT:
%s

GENERAL INSTRUCTIONS:
1. Read the entire transcript carefully.
2. Evaluate the candidate using the mode-specific rubric.
3. Provide numeric scores for every criterion and question.
4. Cite direct evidence from the transcript when explaining scores.
5. Offer actionable, encouraging feedback in professional English.

MODE-SPECIFIC GUIDANCE:
%s

REFERENCE EXAMPLES FOR CALIBRATION:
%s

Return ONLY valid JSON in this format:
{
    "mode": "%s",
    "overall_score": <number>,
    "overall_scale": "%s",
    "criterion_scores": %s,
    "cefr_level": "<A1/A2/B1/B2/C1/C2>",
    "equivalent_scores": %s,
    "question_breakdown": [
        {
            "question_number": 1,
            "score": <number>,
            "max_score": %s,
            "feedback": "Specific feedback referencing the transcript"
        }
    ],
    "strengths": ["strength1", "strength2", "strength3"],
    "improvements": ["area1", "area2", "area3"],
    "detailed_feedback": "Comprehensive paragraph summarising performance",
    "specific_examples": {
        "good": ["quoted or paraphrased example 1", "example 2"],
        "needs_work": ["quoted or paraphrased example 1", "example 2"]
    }%s
}

The response must also validate against this JSON Schema:
%s
`,
		config.EvaluationPrompt,
		transcript,
		rubric.Guidance,
		rubric.Examples,
		config.Mode,
		rubric.OverallScale,
		rubric.CriterionTemplate,
		rubric.EquivalentTemplate,
		strconv.FormatFloat(rubric.QuestionMax, 'f', -1, 64),
		rubric.ExtraFields,
		schema,
	)
}

func reportSchemaJSON() string {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(interviews.Report{})
	raw, err := schema.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(raw)
}
