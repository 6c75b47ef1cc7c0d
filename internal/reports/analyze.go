package reports

import (
	"context"
	"fmt"

	"medreport-backend/internal/llm"
)

// Classifier decides whether a document's text is a medical report.
type Classifier struct {
	LLM llm.Client
}

type verdictPayload struct {
	IsMedicalReport bool    `json:"is_medical_report"`
	Confidence      float64 `json:"confidence"`
	Reason          string  `json:"reason"`
}

// Classify asks the model for a verdict on the given text. It never returns
// an error: any backend or parse failure degrades to a negative verdict
// carrying the failure reason, so the pipeline always gets a definite answer.
func (c *Classifier) Classify(ctx context.Context, fullText string) Verdict {
	resp, err := c.LLM.Complete(ctx, classifySystemPrompt, buildClassifyPrompt(fullText))
	if err != nil {
		return Verdict{IsMedicalReport: false, Confidence: 0, Reason: fmt.Sprintf("backend failure: %v", err)}
	}

	var payload verdictPayload
	if err := llm.DecodeObject(resp, &payload); err != nil {
		return Verdict{IsMedicalReport: false, Confidence: 0, Reason: fmt.Sprintf("invalid model response: %v", err)}
	}

	return Verdict{
		IsMedicalReport: payload.IsMedicalReport,
		Confidence:      clampConfidence(payload.Confidence),
		Reason:          payload.Reason,
	}
}

// Extractor produces the structured clinical record for a classified report.
type Extractor struct {
	LLM llm.Client
}

// Extract asks the model for the structured record. Unlike classification,
// failure here is terminal: the caller explicitly requested structured data.
func (e *Extractor) Extract(ctx context.Context, fullText string) (ReportData, error) {
	resp, err := e.LLM.Complete(ctx, extractSystemPrompt, buildExtractPrompt(fullText))
	if err != nil {
		return ReportData{}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}

	var data ReportData
	if err := llm.DecodeObject(resp, &data); err != nil {
		return ReportData{}, fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	return data, nil
}

func clampConfidence(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}
