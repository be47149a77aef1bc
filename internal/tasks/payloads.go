package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type constants shared by the queue producers and the worker mux.
const (
	TypePDFGenerate        = "pdf:generate"
	TypeEvaluationGenerate = "evaluation:generate"
)

// PDFGeneratePayload carries the minimum needed to render one document.
type PDFGeneratePayload struct {
	DocumentID    uint   `json:"document_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewPDFGenerateTask builds a document PDF generation task.
func NewPDFGenerateTask(id uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(PDFGeneratePayload{
		DocumentID:    id,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePDFGenerate, payload), nil
}

// EvaluationGeneratePayload identifies the document whose questionnaire
// answers should be reviewed.
type EvaluationGeneratePayload struct {
	DocumentID    uint   `json:"document_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewEvaluationTask builds an AI evaluation task.
func NewEvaluationTask(id uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(EvaluationGeneratePayload{
		DocumentID:    id,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEvaluationGenerate, payload), nil
}
