package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bizplan/internal/ai"
	"bizplan/internal/api/middleware"
	"bizplan/internal/database"
	"bizplan/internal/storage"
	"bizplan/internal/tasks"
)

// EvaluationHandler accepts questionnaire answers and exposes the sectioned
// AI review. The LLM call itself runs in the background worker.
type EvaluationHandler struct {
	db          *gorm.DB
	asynqClient *asynq.Client
	storage     *storage.Client
	logger      *slog.Logger
}

func NewEvaluationHandler(db *gorm.DB, asynqClient *asynq.Client, storageClient *storage.Client, logger *slog.Logger) *EvaluationHandler {
	return &EvaluationHandler{db: db, asynqClient: asynqClient, storage: storageClient, logger: logger}
}

type submitEvaluationRequest struct {
	Reponses map[string]string `json:"reponses" binding:"required"`
}

type evaluationResponse struct {
	DocumentID    uint           `json:"document_id"`
	Status        string         `json:"status"`
	Reponses      datatypes.JSON `json:"reponses"`
	Positifs      string         `json:"positifs"`
	Negatifs      string         `json:"negatifs"`
	Ameliorations string         `json:"ameliorations"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type evaluationHTML struct {
	Positifs      string `json:"positifs"`
	Negatifs      string `json:"negatifs"`
	Ameliorations string `json:"ameliorations"`
}

// SubmitEvaluation stores the answers idempotently (one evaluation per
// document) and enqueues the review task.
func (h *EvaluationHandler) SubmitEvaluation(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req submitEvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid json payload")
		return
	}
	if len(req.Reponses) == 0 {
		BadRequest(c, "reponses must not be empty")
		return
	}

	ctx := c.Request.Context()
	doc, err := h.documentForUser(c, userID)
	if err != nil {
		return
	}

	raw, err := json.Marshal(req.Reponses)
	if err != nil {
		Internal(c, "failed to encode answers")
		return
	}

	var eval database.Evaluation
	err = h.db.WithContext(ctx).Where("document_id = ?", doc.ID).First(&eval).Error
	switch {
	case err == nil:
		updates := map[string]any{
			"reponses": datatypes.JSON(raw),
			"status":   database.EvaluationPending,
		}
		if err := h.db.WithContext(ctx).Model(&eval).Updates(updates).Error; err != nil {
			Internal(c, "failed to update evaluation")
			return
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		eval = database.Evaluation{
			DocumentID: doc.ID,
			Reponses:   datatypes.JSON(raw),
			Status:     database.EvaluationPending,
		}
		if err := h.db.WithContext(ctx).Create(&eval).Error; err != nil {
			Internal(c, "failed to create evaluation")
			return
		}
	default:
		Internal(c, "failed to query evaluation")
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	task, err := tasks.NewEvaluationTask(doc.ID, correlationID)
	if err != nil {
		Internal(c, "failed to create task")
		return
	}
	if _, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(3)); err != nil {
		Internal(c, "failed to enqueue evaluation")
		return
	}

	Accepted(c, "evaluation queued", gin.H{"document_id": doc.ID, "status": eval.Status})
}

// GetEvaluation returns the stored review. Sections are also rendered to
// HTML for the report view; a render failure only drops the HTML variant.
func (h *EvaluationHandler) GetEvaluation(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	doc, err := h.documentForUser(c, userID)
	if err != nil {
		return
	}

	var eval database.Evaluation
	if err := h.db.WithContext(c.Request.Context()).
		Where("document_id = ?", doc.ID).
		First(&eval).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "evaluation not found")
			return
		}
		Internal(c, "failed to query evaluation")
		return
	}

	resp := gin.H{
		"evaluation": evaluationResponse{
			DocumentID:    eval.DocumentID,
			Status:        eval.Status,
			Reponses:      eval.Reponses,
			Positifs:      eval.Positifs,
			Negatifs:      eval.Negatifs,
			Ameliorations: eval.Ameliorations,
			UpdatedAt:     eval.UpdatedAt,
		},
	}
	if html, ok := renderEvaluationHTML(eval); ok {
		resp["html"] = html
	}
	if eval.ReportUrl != "" && h.storage != nil {
		if url, err := h.storage.GeneratePresignedURL(c.Request.Context(), eval.ReportUrl, 5*time.Minute); err == nil {
			resp["report_url"] = url
		} else {
			h.logger.Warn("presign evaluation report failed", slog.Any("error", err))
		}
	}

	OK(c, "evaluation loaded", resp)
}

func renderEvaluationHTML(eval database.Evaluation) (evaluationHTML, bool) {
	positifs, err := ai.RenderHTML(eval.Positifs)
	if err != nil {
		return evaluationHTML{}, false
	}
	negatifs, err := ai.RenderHTML(eval.Negatifs)
	if err != nil {
		return evaluationHTML{}, false
	}
	ameliorations, err := ai.RenderHTML(eval.Ameliorations)
	if err != nil {
		return evaluationHTML{}, false
	}
	return evaluationHTML{
		Positifs:      positifs,
		Negatifs:      negatifs,
		Ameliorations: ameliorations,
	}, true
}

// documentForUser loads the owned document or writes the failure reply.
func (h *EvaluationHandler) documentForUser(c *gin.Context, userID uint) (*database.Document, error) {
	docID, err := parseDocumentID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid document id")
		return nil, err
	}

	var doc database.Document
	if err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", docID, userID).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "document not found")
		} else {
			Internal(c, "failed to query document")
		}
		return nil, err
	}

	return &doc, nil
}
