package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"bizplan/internal/ai"
	"bizplan/internal/database"
	"bizplan/internal/errcode"
	"bizplan/internal/pdf"
	"bizplan/internal/storage"
	"bizplan/internal/tasks"
)

// EvaluationTaskHandler consumes AI review tasks: it prompts the model with
// the questionnaire answers, splits the reply into the three expected
// sections and stores them, then renders a PDF report of the result.
type EvaluationTaskHandler struct {
	db          *gorm.DB
	storage     *storage.Client
	redisClient *redis.Client
	llm         ai.LLMClient
	logger      *slog.Logger
}

func NewEvaluationTaskHandler(
	db *gorm.DB,
	storageClient *storage.Client,
	redisClient *redis.Client,
	llm ai.LLMClient,
	logger *slog.Logger,
) *EvaluationTaskHandler {
	return &EvaluationTaskHandler{
		db:          db,
		storage:     storageClient,
		redisClient: redisClient,
		llm:         llm,
		logger:      logger,
	}
}

// ProcessTask implements asynq.Handler.
func (h *EvaluationTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.EvaluationGeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal evaluation payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Int("document_id", int(payload.DocumentID)),
	)
	log.Info("starting evaluation task")

	var doc database.Document
	if err := h.db.WithContext(ctx).First(&doc, payload.DocumentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("document not found, skipping task")
			return nil
		}
		log.Error("query document failed", slog.Any("error", err))
		return err
	}

	var eval database.Evaluation
	if err := h.db.WithContext(ctx).Where("document_id = ?", doc.ID).First(&eval).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("evaluation not found, skipping task")
			return nil
		}
		log.Error("query evaluation failed", slog.Any("error", err))
		return err
	}

	log = log.With(slog.Uint64("user_id", uint64(doc.UserID)))

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}

		if err := h.db.WithContext(ctx).Model(&eval).Update("status", database.EvaluationFailed).Error; err != nil {
			log.Error("mark evaluation failed", slog.Any("error", err))
		}
		notify := NotifyMessage{
			Type:          NotifyTypeEvaluation,
			Status:        "error",
			DocumentID:    doc.ID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := publishUserNotify(ctx, h.redisClient, doc.UserID, notify); err != nil {
			log.Error("publish evaluation error notification failed", slog.Any("error", err))
		}
	}()

	var answers map[string]string
	if len(eval.Reponses) > 0 {
		if err := json.Unmarshal(eval.Reponses, &answers); err != nil {
			log.Error("decode answers failed", slog.Any("error", err))
			return err
		}
	}

	prompt := ai.BuildEvaluationPrompt(doc.Title, answers)
	reply, err := h.llm.Complete(ctx, prompt)
	if err != nil {
		log.Error("llm completion failed", slog.Any("error", err))
		return err
	}

	sections := ai.Sectionize(reply)

	updates := map[string]any{
		"positifs":      sections.Positifs,
		"negatifs":      sections.Negatifs,
		"ameliorations": sections.Ameliorations,
		"status":        database.EvaluationCompleted,
	}

	if objectName, reportErr := h.generateReport(ctx, &doc, sections); reportErr != nil {
		// The review itself succeeded. A missing report is not fatal.
		log.Warn("generate evaluation report failed", slog.Any("error", reportErr))
	} else {
		updates["report_url"] = objectName
	}

	if err := h.db.WithContext(ctx).Model(&eval).Updates(updates).Error; err != nil {
		log.Error("store evaluation result failed", slog.Any("error", err))
		return err
	}

	notify := NotifyMessage{
		Type:          NotifyTypeEvaluation,
		Status:        "completed",
		DocumentID:    doc.ID,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if err := publishUserNotify(ctx, h.redisClient, doc.UserID, notify); err != nil {
		log.Error("publish evaluation notification failed", slog.Any("error", err))
		return err
	}

	log.Info("evaluation task completed")
	return nil
}

func (h *EvaluationTaskHandler) generateReport(ctx context.Context, doc *database.Document, sections ai.Sections) (string, error) {
	htmlContent, err := buildReportHTML(doc.Title, sections)
	if err != nil {
		return "", err
	}

	pdfBytes, err := pdf.GeneratePDFFromHTML(htmlContent)
	if err != nil {
		return "", fmt.Errorf("render report pdf: %w", err)
	}

	objectName := fmt.Sprintf("generated-documents/%d/evaluation-%s.pdf", doc.UserID, uuid.NewString())
	reader := bytes.NewReader(pdfBytes)
	if _, err := h.storage.UploadFile(ctx, objectName, reader, int64(len(pdfBytes)), "application/pdf"); err != nil {
		return "", fmt.Errorf("upload report pdf: %w", err)
	}
	return objectName, nil
}

func buildReportHTML(title string, sections ai.Sections) (string, error) {
	positifs, err := ai.RenderHTML(sections.Positifs)
	if err != nil {
		return "", fmt.Errorf("render positifs: %w", err)
	}
	negatifs, err := ai.RenderHTML(sections.Negatifs)
	if err != nil {
		return "", fmt.Errorf("render negatifs: %w", err)
	}
	ameliorations, err := ai.RenderHTML(sections.Ameliorations)
	if err != nil {
		return "", fmt.Errorf("render ameliorations: %w", err)
	}

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html lang="fr"><head><meta charset="utf-8">`)
	b.WriteString(`<style>
  body { font-family: Arial, sans-serif; margin: 2cm; color: #1a1a1a; }
  h1 { font-size: 18pt; border-bottom: 2px solid #2c5f8a; padding-bottom: 6px; }
  h2 { font-size: 13pt; color: #2c5f8a; margin-top: 24px; }
  p, li { font-size: 10.5pt; line-height: 1.5; }
  @page { size: A4; margin: 0; }
</style></head><body>`)
	fmt.Fprintf(&b, "<h1>Évaluation du projet %s</h1>", html.EscapeString(title))
	b.WriteString("<h2>✅ Points positifs</h2>")
	b.WriteString(positifs)
	b.WriteString("<h2>❌ Points négatifs</h2>")
	b.WriteString(negatifs)
	b.WriteString("<h2>💡 Recommandations</h2>")
	b.WriteString(ameliorations)
	b.WriteString("</body></html>")
	return b.String(), nil
}
