package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"bizplan/internal/database"
	"bizplan/internal/errcode"
	"bizplan/internal/storage"
	"bizplan/internal/tasks"
)

// PDFTaskHandler consumes document export tasks. It renders the frontend
// print page in headless Chrome and uploads the result.
type PDFTaskHandler struct {
	db                 *gorm.DB
	storage            *storage.Client
	redisClient        *redis.Client
	logger             *slog.Logger
	internalSecret     string
	internalAPIBaseURL string
	frontendBaseURL    string
}

func NewPDFTaskHandler(
	db *gorm.DB,
	storage *storage.Client,
	redisClient *redis.Client,
	logger *slog.Logger,
	internalSecret string,
	internalAPIBaseURL string,
	frontendBaseURL string,
) *PDFTaskHandler {
	return &PDFTaskHandler{
		db:                 db,
		storage:            storage,
		redisClient:        redisClient,
		logger:             logger,
		internalSecret:     internalSecret,
		internalAPIBaseURL: strings.TrimRight(strings.TrimSpace(internalAPIBaseURL), "/"),
		frontendBaseURL:    strings.TrimRight(strings.TrimSpace(frontendBaseURL), "/"),
	}
}

// ProcessTask implements asynq.Handler.
func (h *PDFTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.PDFGeneratePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Int("document_id", int(payload.DocumentID)),
	)
	log.Info("starting document PDF generation task")

	var doc database.Document
	if err := h.db.WithContext(ctx).First(&doc, payload.DocumentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("document not found, skipping task")
			return nil
		}
		log.Error("query document failed", slog.Any("error", err))
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

		notify := NotifyMessage{
			Type:          NotifyTypePDF,
			Status:        "error",
			DocumentID:    doc.ID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := publishUserNotify(ctx, h.redisClient, doc.UserID, notify); err != nil {
			log.Error("publish pdf error notification failed", slog.Any("error", err))
		}
	}()

	pdfBytes, cleanup, err := h.generatePDFFromFrontend(ctx, doc.ID, payload.CorrelationID)
	if err != nil {
		log.Error("generate pdf via frontend failed", slog.Any("error", err))
		return err
	}
	defer cleanup()

	objectName := fmt.Sprintf("generated-documents/%d/%s.pdf", doc.UserID, uuid.NewString())
	pdfReader := bytes.NewReader(pdfBytes)
	if _, err := h.storage.UploadFile(ctx, objectName, pdfReader, int64(len(pdfBytes)), "application/pdf"); err != nil {
		log.Error("upload pdf to minio failed", slog.Any("error", err))
		return err
	}

	if err := h.db.WithContext(ctx).Model(&doc).Update("pdf_url", objectName).Error; err != nil {
		log.Error("update document failed", slog.Any("error", err))
		return err
	}

	notify := NotifyMessage{
		Type:          NotifyTypePDF,
		Status:        "completed",
		DocumentID:    doc.ID,
		CorrelationID: payload.CorrelationID,
		ErrorCode:     errcode.OK,
	}
	if err := publishUserNotify(ctx, h.redisClient, doc.UserID, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	log.Info("PDF generation task completed")
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}

func (h *PDFTaskHandler) generatePDFFromFrontend(ctx context.Context, documentID uint, correlationID string) (_ []byte, cleanup func(), err error) {
	cleanup = func() {}
	defer func() {
		if err != nil {
			cleanup()
		}
	}()

	printData, err := fetchInternalPrintData(ctx, h.internalAPIBaseURL, documentPrintPath, documentID, h.internalSecret, correlationID)
	if err != nil {
		return nil, cleanup, err
	}

	targetURL := fmt.Sprintf("%s/print/%d", h.frontendBaseURL, documentID)

	injectionScript := buildPrintDataInjectionScript(printData)
	page, cleanup, err := renderFrontendPage(h.logger, targetURL, injectionScript)
	if err != nil {
		return nil, cleanup, err
	}

	data, err := exportPDF(page)
	if err != nil {
		return nil, cleanup, err
	}

	return data, cleanup, nil
}
