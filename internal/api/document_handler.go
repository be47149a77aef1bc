package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bizplan/internal/api/middleware"
	"bizplan/internal/database"
	"bizplan/internal/document"
	"bizplan/internal/storage"
	"bizplan/internal/tasks"
)

// DocumentHandler serves the document lifecycle: lazy creation per
// user+kind, partial content merges, publication and PDF export.
type DocumentHandler struct {
	db          *gorm.DB
	asynqClient *asynq.Client
	storage     *storage.Client
}

func NewDocumentHandler(db *gorm.DB, asynqClient *asynq.Client, storageClient *storage.Client) *DocumentHandler {
	return &DocumentHandler{
		db:          db,
		asynqClient: asynqClient,
		storage:     storageClient,
	}
}

var errInvalidDocumentID = errors.New("invalid document id")

type documentResponse struct {
	ID        uint           `json:"id"`
	Kind      string         `json:"kind"`
	Title     string         `json:"title"`
	Content   datatypes.JSON `json:"content"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type documentListItem struct {
	ID        uint      `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

func newDocumentResponse(doc database.Document) documentResponse {
	content := doc.Content
	if len(content) == 0 {
		content = datatypes.JSON([]byte("{}"))
	}
	return documentResponse{
		ID:        doc.ID,
		Kind:      doc.Kind,
		Title:     doc.Title,
		Content:   content,
		Status:    doc.Status,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func validKind(kind string) bool {
	switch kind {
	case database.KindBusinessPlan, database.KindCV, database.KindCoverLetter:
		return true
	}
	return false
}

// GetOrCreateByKind returns the user's document of the requested kind,
// creating an empty draft on first access.
func (h *DocumentHandler) GetOrCreateByKind(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	kind := c.Param("kind")
	if !validKind(kind) {
		BadRequest(c, "unknown document kind")
		return
	}

	ctx := c.Request.Context()
	var doc database.Document
	err := h.db.WithContext(ctx).
		Where("user_id = ? AND kind = ?", userID, kind).
		First(&doc).Error
	switch {
	case err == nil:
		OK(c, "document loaded", newDocumentResponse(doc))
	case errors.Is(err, gorm.ErrRecordNotFound):
		doc = database.Document{
			Kind:    kind,
			Content: datatypes.JSON([]byte("{}")),
			Status:  database.StatusDraft,
			UserID:  userID,
		}
		if err := h.db.WithContext(ctx).Create(&doc).Error; err != nil {
			Internal(c, "failed to create document")
			return
		}
		Created(c, "document created", newDocumentResponse(doc))
	default:
		Internal(c, "failed to query document")
	}
}

// ListDocuments lists all of the user's documents, newest first.
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var docs []database.Document
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&docs).Error; err != nil {
		Internal(c, "failed to list documents")
		return
	}

	items := make([]documentListItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, documentListItem{
			ID:        d.ID,
			Kind:      d.Kind,
			Title:     d.Title,
			Status:    d.Status,
			UpdatedAt: d.UpdatedAt,
		})
	}

	OK(c, "documents listed", items)
}

type mergeContentRequest struct {
	Title    *string           `json:"title"`
	Sections document.Sections `json:"sections" binding:"required"`
}

// MergeContent applies a partial form submission to the document's content
// tree. A business plan whose required schema becomes fully filled flips
// from draft to published; the transition is never reversed here.
func (h *DocumentHandler) MergeContent(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req mergeContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid json payload")
		return
	}

	doc, err := h.getDocumentForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.replyDocumentLookupError(c, err)
		return
	}

	merged, err := document.Merge(doc.Content, req.Sections)
	if err != nil {
		var parseErr *document.ParseError
		if errors.As(err, &parseErr) {
			BadRequest(c, parseErr.Error())
			return
		}
		Internal(c, "failed to merge content")
		return
	}

	status := doc.Status
	if doc.Kind == database.KindBusinessPlan &&
		status == database.StatusDraft &&
		document.IsComplete(merged) {
		status = database.StatusPublished
	}

	updates := map[string]any{
		"content": merged,
		"status":  status,
	}
	if req.Title != nil {
		updates["title"] = *req.Title
	}

	ctx := c.Request.Context()
	if err := h.db.WithContext(ctx).Model(doc).Updates(updates).Error; err != nil {
		Internal(c, "failed to update document")
		return
	}
	if err := h.db.WithContext(ctx).First(doc, doc.ID).Error; err != nil {
		Internal(c, "failed to reload document")
		return
	}

	OK(c, "content merged", newDocumentResponse(*doc))
}

// DeleteDocument removes the document and its dependent records.
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	doc, err := h.getDocumentForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.replyDocumentLookupError(c, err)
		return
	}

	ctx := c.Request.Context()
	var reportURL string
	var eval database.Evaluation
	if err := h.db.WithContext(ctx).Where("document_id = ?", doc.ID).First(&eval).Error; err == nil {
		reportURL = eval.ReportUrl
	}

	err = h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dependent := range []any{
			&database.FinancialRecord{},
			&database.Evaluation{},
			&database.TemplateBinding{},
		} {
			if err := tx.Where("document_id = ?", doc.ID).Delete(dependent).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&database.Document{}, doc.ID).Error
	})
	if err != nil {
		Internal(c, "failed to delete document")
		return
	}

	// Generated artifacts are removed best effort; a leftover object only
	// costs storage and the row pointing at it is already gone.
	if h.storage != nil {
		log := middleware.LoggerFromContext(c)
		for _, objectKey := range []string{doc.PdfUrl, reportURL} {
			if objectKey == "" {
				continue
			}
			if err := h.storage.DeleteObject(ctx, objectKey); err != nil {
				log.Warn("delete generated object failed", slog.String("objectKey", objectKey), slog.Any("error", err))
			}
		}
	}

	OK(c, "document deleted", nil)
}

// ExportDocument enqueues PDF generation and returns immediately.
func (h *DocumentHandler) ExportDocument(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	doc, err := h.getDocumentForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.replyDocumentLookupError(c, err)
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	task, err := tasks.NewPDFGenerateTask(doc.ID, correlationID)
	if err != nil {
		Internal(c, "failed to create task")
		return
	}

	info, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(5))
	if err != nil {
		Internal(c, "failed to enqueue pdf generation")
		return
	}

	Accepted(c, "pdf generation accepted", gin.H{"task_id": info.ID})
}

// GetExportLink returns a presigned download URL for the generated PDF.
func (h *DocumentHandler) GetExportLink(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	doc, err := h.getDocumentForUser(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.replyDocumentLookupError(c, err)
		return
	}

	if doc.PdfUrl == "" {
		Conflict(c, "pdf not ready")
		return
	}

	signedURL, err := h.storage.GeneratePresignedURLWithParams(c.Request.Context(), doc.PdfUrl, 5*time.Minute, map[string]string{
		"response-content-disposition": fmt.Sprintf("attachment; filename=%q", downloadFilename(doc)),
	})
	if err != nil {
		Internal(c, "failed to generate download link")
		return
	}

	OK(c, "download link generated", gin.H{"url": signedURL})
}

func downloadFilename(doc *database.Document) string {
	name := strings.TrimSpace(doc.Title)
	if name == "" {
		name = doc.Kind
	}
	return name + ".pdf"
}

func parseDocumentID(idParam string) (uint, error) {
	docID, err := strconv.ParseUint(idParam, 10, 64)
	if err != nil {
		return 0, errInvalidDocumentID
	}
	return uint(docID), nil
}

func (h *DocumentHandler) getDocumentForUser(ctx context.Context, idParam string, userID uint) (*database.Document, error) {
	docID, err := parseDocumentID(idParam)
	if err != nil {
		return nil, err
	}

	var doc database.Document
	if err := h.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", docID, userID).
		First(&doc).Error; err != nil {
		return nil, err
	}

	return &doc, nil
}

func (h *DocumentHandler) replyDocumentLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errInvalidDocumentID):
		BadRequest(c, "invalid document id")
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "document not found")
	default:
		Internal(c, "failed to query document")
	}
}

func userIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case uint64:
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	default:
		return 0, false
	}
}
