package api

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bizplan/internal/database"
)

// TemplateHandler serves the template catalogue and per-document bindings.
type TemplateHandler struct {
	db *gorm.DB
}

func NewTemplateHandler(db *gorm.DB) *TemplateHandler {
	return &TemplateHandler{db: db}
}

type createTemplateRequest struct {
	Title           string         `json:"title" binding:"required"`
	Content         datatypes.JSON `json:"content" binding:"required"`
	PreviewImageURL *string        `json:"preview_image_url"`
}

type templateListItem struct {
	ID              uint   `json:"id"`
	Title           string `json:"title"`
	PreviewImageURL string `json:"preview_image_url,omitempty"`
	IsPublic        bool   `json:"is_public"`
}

type templateDetailResponse struct {
	ID              uint           `json:"id"`
	Title           string         `json:"title"`
	Content         datatypes.JSON `json:"content"`
	PreviewImageURL string         `json:"preview_image_url,omitempty"`
}

// CreateTemplate stores a private template owned by the current user.
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req createTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	model := database.Template{
		Title:    req.Title,
		Content:  req.Content,
		UserID:   userID,
		IsPublic: false,
	}
	if req.PreviewImageURL != nil {
		model.PreviewImageURL = *req.PreviewImageURL
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&model).Error; err != nil {
		Internal(c, "failed to create template")
		return
	}

	Created(c, "template created", gin.H{"id": model.ID, "title": model.Title})
}

// ListTemplates returns the user's templates plus every public one.
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var templates []database.Template
	if err := h.db.WithContext(c.Request.Context()).
		Where("user_id = ? OR is_public = ?", userID, true).
		Order("updated_at DESC").
		Find(&templates).Error; err != nil {
		Internal(c, "failed to list templates")
		return
	}

	items := make([]templateListItem, 0, len(templates))
	for _, t := range templates {
		items = append(items, templateListItem{
			ID:              t.ID,
			Title:           t.Title,
			PreviewImageURL: t.PreviewImageURL,
			IsPublic:        t.IsPublic,
		})
	}

	OK(c, "templates listed", items)
}

// GetTemplate returns one template if it is public or owned by the caller.
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, "invalid template id")
		return
	}

	var model database.Template
	if err := h.db.WithContext(c.Request.Context()).
		First(&model, uint(id)).Error; err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			NotFound(c, "template not found")
		default:
			Internal(c, "failed to query template")
		}
		return
	}

	if model.UserID != userID && !model.IsPublic {
		Forbidden(c, "access denied")
		return
	}

	OK(c, "template loaded", templateDetailResponse{
		ID:              model.ID,
		Title:           model.Title,
		Content:         model.Content,
		PreviewImageURL: model.PreviewImageURL,
	})
}

type bindTemplateRequest struct {
	TemplateID     uint           `json:"template_id" binding:"required"`
	StyleOverrides datatypes.JSON `json:"style_overrides"`
}

// BindTemplate chooses the rendering template for a document and stores the
// style overrides, replacing any previous binding.
func (h *TemplateHandler) BindTemplate(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req bindTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	docID, err := parseDocumentID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid document id")
		return
	}

	ctx := c.Request.Context()
	var doc database.Document
	if err := h.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", docID, userID).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "document not found")
		} else {
			Internal(c, "failed to query document")
		}
		return
	}

	var tmpl database.Template
	if err := h.db.WithContext(ctx).First(&tmpl, req.TemplateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "template not found")
		} else {
			Internal(c, "failed to query template")
		}
		return
	}
	if tmpl.UserID != userID && !tmpl.IsPublic {
		Forbidden(c, "access denied")
		return
	}

	var binding database.TemplateBinding
	err = h.db.WithContext(ctx).Where("document_id = ?", doc.ID).First(&binding).Error
	switch {
	case err == nil:
		updates := map[string]any{
			"template_id":     req.TemplateID,
			"style_overrides": req.StyleOverrides,
		}
		if err := h.db.WithContext(ctx).Model(&binding).Updates(updates).Error; err != nil {
			Internal(c, "failed to update binding")
			return
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		binding = database.TemplateBinding{
			DocumentID:     doc.ID,
			TemplateID:     req.TemplateID,
			StyleOverrides: req.StyleOverrides,
		}
		if err := h.db.WithContext(ctx).Create(&binding).Error; err != nil {
			Internal(c, "failed to create binding")
			return
		}
	default:
		Internal(c, "failed to query binding")
		return
	}

	OK(c, "template bound", gin.H{
		"document_id": doc.ID,
		"template_id": req.TemplateID,
	})
}
