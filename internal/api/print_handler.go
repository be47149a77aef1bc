package api

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bizplan/internal/database"
)

// PrintHandler serves the data the worker injects into the frontend print
// page before rendering it to PDF. The route sits behind the internal
// secret middleware and must never be exposed publicly.
type PrintHandler struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewPrintHandler(db *gorm.DB, logger *slog.Logger) *PrintHandler {
	return &PrintHandler{db: db, logger: logger}
}

type printDataResponse struct {
	DocumentID     uint           `json:"document_id"`
	UserID         uint           `json:"user_id"`
	Kind           string         `json:"kind"`
	Title          string         `json:"title"`
	Status         string         `json:"status"`
	Content        datatypes.JSON `json:"content"`
	Finance        *printFinance  `json:"finance,omitempty"`
	Template       datatypes.JSON `json:"template,omitempty"`
	StyleOverrides datatypes.JSON `json:"style_overrides,omitempty"`
}

type printFinance struct {
	Produits         datatypes.JSON `json:"produits"`
	CapitalDemarrage datatypes.JSON `json:"capital_demarrage"`
	Prets            datatypes.JSON `json:"prets"`
	Personnel        datatypes.JSON `json:"personnel"`
	PrevisionsVentes datatypes.JSON `json:"previsions_ventes"`
}

// GetDocumentPrintData assembles everything the print page needs for one
// document: its content tree, the financial record when the document is a
// business plan, and the bound template with its style overrides.
func (h *PrintHandler) GetDocumentPrintData(c *gin.Context) {
	docID, err := parseDocumentID(c.Param("id"))
	if err != nil {
		BadRequest(c, "invalid document id")
		return
	}

	ctx := c.Request.Context()
	var doc database.Document
	if err := h.db.WithContext(ctx).First(&doc, docID).Error; err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			NotFound(c, "document not found")
		default:
			h.logger.Error("load print document", slog.Any("error", err))
			Internal(c, "failed to load document")
		}
		return
	}

	resp := printDataResponse{
		DocumentID: doc.ID,
		UserID:     doc.UserID,
		Kind:       doc.Kind,
		Title:      doc.Title,
		Status:     doc.Status,
		Content:    doc.Content,
	}

	if doc.Kind == database.KindBusinessPlan {
		var record database.FinancialRecord
		err := h.db.WithContext(ctx).Where("document_id = ?", doc.ID).First(&record).Error
		switch {
		case err == nil:
			resp.Finance = &printFinance{
				Produits:         orEmptyArray(record.Produits),
				CapitalDemarrage: orEmptyObject(record.CapitalDemarrage),
				Prets:            orEmptyArray(record.Prets),
				Personnel:        orEmptyArray(record.Personnel),
				PrevisionsVentes: orEmptyObject(record.PrevisionsVentes),
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// No financial data yet. The print page renders without it.
		default:
			h.logger.Error("load print finance", slog.Any("error", err))
			Internal(c, "failed to load financial record")
			return
		}
	}

	var binding database.TemplateBinding
	err = h.db.WithContext(ctx).Where("document_id = ?", doc.ID).First(&binding).Error
	switch {
	case err == nil:
		var tmpl database.Template
		if err := h.db.WithContext(ctx).First(&tmpl, binding.TemplateID).Error; err == nil {
			resp.Template = tmpl.Content
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			h.logger.Error("load print template", slog.Any("error", err))
			Internal(c, "failed to load template")
			return
		}
		resp.StyleOverrides = binding.StyleOverrides
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Unbound documents render with the frontend default template.
	default:
		h.logger.Error("load print binding", slog.Any("error", err))
		Internal(c, "failed to load template binding")
		return
	}

	OK(c, "print data", resp)
}
