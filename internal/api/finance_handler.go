package api

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"bizplan/internal/database"
	"bizplan/internal/finance"
)

// FinanceHandler accumulates cost line items under a business plan's
// financial record. Entries are append-only; totals are recomputed by the
// finance package on every submission.
//
// Reads and writes are plain read-modify-write over one JSONB column, so two
// uncoordinated appends to the same document can lose one entry. Requests
// for a single document are expected to arrive one at a time.
type FinanceHandler struct {
	db *gorm.DB
}

func NewFinanceHandler(db *gorm.DB) *FinanceHandler {
	return &FinanceHandler{db: db}
}

// passthroughCollections are stored as submitted, without computation.
var passthroughCollections = map[string]string{
	"prets":             "prets",
	"personnel":         "personnel",
	"previsions_ventes": "previsions_ventes",
}

type financeResponse struct {
	DocumentID       uint           `json:"document_id"`
	Produits         datatypes.JSON `json:"produits"`
	CapitalDemarrage datatypes.JSON `json:"capital_demarrage"`
	Prets            datatypes.JSON `json:"prets,omitempty"`
	Personnel        datatypes.JSON `json:"personnel,omitempty"`
	PrevisionsVentes datatypes.JSON `json:"previsions_ventes,omitempty"`
}

func newFinanceResponse(rec database.FinancialRecord) financeResponse {
	return financeResponse{
		DocumentID:       rec.DocumentID,
		Produits:         orEmptyArray(rec.Produits),
		CapitalDemarrage: orEmptyObject(rec.CapitalDemarrage),
		Prets:            rec.Prets,
		Personnel:        rec.Personnel,
		PrevisionsVentes: rec.PrevisionsVentes,
	}
}

func orEmptyArray(raw datatypes.JSON) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON([]byte("[]"))
	}
	return raw
}

func orEmptyObject(raw datatypes.JSON) datatypes.JSON {
	if len(raw) == 0 {
		return datatypes.JSON([]byte("{}"))
	}
	return raw
}

// AppendProduit costs a submitted product and appends it to the record.
func (h *FinanceHandler) AppendProduit(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var in finance.ProduitInput
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, "invalid json payload")
		return
	}

	ctx := c.Request.Context()
	rec, err := h.recordForDocument(ctx, c.Param("id"), userID)
	if err != nil {
		h.replyFinanceLookupError(c, err)
		return
	}

	var produits []finance.Produit
	if len(rec.Produits) > 0 {
		if err := json.Unmarshal(rec.Produits, &produits); err != nil {
			Internal(c, "failed to decode stored products")
			return
		}
	}

	updated, computed := finance.AppendProduit(produits, in)
	raw, err := json.Marshal(updated)
	if err != nil {
		Internal(c, "failed to encode products")
		return
	}

	if err := h.db.WithContext(ctx).Model(rec).Update("produits", datatypes.JSON(raw)).Error; err != nil {
		Internal(c, "failed to save products")
		return
	}

	Created(c, "product added", computed)
}

// AppendCapital appends one startup-capital entry to the category named in
// the URL and returns the recomputed record.
func (h *FinanceHandler) AppendCapital(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	categorie, err := finance.ParseCategorie(c.Param("categorie"))
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	var in finance.ElementCapital
	if err := c.ShouldBindJSON(&in); err != nil {
		BadRequest(c, "invalid json payload")
		return
	}

	ctx := c.Request.Context()
	rec, err := h.recordForDocument(ctx, c.Param("id"), userID)
	if err != nil {
		h.replyFinanceLookupError(c, err)
		return
	}

	var capital finance.CapitalDemarrage
	if len(rec.CapitalDemarrage) > 0 {
		if err := json.Unmarshal(rec.CapitalDemarrage, &capital); err != nil {
			Internal(c, "failed to decode stored capital")
			return
		}
	}

	capital, err = finance.AppendElementCapital(capital, categorie, in)
	if err != nil {
		var vErr *finance.ValidationError
		if errors.As(err, &vErr) {
			BadRequest(c, vErr.Error())
			return
		}
		Internal(c, "failed to append capital item")
		return
	}

	raw, err := json.Marshal(capital)
	if err != nil {
		Internal(c, "failed to encode capital")
		return
	}

	if err := h.db.WithContext(ctx).Model(rec).Update("capital_demarrage", datatypes.JSON(raw)).Error; err != nil {
		Internal(c, "failed to save capital")
		return
	}

	OK(c, "capital item added", capital)
}

// PutCollection replaces one pass-through collection (loans, staffing, sales
// forecasts) verbatim.
func (h *FinanceHandler) PutCollection(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	column, ok := passthroughCollections[c.Param("collection")]
	if !ok {
		BadRequest(c, "unknown finance collection")
		return
	}

	var payload json.RawMessage
	if err := c.ShouldBindJSON(&payload); err != nil {
		BadRequest(c, "invalid json payload")
		return
	}

	ctx := c.Request.Context()
	rec, err := h.recordForDocument(ctx, c.Param("id"), userID)
	if err != nil {
		h.replyFinanceLookupError(c, err)
		return
	}

	if err := h.db.WithContext(ctx).Model(rec).Update(column, datatypes.JSON(payload)).Error; err != nil {
		Internal(c, "failed to save collection")
		return
	}
	if err := h.db.WithContext(ctx).First(rec, rec.ID).Error; err != nil {
		Internal(c, "failed to reload record")
		return
	}

	OK(c, "collection saved", newFinanceResponse(*rec))
}

// GetFinance returns the full financial record for a document.
func (h *FinanceHandler) GetFinance(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	rec, err := h.recordForDocument(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.replyFinanceLookupError(c, err)
		return
	}

	OK(c, "financial record loaded", newFinanceResponse(*rec))
}

// recordForDocument loads the financial record for an owned business plan,
// creating an empty one on first access.
func (h *FinanceHandler) recordForDocument(ctx context.Context, idParam string, userID uint) (*database.FinancialRecord, error) {
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
	if doc.Kind != database.KindBusinessPlan {
		return nil, errNotBusinessPlan
	}

	var rec database.FinancialRecord
	err = h.db.WithContext(ctx).Where("document_id = ?", doc.ID).First(&rec).Error
	switch {
	case err == nil:
		return &rec, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		rec = database.FinancialRecord{DocumentID: doc.ID}
		if err := h.db.WithContext(ctx).Create(&rec).Error; err != nil {
			return nil, err
		}
		return &rec, nil
	default:
		return nil, err
	}
}

var errNotBusinessPlan = errors.New("document is not a business plan")

func (h *FinanceHandler) replyFinanceLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errInvalidDocumentID):
		BadRequest(c, "invalid document id")
	case errors.Is(err, errNotBusinessPlan):
		BadRequest(c, "financial records only exist for business plans")
	case errors.Is(err, gorm.ErrRecordNotFound):
		NotFound(c, "document not found")
	default:
		Internal(c, "failed to query financial record")
	}
}
