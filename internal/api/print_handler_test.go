package api

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"bizplan/internal/database"
)

func TestGetDocumentPrintData_BusinessPlanWithFinanceAndTemplate(t *testing.T) {
	db := newTestDB(t, "print_full")
	user := seedUser(t, db, "alice")
	doc := seedDocument(t, db, user.ID, database.KindBusinessPlan)
	record := database.FinancialRecord{
		DocumentID: doc.ID,
		Produits:   datatypes.JSON([]byte(`[{"nom":"Baguette","total_ht":8000}]`)),
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("seed record: %v", err)
	}
	tmpl := database.Template{Title: "Classique", Content: datatypes.JSON([]byte(`{"layout":"two-column"}`)), IsPublic: true}
	if err := db.Create(&tmpl).Error; err != nil {
		t.Fatalf("seed template: %v", err)
	}
	binding := database.TemplateBinding{
		DocumentID:     doc.ID,
		TemplateID:     tmpl.ID,
		StyleOverrides: datatypes.JSON([]byte(`{"accent":"#204080"}`)),
	}
	if err := db.Create(&binding).Error; err != nil {
		t.Fatalf("seed binding: %v", err)
	}
	h := NewPrintHandler(db, discardLogger())

	c, w := testContext(t, jsonRequest(t, http.MethodGet, "/internal/print/documents/1", nil), user.ID)
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(int(doc.ID))}}
	h.GetDocumentPrintData(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	if data["user_id"].(float64) != float64(user.ID) {
		t.Fatalf("user_id = %v, want %d", data["user_id"], user.ID)
	}
	finance, ok := data["finance"].(map[string]any)
	if !ok {
		t.Fatalf("business plan print data must embed finance, got %v", data["finance"])
	}
	produits := finance["produits"].([]any)
	if len(produits) != 1 {
		t.Fatalf("expected stored product in print data, got %v", finance["produits"])
	}
	if _, ok := finance["prets"].([]any); !ok {
		t.Fatalf("missing collections must serialize as empty arrays, got %v", finance["prets"])
	}
	template := data["template"].(map[string]any)
	if template["layout"] != "two-column" {
		t.Fatalf("template content mangled: %v", data["template"])
	}
	overrides := data["style_overrides"].(map[string]any)
	if overrides["accent"] != "#204080" {
		t.Fatalf("style overrides mangled: %v", data["style_overrides"])
	}
}

func TestGetDocumentPrintData_CVSkipsFinance(t *testing.T) {
	db := newTestDB(t, "print_cv")
	user := seedUser(t, db, "alice")
	doc := seedDocument(t, db, user.ID, database.KindCV)
	h := NewPrintHandler(db, discardLogger())

	c, w := testContext(t, jsonRequest(t, http.MethodGet, "/internal/print/documents/1", nil), user.ID)
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(int(doc.ID))}}
	h.GetDocumentPrintData(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	if _, present := data["finance"]; present {
		t.Fatalf("cv print data must not embed finance")
	}
	if _, present := data["template"]; present {
		t.Fatalf("unbound document must not embed a template")
	}
}
