package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"bizplan/internal/database"
)

func newTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func jsonRequest(t *testing.T, method, target string, payload any) *http.Request {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode payload: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func testContext(t *testing.T, req *http.Request, userID uint) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set("userID", userID)
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v body=%s", err, w.Body.String())
	}
	return out
}

func seedUser(t *testing.T, db *gorm.DB, username string) database.User {
	t.Helper()
	user := database.User{Username: username, PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedDocument(t *testing.T, db *gorm.DB, userID uint, kind string) database.Document {
	t.Helper()
	doc := database.Document{
		Kind:    kind,
		Content: []byte("{}"),
		Status:  database.StatusDraft,
		UserID:  userID,
	}
	if err := db.Create(&doc).Error; err != nil {
		t.Fatalf("seed document: %v", err)
	}
	return doc
}

func TestGetOrCreateByKind_CreatesDraftOnce(t *testing.T) {
	db := newTestDB(t, "doc_create")
	user := seedUser(t, db, "alice")
	h := NewDocumentHandler(db, nil, nil)

	c, w := testContext(t, jsonRequest(t, http.MethodGet, "/v1/document-kinds/business-plan", nil), user.ID)
	c.Params = gin.Params{{Key: "kind", Value: database.KindBusinessPlan}}
	h.GetOrCreateByKind(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	if data["status"] != database.StatusDraft {
		t.Fatalf("expected draft status, got %v", data["status"])
	}
	if data["content"].(map[string]any) == nil {
		t.Fatalf("expected empty object content")
	}
	firstID := data["id"].(float64)

	c, w = testContext(t, jsonRequest(t, http.MethodGet, "/v1/document-kinds/business-plan", nil), user.ID)
	c.Params = gin.Params{{Key: "kind", Value: database.KindBusinessPlan}}
	h.GetOrCreateByKind(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on second call got %d", w.Code)
	}
	data = decodeEnvelope(t, w)["data"].(map[string]any)
	if data["id"].(float64) != firstID {
		t.Fatalf("expected same document, got %v and %v", firstID, data["id"])
	}
}

func TestGetOrCreateByKind_RejectsUnknownKind(t *testing.T) {
	db := newTestDB(t, "doc_badkind")
	user := seedUser(t, db, "alice")
	h := NewDocumentHandler(db, nil, nil)

	c, w := testContext(t, jsonRequest(t, http.MethodGet, "/v1/document-kinds/memo", nil), user.ID)
	c.Params = gin.Params{{Key: "kind", Value: "memo"}}
	h.GetOrCreateByKind(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", w.Code)
	}
}

func TestMergeContent_PartialMergeStaysDraft(t *testing.T) {
	db := newTestDB(t, "doc_merge_partial")
	user := seedUser(t, db, "alice")
	doc := seedDocument(t, db, user.ID, database.KindBusinessPlan)
	h := NewDocumentHandler(db, nil, nil)

	payload := map[string]any{
		"sections": map[string]any{
			"presentation": map[string]any{"nom_projet": "Boulangerie Ndiaye"},
		},
	}
	c, w := testContext(t, jsonRequest(t, http.MethodPatch, "/v1/documents/1/content", payload), user.ID)
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(int(doc.ID))}}
	h.MergeContent(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	if data["status"] != database.StatusDraft {
		t.Fatalf("partial content should stay draft, got %v", data["status"])
	}
	content := data["content"].(map[string]any)
	pres := content["presentation"].(map[string]any)
	if pres["nom_projet"] != "Boulangerie Ndiaye" {
		t.Fatalf("merged field missing: %v", content)
	}
}

func completeBusinessPlanSections() map[string]any {
	return map[string]any{
		"presentation": map[string]any{
			"nom_projet":           "Boulangerie Ndiaye",
			"description_activite": "Boulangerie artisanale",
			"forme_juridique":      "SARL",
			"localisation":         "Dakar",
		},
		"marche": map[string]any{
			"clientele_cible":     "Quartier Plateau",
			"analyse_concurrence": "Deux boulangeries industrielles",
			"zone_geographique":   "Dakar centre",
		},
		"strategie": map[string]any{
			"politique_prix":      "Prix moyens du marché",
			"canaux_distribution": "Vente directe",
			"plan_communication":  "Réseaux sociaux",
		},
		"equipe": map[string]any{
			"fondatrice": map[string]any{
				"nom":             "Awa Ndiaye",
				"role":            "Gérante",
				"responsabilites": "Direction générale",
			},
		},
		"operations": map[string]any{
			"locaux":       "Local de 60 m2",
			"equipements":  "Four, pétrin",
			"fournisseurs": "Minoterie locale",
		},
		"finances": map[string]any{
			"besoin_demarrage":    "5000000 FCFA",
			"sources_financement": "Apport personnel et prêt",
		},
		"calendrier": map[string]any{
			"date_lancement": "2026-01-15",
			"etapes_cles":    "Travaux, ouverture",
		},
	}
}

func TestMergeContent_CompletePlanPublishes(t *testing.T) {
	db := newTestDB(t, "doc_merge_publish")
	user := seedUser(t, db, "alice")
	doc := seedDocument(t, db, user.ID, database.KindBusinessPlan)
	h := NewDocumentHandler(db, nil, nil)

	payload := map[string]any{"sections": completeBusinessPlanSections()}
	c, w := testContext(t, jsonRequest(t, http.MethodPatch, "/v1/documents/1/content", payload), user.ID)
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(int(doc.ID))}}
	h.MergeContent(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	if data["status"] != database.StatusPublished {
		t.Fatalf("complete plan should publish, got %v", data["status"])
	}

	// Blanking a field later must not demote the published document.
	payload = map[string]any{
		"sections": map[string]any{
			"presentation": map[string]any{"nom_projet": ""},
		},
	}
	c, w = testContext(t, jsonRequest(t, http.MethodPatch, "/v1/documents/1/content", payload), user.ID)
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(int(doc.ID))}}
	h.MergeContent(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	data = decodeEnvelope(t, w)["data"].(map[string]any)
	if data["status"] != database.StatusPublished {
		t.Fatalf("published must be sticky, got %v", data["status"])
	}
}

func TestMergeContent_OtherUsersDocumentNotFound(t *testing.T) {
	db := newTestDB(t, "doc_merge_owner")
	owner := seedUser(t, db, "alice")
	intruder := seedUser(t, db, "mallory")
	doc := seedDocument(t, db, owner.ID, database.KindCV)
	h := NewDocumentHandler(db, nil, nil)

	payload := map[string]any{
		"sections": map[string]any{"profil": map[string]any{"resume": "..."}},
	}
	c, w := testContext(t, jsonRequest(t, http.MethodPatch, "/v1/documents/1/content", payload), intruder.ID)
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(int(doc.ID))}}
	h.MergeContent(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}

func TestDeleteDocument_RemovesDependents(t *testing.T) {
	db := newTestDB(t, "doc_delete")
	user := seedUser(t, db, "alice")
	doc := seedDocument(t, db, user.ID, database.KindBusinessPlan)
	if err := db.Create(&database.FinancialRecord{DocumentID: doc.ID}).Error; err != nil {
		t.Fatalf("seed record: %v", err)
	}
	if err := db.Create(&database.Evaluation{DocumentID: doc.ID, Status: database.EvaluationPending}).Error; err != nil {
		t.Fatalf("seed evaluation: %v", err)
	}
	h := NewDocumentHandler(db, nil, nil)

	c, w := testContext(t, jsonRequest(t, http.MethodDelete, "/v1/documents/1", nil), user.ID)
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(int(doc.ID))}}
	h.DeleteDocument(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&database.FinancialRecord{}).Where("document_id = ?", doc.ID).Count(&count)
	if count != 0 {
		t.Fatalf("financial record should be deleted")
	}
	db.Model(&database.Evaluation{}).Where("document_id = ?", doc.ID).Count(&count)
	if count != 0 {
		t.Fatalf("evaluation should be deleted")
	}
	db.Model(&database.Document{}).Where("id = ?", doc.ID).Count(&count)
	if count != 0 {
		t.Fatalf("document should be deleted")
	}
}

func TestGetExportLink_ConflictBeforePDFReady(t *testing.T) {
	db := newTestDB(t, "doc_exportlink")
	user := seedUser(t, db, "alice")
	doc := seedDocument(t, db, user.ID, database.KindBusinessPlan)
	h := NewDocumentHandler(db, nil, nil)

	c, w := testContext(t, jsonRequest(t, http.MethodGet, "/v1/documents/1/export-link", nil), user.ID)
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(int(doc.ID))}}
	h.GetExportLink(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 before pdf exists, got %d body=%s", w.Code, w.Body.String())
	}
}
