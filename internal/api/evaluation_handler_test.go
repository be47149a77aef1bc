package api

import (
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"bizplan/internal/database"
)

func TestSubmitEvaluation_EmptyAnswersRejected(t *testing.T) {
	db := newTestDB(t, "eval_empty")
	user := seedUser(t, db, "alice")
	doc := seedDocument(t, db, user.ID, database.KindBusinessPlan)
	h := NewEvaluationHandler(db, nil, nil, discardLogger())

	c, w := testContext(t, jsonRequest(t, http.MethodPost, "/v1/documents/1/evaluation", map[string]any{
		"reponses": map[string]string{},
	}), user.ID)
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(int(doc.ID))}}
	h.SubmitEvaluation(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestSubmitEvaluation_UnknownDocument(t *testing.T) {
	db := newTestDB(t, "eval_nodoc")
	user := seedUser(t, db, "alice")
	h := NewEvaluationHandler(db, nil, nil, discardLogger())

	c, w := testContext(t, jsonRequest(t, http.MethodPost, "/v1/documents/99/evaluation", map[string]any{
		"reponses": map[string]string{"q1": "oui"},
	}), user.ID)
	c.Params = gin.Params{{Key: "id", Value: "99"}}
	h.SubmitEvaluation(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestGetEvaluation_ReturnsSectionsAndHTML(t *testing.T) {
	db := newTestDB(t, "eval_get")
	user := seedUser(t, db, "alice")
	doc := seedDocument(t, db, user.ID, database.KindBusinessPlan)
	eval := database.Evaluation{
		DocumentID:    doc.ID,
		Status:        database.EvaluationCompleted,
		Reponses:      datatypes.JSON([]byte(`{"q1":"oui"}`)),
		Positifs:      "- Marché porteur",
		Negatifs:      "- Concurrence forte",
		Ameliorations: "- Préciser le budget",
	}
	if err := db.Create(&eval).Error; err != nil {
		t.Fatalf("seed evaluation: %v", err)
	}
	h := NewEvaluationHandler(db, nil, nil, discardLogger())

	c, w := testContext(t, jsonRequest(t, http.MethodGet, "/v1/documents/1/evaluation", nil), user.ID)
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(int(doc.ID))}}
	h.GetEvaluation(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	data := decodeEnvelope(t, w)["data"].(map[string]any)
	evalData := data["evaluation"].(map[string]any)
	if evalData["status"] != database.EvaluationCompleted {
		t.Fatalf("status = %v, want completed", evalData["status"])
	}
	if evalData["positifs"] != "- Marché porteur" {
		t.Fatalf("positifs mangled: %v", evalData["positifs"])
	}
	html, ok := data["html"].(map[string]any)
	if !ok {
		t.Fatalf("expected rendered html variant, got %v", data["html"])
	}
	if !strings.Contains(html["positifs"].(string), "<li>") {
		t.Fatalf("markdown list not rendered: %v", html["positifs"])
	}
	if _, present := data["report_url"]; present {
		t.Fatalf("report_url must be absent until the report is generated")
	}
}

func TestGetEvaluation_NotFoundBeforeSubmission(t *testing.T) {
	db := newTestDB(t, "eval_missing")
	user := seedUser(t, db, "alice")
	doc := seedDocument(t, db, user.ID, database.KindBusinessPlan)
	h := NewEvaluationHandler(db, nil, nil, discardLogger())

	c, w := testContext(t, jsonRequest(t, http.MethodGet, "/v1/documents/1/evaluation", nil), user.ID)
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(int(doc.ID))}}
	h.GetEvaluation(c)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d body=%s", w.Code, w.Body.String())
	}
}
