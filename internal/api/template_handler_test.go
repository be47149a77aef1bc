package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"bizplan/internal/database"
)

func TestListTemplates_OwnPlusPublic(t *testing.T) {
	db := newTestDB(t, "tpl_list")
	owner := seedUser(t, db, "alice")
	other := seedUser(t, db, "bob")

	for _, tmpl := range []database.Template{
		{Title: "Mine", Content: datatypes.JSON([]byte("{}")), UserID: owner.ID},
		{Title: "Public", Content: datatypes.JSON([]byte("{}")), UserID: other.ID, IsPublic: true},
		{Title: "Private elsewhere", Content: datatypes.JSON([]byte("{}")), UserID: other.ID},
	} {
		if err := db.Create(&tmpl).Error; err != nil {
			t.Fatalf("seed template: %v", err)
		}
	}
	h := NewTemplateHandler(db)

	c, w := testContext(t, jsonRequest(t, http.MethodGet, "/v1/templates", nil), owner.ID)
	h.ListTemplates(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	items := decodeEnvelope(t, w)["data"].([]any)
	if len(items) != 2 {
		t.Fatalf("expected own + public templates, got %d: %s", len(items), w.Body.String())
	}
	for _, item := range items {
		title := item.(map[string]any)["title"]
		if title == "Private elsewhere" {
			t.Fatalf("foreign private template leaked into listing")
		}
	}
}

func TestGetTemplate_ForbiddenForForeignPrivate(t *testing.T) {
	db := newTestDB(t, "tpl_forbidden")
	owner := seedUser(t, db, "alice")
	intruder := seedUser(t, db, "mallory")
	tmpl := database.Template{Title: "Secret", Content: datatypes.JSON([]byte("{}")), UserID: owner.ID}
	if err := db.Create(&tmpl).Error; err != nil {
		t.Fatalf("seed template: %v", err)
	}
	h := NewTemplateHandler(db)

	c, w := testContext(t, jsonRequest(t, http.MethodGet, "/v1/templates/1", nil), intruder.ID)
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(int(tmpl.ID))}}
	h.GetTemplate(c)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestBindTemplate_UpsertsBinding(t *testing.T) {
	db := newTestDB(t, "tpl_bind")
	user := seedUser(t, db, "alice")
	doc := seedDocument(t, db, user.ID, database.KindBusinessPlan)
	first := database.Template{Title: "First", Content: datatypes.JSON([]byte("{}")), UserID: user.ID}
	second := database.Template{Title: "Second", Content: datatypes.JSON([]byte("{}")), IsPublic: true}
	for _, tmpl := range []*database.Template{&first, &second} {
		if err := db.Create(tmpl).Error; err != nil {
			t.Fatalf("seed template: %v", err)
		}
	}
	h := NewTemplateHandler(db)

	bind := func(templateID uint, overrides string) {
		payload := map[string]any{"template_id": templateID}
		if overrides != "" {
			payload["style_overrides"] = json.RawMessage(overrides)
		}
		c, w := testContext(t, jsonRequest(t, http.MethodPut, "/v1/documents/1/template", payload), user.ID)
		c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(int(doc.ID))}}
		h.BindTemplate(c)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
		}
	}

	bind(first.ID, "")
	bind(second.ID, `{"accent":"#204080"}`)

	var bindings []database.TemplateBinding
	if err := db.Where("document_id = ?", doc.ID).Find(&bindings).Error; err != nil {
		t.Fatalf("load bindings: %v", err)
	}
	if len(bindings) != 1 {
		t.Fatalf("rebinding must replace, got %d rows", len(bindings))
	}
	if bindings[0].TemplateID != second.ID {
		t.Fatalf("binding points at %d, want %d", bindings[0].TemplateID, second.ID)
	}
	if string(bindings[0].StyleOverrides) == "" {
		t.Fatalf("style overrides not stored")
	}
}

func TestBindTemplate_ForeignPrivateTemplateForbidden(t *testing.T) {
	db := newTestDB(t, "tpl_bind_forbidden")
	user := seedUser(t, db, "alice")
	other := seedUser(t, db, "bob")
	doc := seedDocument(t, db, user.ID, database.KindCV)
	tmpl := database.Template{Title: "Private", Content: datatypes.JSON([]byte("{}")), UserID: other.ID}
	if err := db.Create(&tmpl).Error; err != nil {
		t.Fatalf("seed template: %v", err)
	}
	h := NewTemplateHandler(db)

	c, w := testContext(t, jsonRequest(t, http.MethodPut, "/v1/documents/1/template", map[string]any{
		"template_id": tmpl.ID,
	}), user.ID)
	c.Params = gin.Params{{Key: "id", Value: strconv.Itoa(int(doc.ID))}}
	h.BindTemplate(c)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d body=%s", w.Code, w.Body.String())
	}
}
