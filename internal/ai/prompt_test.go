package ai

import (
	"strings"
	"testing"
)

func TestBuildEvaluationPromptIsStable(t *testing.T) {
	answers := map[string]string{
		"marche":  "vente de tissus",
		"budget":  "500000",
		"equipe":  "",
		"produit": "pagnes teints à la main",
	}

	first := BuildEvaluationPrompt("Atelier Kossi", answers)
	second := BuildEvaluationPrompt("Atelier Kossi", answers)
	if first.User != second.User {
		t.Fatal("prompt not deterministic across runs")
	}

	if !strings.Contains(first.User, "Atelier Kossi") {
		t.Fatalf("project name missing: %q", first.User)
	}
	if !strings.Contains(first.User, "(sans réponse)") {
		t.Fatalf("blank answer not marked: %q", first.User)
	}
	// Sorted keys: budget before marche before produit.
	if strings.Index(first.User, "budget") > strings.Index(first.User, "marche") {
		t.Fatalf("answers not sorted: %q", first.User)
	}

	for _, marker := range []string{"✅ Points positifs:", "❌ Points négatifs:", "💡 Recommandations:"} {
		if !strings.Contains(first.System, marker) {
			t.Fatalf("system prompt missing marker %q", marker)
		}
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML("Bon projet avec une **marge correcte**.")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, "<strong>marge correcte</strong>") {
		t.Fatalf("markdown not rendered: %q", html)
	}
}
