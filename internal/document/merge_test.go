package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"gorm.io/datatypes"
)

func mustMerge(t *testing.T, existing datatypes.JSON, incoming Sections) datatypes.JSON {
	t.Helper()
	out, err := Merge(existing, incoming)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	return out
}

func decodeTree(t *testing.T, raw datatypes.JSON) map[string]any {
	t.Helper()
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		t.Fatalf("decode merged tree: %v", err)
	}
	return tree
}

func TestMergeCreatesIntermediateSections(t *testing.T) {
	out := mustMerge(t, nil, Sections{
		"presentation": {"nom_projet": "Atelier Kossi"},
	})

	tree := decodeTree(t, out)
	section, ok := tree["presentation"].(map[string]any)
	if !ok {
		t.Fatalf("presentation section missing: %v", tree)
	}
	if section["nom_projet"] != "Atelier Kossi" {
		t.Fatalf("unexpected value: %v", section["nom_projet"])
	}
}

func TestMergeLeavesUnrelatedPathsUntouched(t *testing.T) {
	existing := datatypes.JSON(`{"presentation":{"nom_projet":"Atelier Kossi","forme_juridique":"SARL"},"marche":{"clientele_cible":"artisans"}}`)

	out := mustMerge(t, existing, Sections{
		"presentation": {"nom_projet": "Atelier Kossi & Fils"},
	})

	tree := decodeTree(t, out)
	pres := tree["presentation"].(map[string]any)
	if pres["forme_juridique"] != "SARL" {
		t.Fatalf("sibling field lost: %v", pres)
	}
	marche, ok := tree["marche"].(map[string]any)
	if !ok || marche["clientele_cible"] != "artisans" {
		t.Fatalf("unrelated section lost: %v", tree)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	existing := datatypes.JSON(`{"operations":{"locaux":"marché central"}}`)
	incoming := Sections{
		"operations": {"equipements": "machine à coudre"},
		"finances":   {"besoin_demarrage": "500000"},
	}

	once := mustMerge(t, existing, incoming)
	twice := mustMerge(t, once, incoming)

	if !reflect.DeepEqual(decodeTree(t, once), decodeTree(t, twice)) {
		t.Fatalf("merge not idempotent:\nonce:  %s\ntwice: %s", once, twice)
	}
}

func TestMergeStoresEmptyString(t *testing.T) {
	existing := datatypes.JSON(`{"marche":{"zone_geographique":"Lomé"}}`)

	out := mustMerge(t, existing, Sections{
		"marche": {"zone_geographique": ""},
	})

	tree := decodeTree(t, out)
	value, ok := tree["marche"].(map[string]any)["zone_geographique"]
	if !ok {
		t.Fatal("field removed instead of overwritten")
	}
	if value != "" {
		t.Fatalf("expected empty string, got %v", value)
	}
}

func TestMergeNestedTeamEntries(t *testing.T) {
	out := mustMerge(t, nil, Sections{
		"equipe": {
			"membre_1": map[string]any{
				"nom":             "Afi Mensah",
				"role":            "gérante",
				"responsabilites": "production, ventes",
			},
		},
	})

	out = mustMerge(t, out, Sections{
		"equipe": {
			"membre_1": map[string]any{"role": "directrice"},
		},
	})

	tree := decodeTree(t, out)
	member := tree["equipe"].(map[string]any)["membre_1"].(map[string]any)
	if member["role"] != "directrice" {
		t.Fatalf("nested field not updated: %v", member)
	}
	if member["nom"] != "Afi Mensah" {
		t.Fatalf("sibling nested field lost: %v", member)
	}
}

func TestMergeEscapesPathCharacters(t *testing.T) {
	out := mustMerge(t, nil, Sections{
		"presentation": {":. odd*key": "valeur"},
	})

	tree := decodeTree(t, out)
	if tree["presentation"].(map[string]any)[":. odd*key"] != "valeur" {
		t.Fatalf("dotted key mangled: %s", out)
	}
}

func TestMergeRejectsMalformedExisting(t *testing.T) {
	existing := datatypes.JSON(`{"presentation":`)

	_, err := Merge(existing, Sections{"presentation": {"nom_projet": "x"}})
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	// Existing bytes must not have been mutated in place.
	if !bytes.Equal(existing, []byte(`{"presentation":`)) {
		t.Fatal("existing content mutated on failed merge")
	}
}
