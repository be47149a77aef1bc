package finance

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAppendProduitComputesTotals(t *testing.T) {
	in := ProduitInput{
		Nom:      "robe sur mesure",
		Quantite: 4,
		Taxes:    10,
		MatieresPremieres: []LigneCout{
			{Designation: "tissu wax", Quantite: 2, CoutUnitaire: 100},
		},
	}

	updated, p := AppendProduit(nil, in)
	if len(updated) != 1 {
		t.Fatalf("expected 1 product, got %d", len(updated))
	}
	if !almostEqual(p.MatieresPremieres[0].SousTotal, 200) {
		t.Fatalf("sous_total not derived: %v", p.MatieresPremieres[0])
	}
	if !almostEqual(p.TotalHT, 200) {
		t.Fatalf("total_ht = %v, want 200", p.TotalHT)
	}
	if !almostEqual(p.TotalTTC, 220) {
		t.Fatalf("total_ttc = %v, want 220", p.TotalTTC)
	}
	if !almostEqual(p.CoutUnitaireTTC, 55) {
		t.Fatalf("cout_unitaire_ttc = %v, want 55", p.CoutUnitaireTTC)
	}
	if p.ID == "" {
		t.Fatal("product id not assigned")
	}
}

func TestAppendProduitSumsAllFamilies(t *testing.T) {
	in := ProduitInput{
		Nom:      "savon artisanal",
		Quantite: 10,
		Taxes:    18,
		MatieresPremieres: []LigneCout{
			{Designation: "huile de palme", SousTotal: 300},
			{Designation: "soude", SousTotal: 50},
		},
		MainDoeuvreDirecte: []LigneCout{
			{Designation: "façonnage", SousTotal: 100},
		},
		CoutsIndirects: []LigneCout{
			{Designation: "énergie", SousTotal: 50},
		},
	}

	_, p := AppendProduit(nil, in)
	if !almostEqual(p.TotalHT, 500) {
		t.Fatalf("total_ht = %v, want 500", p.TotalHT)
	}
	if !almostEqual(p.TotalTTC, 590) {
		t.Fatalf("total_ttc = %v, want 590", p.TotalTTC)
	}
	if !almostEqual(p.CoutUnitaireTTC, 59) {
		t.Fatalf("cout_unitaire_ttc = %v, want 59", p.CoutUnitaireTTC)
	}
}

func TestAppendProduitZeroQuantity(t *testing.T) {
	in := ProduitInput{
		Nom:               "prototype",
		Quantite:          0,
		Taxes:             18,
		MatieresPremieres: []LigneCout{{Designation: "tissu", SousTotal: 120}},
	}

	_, p := AppendProduit(nil, in)
	if p.CoutUnitaireTTC != 0 {
		t.Fatalf("zero quantity must yield zero unit cost, got %v", p.CoutUnitaireTTC)
	}
}

func TestAppendProduitIsAppendOnly(t *testing.T) {
	existing, first := AppendProduit(nil, ProduitInput{Nom: "robe", Quantite: 1})
	updated, _ := AppendProduit(existing, ProduitInput{Nom: "robe", Quantite: 2})

	if len(updated) != 2 {
		t.Fatalf("resubmission must append, got %d entries", len(updated))
	}
	if updated[0].ID != first.ID {
		t.Fatal("existing entry rewritten on append")
	}
}

func TestAppendElementCapitalRecomputesGrandTotal(t *testing.T) {
	rec := CapitalDemarrage{}

	rec, err := AppendElementCapital(rec, CategoriePreoperationnel, ElementCapital{
		Designation: "frais de notaire", SousTotal: 200,
	})
	if err != nil {
		t.Fatalf("append preop: %v", err)
	}
	rec, err = AppendElementCapital(rec, CategorieImmobilisation, ElementCapital{
		Designation: "machine à coudre", Quantite: 3, CoutUnitaire: 50,
	})
	if err != nil {
		t.Fatalf("append immobilisation: %v", err)
	}
	rec, err = AppendElementCapital(rec, CategorieFondsRoulement, ElementCapital{
		Designation: "stock initial", SousTotal: 100,
	})
	if err != nil {
		t.Fatalf("append fonds roulement: %v", err)
	}

	if !almostEqual(rec.Immobilisations[0].TotalHT, 150) {
		t.Fatalf("derived total_ht = %v, want 150", rec.Immobilisations[0].TotalHT)
	}
	if !almostEqual(rec.Total, 450) {
		t.Fatalf("grand total = %v, want 450", rec.Total)
	}

	want := sumElements(rec.FraisPreoperationnels) +
		sumElements(rec.Immobilisations) +
		sumElements(rec.FondsRoulement)
	if !almostEqual(rec.Total, want) {
		t.Fatalf("grand total %v != sum of sub-collections %v", rec.Total, want)
	}
}

func TestAppendElementCapitalSelfHeals(t *testing.T) {
	// An earlier malformed entry left a wrong grand total; the next append
	// must recompute from the entries and correct it.
	rec := CapitalDemarrage{
		FraisPreoperationnels: []ElementCapital{{Designation: "licence", TotalHT: 80}},
		Total:                 9999,
	}

	rec, err := AppendElementCapital(rec, CategorieFondsRoulement, ElementCapital{
		Designation: "caisse", SousTotal: 20,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if !almostEqual(rec.Total, 100) {
		t.Fatalf("grand total = %v, want self-healed 100", rec.Total)
	}
}

func TestAppendElementCapitalUnknownCategory(t *testing.T) {
	_, err := AppendElementCapital(CapitalDemarrage{}, CategorieCapital("prets"), ElementCapital{SousTotal: 10})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestParseCategorie(t *testing.T) {
	for _, raw := range []string{"frais_preoperationnels", "immobilisations", "fonds_roulement"} {
		if _, err := ParseCategorie(raw); err != nil {
			t.Fatalf("ParseCategorie(%q): %v", raw, err)
		}
	}
	if _, err := ParseCategorie("ventes"); err == nil {
		t.Fatal("unknown category accepted")
	}
}
