package finance

import "testing"

func TestNormalizeLigneDerivesSousTotal(t *testing.T) {
	l := NormalizeLigne(LigneCout{Quantite: 2, CoutUnitaire: 100})
	if l.SousTotal != 200 {
		t.Fatalf("sous_total = %v, want 200", l.SousTotal)
	}
}

func TestNormalizeLigneTrustsExplicitSousTotal(t *testing.T) {
	l := NormalizeLigne(LigneCout{Quantite: 2, CoutUnitaire: 100, SousTotal: 180})
	if l.SousTotal != 180 {
		t.Fatalf("explicit sous_total overwritten: %v", l.SousTotal)
	}
}

func TestNormalizeLigneMissingNumericsStayZero(t *testing.T) {
	cases := []LigneCout{
		{},
		{Quantite: 3},
		{CoutUnitaire: 50},
	}
	for _, in := range cases {
		if out := NormalizeLigne(in); out.SousTotal != 0 {
			t.Fatalf("NormalizeLigne(%+v).SousTotal = %v, want 0", in, out.SousTotal)
		}
	}
}

func TestNormalizeLignesCopies(t *testing.T) {
	in := []LigneCout{{Quantite: 3, CoutUnitaire: 50}}
	out := NormalizeLignes(in)
	if out[0].SousTotal != 150 {
		t.Fatalf("sous_total = %v, want 150", out[0].SousTotal)
	}
	if in[0].SousTotal != 0 {
		t.Fatal("input slice mutated")
	}
}

func TestNormalizeElementMirrorsTotalHT(t *testing.T) {
	e := NormalizeElement(ElementCapital{Quantite: 3, CoutUnitaire: 50})
	if e.SousTotal != 150 || e.TotalHT != 150 {
		t.Fatalf("got sous_total=%v total_ht=%v, want 150/150", e.SousTotal, e.TotalHT)
	}

	e = NormalizeElement(ElementCapital{SousTotal: 75})
	if e.TotalHT != 75 {
		t.Fatalf("total_ht = %v, want mirrored 75", e.TotalHT)
	}
}
