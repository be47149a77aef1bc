package finance

import "github.com/google/uuid"

// AppendProduit costs a submitted product and appends it to the existing
// list. Line sous-totals are normalized first, then summed per family:
//
//	total_ht          = Σ matières premières + Σ main d'œuvre + Σ coûts indirects
//	total_ttc         = total_ht × (1 + taxes/100)
//	cout_unitaire_ttc = total_ttc / quantite   (0 when quantite is 0)
//
// Products are append-only; resubmitting creates a new entry.
func AppendProduit(existing []Produit, in ProduitInput) ([]Produit, Produit) {
	p := Produit{
		ID:                 uuid.NewString(),
		Nom:                in.Nom,
		Quantite:           in.Quantite,
		Taxes:              in.Taxes,
		MatieresPremieres:  NormalizeLignes(in.MatieresPremieres),
		MainDoeuvreDirecte: NormalizeLignes(in.MainDoeuvreDirecte),
		CoutsIndirects:     NormalizeLignes(in.CoutsIndirects),
	}

	p.TotalHT = sumLignes(p.MatieresPremieres) +
		sumLignes(p.MainDoeuvreDirecte) +
		sumLignes(p.CoutsIndirects)
	p.TotalTTC = p.TotalHT * (1 + p.Taxes/100)
	if p.Quantite > 0 {
		p.CoutUnitaireTTC = p.TotalTTC / p.Quantite
	}

	return append(existing, p), p
}

// AppendElementCapital appends one entry to the named sub-collection and
// recomputes the grand total over all three collections from scratch, so the
// total cannot drift from the stored entries.
func AppendElementCapital(rec CapitalDemarrage, cat CategorieCapital, in ElementCapital) (CapitalDemarrage, error) {
	entry := NormalizeElement(in)

	switch cat {
	case CategoriePreoperationnel:
		rec.FraisPreoperationnels = append(rec.FraisPreoperationnels, entry)
	case CategorieImmobilisation:
		rec.Immobilisations = append(rec.Immobilisations, entry)
	case CategorieFondsRoulement:
		rec.FondsRoulement = append(rec.FondsRoulement, entry)
	default:
		return rec, &ValidationError{Field: "categorie", Reason: "unknown capital category " + string(cat)}
	}

	rec.Total = sumElements(rec.FraisPreoperationnels) +
		sumElements(rec.Immobilisations) +
		sumElements(rec.FondsRoulement)
	return rec, nil
}

func sumLignes(lignes []LigneCout) float64 {
	var total float64
	for _, l := range lignes {
		total += l.SousTotal
	}
	return total
}

func sumElements(elements []ElementCapital) float64 {
	var total float64
	for _, e := range elements {
		total += e.TotalHT
	}
	return total
}
