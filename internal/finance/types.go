package finance

// LigneCout is one cost line inside a product cost sheet. Amounts are HT
// (hors taxes); SousTotal may be supplied directly or derived from
// Quantite × CoutUnitaire, see Normalize.
type LigneCout struct {
	Designation  string  `json:"designation"`
	Quantite     float64 `json:"quantite"`
	CoutUnitaire float64 `json:"cout_unitaire"`
	SousTotal    float64 `json:"sous_total"`
}

// Produit is a fully costed product: the three cost families plus the
// derived totals. Computed fields are filled by AppendProduit and never
// trusted from the client.
type Produit struct {
	ID                 string      `json:"id"`
	Nom                string      `json:"nom"`
	Quantite           float64     `json:"quantite"`
	Taxes              float64     `json:"taxes"` // taux de TVA en pourcentage
	MatieresPremieres  []LigneCout `json:"matieres_premieres"`
	MainDoeuvreDirecte []LigneCout `json:"main_doeuvre_directe"`
	CoutsIndirects     []LigneCout `json:"couts_indirects"`
	TotalHT            float64     `json:"total_ht"`
	TotalTTC           float64     `json:"total_ttc"`
	CoutUnitaireTTC    float64     `json:"cout_unitaire_ttc"`
}

// ProduitInput is the client-submitted part of a product cost sheet.
type ProduitInput struct {
	Nom                string      `json:"nom"`
	Quantite           float64     `json:"quantite"`
	Taxes              float64     `json:"taxes"`
	MatieresPremieres  []LigneCout `json:"matieres_premieres"`
	MainDoeuvreDirecte []LigneCout `json:"main_doeuvre_directe"`
	CoutsIndirects     []LigneCout `json:"couts_indirects"`
}

// ElementCapital is one startup-capital entry. TotalHT mirrors the
// normalized SousTotal and is what the grand total sums over.
type ElementCapital struct {
	Designation  string  `json:"designation"`
	Quantite     float64 `json:"quantite"`
	CoutUnitaire float64 `json:"cout_unitaire"`
	SousTotal    float64 `json:"sous_total"`
	TotalHT      float64 `json:"total_ht"`
}

// CapitalDemarrage groups the three startup-capital sub-collections and a
// rolling grand total. Total is always recomputed from scratch on append so
// it cannot drift from the entries.
type CapitalDemarrage struct {
	FraisPreoperationnels []ElementCapital `json:"frais_preoperationnels"`
	Immobilisations       []ElementCapital `json:"immobilisations"`
	FondsRoulement        []ElementCapital `json:"fonds_roulement"`
	Total                 float64          `json:"total"`
}

// CategorieCapital names one of the three startup-capital sub-collections.
type CategorieCapital string

const (
	CategoriePreoperationnel CategorieCapital = "frais_preoperationnels"
	CategorieImmobilisation  CategorieCapital = "immobilisations"
	CategorieFondsRoulement  CategorieCapital = "fonds_roulement"
)

// ParseCategorie maps a URL segment to a capital category.
func ParseCategorie(raw string) (CategorieCapital, error) {
	switch CategorieCapital(raw) {
	case CategoriePreoperationnel, CategorieImmobilisation, CategorieFondsRoulement:
		return CategorieCapital(raw), nil
	default:
		return "", &ValidationError{Field: "categorie", Reason: "unknown capital category " + raw}
	}
}
