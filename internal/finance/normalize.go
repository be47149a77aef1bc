package finance

// NormalizeLigne derives SousTotal from Quantite × CoutUnitaire when the
// client did not supply it. Missing numerics stay at zero; an explicit
// sous_total is trusted as given. Runs before any aggregation.
func NormalizeLigne(l LigneCout) LigneCout {
	if l.SousTotal == 0 && l.Quantite != 0 && l.CoutUnitaire != 0 {
		l.SousTotal = l.Quantite * l.CoutUnitaire
	}
	return l
}

// NormalizeLignes applies NormalizeLigne to a copy of the slice.
func NormalizeLignes(lignes []LigneCout) []LigneCout {
	if lignes == nil {
		return nil
	}
	out := make([]LigneCout, len(lignes))
	for i, l := range lignes {
		out[i] = NormalizeLigne(l)
	}
	return out
}

// NormalizeElement applies the same quantity × unit-cost derivation to a
// startup-capital entry and mirrors the result into TotalHT.
func NormalizeElement(e ElementCapital) ElementCapital {
	if e.SousTotal == 0 && e.Quantite != 0 && e.CoutUnitaire != 0 {
		e.SousTotal = e.Quantite * e.CoutUnitaire
	}
	e.TotalHT = e.SousTotal
	return e
}
