package ai

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sections holds the three labeled slices of an LLM review. A category whose
// marker never appears keeps its placeholder; that lenient fallback is
// intentional, the model's phrasing is not under our control.
type Sections struct {
	Positifs      string `json:"positifs"`
	Negatifs      string `json:"negatifs"`
	Ameliorations string `json:"ameliorations"`
}

const (
	PlaceholderPositifs      = "Aucun point positif identifié."
	PlaceholderNegatifs      = "Aucun point négatif identifié."
	PlaceholderAmeliorations = "Aucune recommandation identifiée."
)

type category int

const (
	catPositifs category = iota
	catNegatifs
	catAmeliorations
)

// markerTable lists, per category, the synonym markers searched in order.
// Matching runs on the case-folded text; markers are lowercase.
var markerTable = []struct {
	cat     category
	markers []string
}{
	{catPositifs, []string{"✅", "points positifs", "points forts", "aspects positifs", "forces du projet"}},
	{catNegatifs, []string{"❌", "points négatifs", "points faibles", "aspects négatifs", "faiblesses du projet"}},
	{catAmeliorations, []string{"💡", "recommandations", "axes d'amélioration", "améliorations suggérées", "points à améliorer"}},
}

type foundMarker struct {
	cat    category
	offset int
}

// Sectionize splits one LLM response into the three review sections. For
// each category the first marker present anywhere in the case-folded text
// fixes that section's start; sections run to the next found marker or to
// end of text. Extraction slices the original-case text.
func Sectionize(raw string) Sections {
	out := Sections{
		Positifs:      PlaceholderPositifs,
		Negatifs:      PlaceholderNegatifs,
		Ameliorations: PlaceholderAmeliorations,
	}
	if strings.TrimSpace(raw) == "" {
		return out
	}

	folded := strings.ToLower(raw)

	found := make([]foundMarker, 0, len(markerTable))
	for _, entry := range markerTable {
		for _, marker := range entry.markers {
			if idx := strings.Index(folded, marker); idx >= 0 {
				found = append(found, foundMarker{cat: entry.cat, offset: idx})
				break
			}
		}
	}
	if len(found) == 0 {
		return out
	}

	sort.Slice(found, func(i, j int) bool { return found[i].offset < found[j].offset })

	for i, f := range found {
		end := len(raw)
		if i+1 < len(found) {
			end = found[i+1].offset
		}
		section := cleanSection(raw[f.offset:end])
		if section == "" {
			continue
		}
		switch f.cat {
		case catPositifs:
			out.Positifs = section
		case catNegatifs:
			out.Negatifs = section
		case catAmeliorations:
			out.Ameliorations = section
		}
	}

	return out
}

// cleanSection drops the leading label (up to and including the first colon,
// or a dash-newline the model sometimes uses instead), collapses whitespace
// runs and capitalizes the first rune.
func cleanSection(s string) string {
	if idx := strings.Index(s, ":"); idx >= 0 {
		s = s[idx+1:]
	} else if idx := strings.Index(s, "-\n"); idx >= 0 {
		s = s[idx+2:]
	}

	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}

	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + s[size:]
}
