package document

import (
	"strings"

	"github.com/tidwall/gjson"
)

// requiredSection lists the fields a section must carry before a business
// plan may leave draft. A nested section holds repeated entries (keyed by
// entry id) that must each carry the required fields.
type requiredSection struct {
	Name   string
	Fields []string
	Nested bool
}

// requiredSchema is the completeness contract for the business-plan form.
var requiredSchema = []requiredSection{
	{Name: "presentation", Fields: []string{"nom_projet", "description_activite", "forme_juridique", "localisation"}},
	{Name: "marche", Fields: []string{"clientele_cible", "analyse_concurrence", "zone_geographique"}},
	{Name: "strategie", Fields: []string{"politique_prix", "canaux_distribution", "plan_communication"}},
	{Name: "equipe", Fields: []string{"nom", "role", "responsabilites"}, Nested: true},
	{Name: "operations", Fields: []string{"locaux", "equipements", "fournisseurs"}},
	{Name: "finances", Fields: []string{"besoin_demarrage", "sources_financement"}},
	{Name: "calendrier", Fields: []string{"date_lancement", "etapes_cles"}},
}

// IsComplete reports whether every required (section, field) leaf exists and
// is non-empty. Empty strings, nulls and missing paths all fail; once true,
// further merges that do not blank a required leaf keep it true.
func IsComplete(content []byte) bool {
	if len(content) == 0 {
		return false
	}
	for _, section := range requiredSchema {
		if section.Nested {
			if !nestedSectionComplete(content, section) {
				return false
			}
			continue
		}
		for _, field := range section.Fields {
			if !leafFilled(gjson.GetBytes(content, section.Name+"."+field)) {
				return false
			}
		}
	}
	return true
}

// nestedSectionComplete requires at least one entry, each carrying every
// required member field.
func nestedSectionComplete(content []byte, section requiredSection) bool {
	entries := gjson.GetBytes(content, section.Name)
	if !entries.IsObject() {
		return false
	}
	count := 0
	complete := true
	entries.ForEach(func(_, entry gjson.Result) bool {
		count++
		if !entry.IsObject() {
			complete = false
			return false
		}
		for _, field := range section.Fields {
			if !leafFilled(entry.Get(field)) {
				complete = false
				return false
			}
		}
		return true
	})
	return complete && count > 0
}

func leafFilled(value gjson.Result) bool {
	if !value.Exists() {
		return false
	}
	switch value.Type {
	case gjson.Null:
		return false
	case gjson.String:
		return strings.TrimSpace(value.Str) != ""
	default:
		return true
	}
}
