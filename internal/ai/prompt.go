package ai

import (
	"fmt"
	"sort"
	"strings"
)

// BuildEvaluationPrompt turns the questionnaire answers into a review
// request. The system message pins the three marker labels the sectionizer
// looks for; answers are sorted by key so the prompt is stable across runs.
func BuildEvaluationPrompt(projectName string, answers map[string]string) Prompt {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("Voici les réponses du porteur de projet")
	if projectName != "" {
		fmt.Fprintf(&sb, " pour « %s »", projectName)
	}
	sb.WriteString(" :\n\n")
	for _, k := range keys {
		answer := strings.TrimSpace(answers[k])
		if answer == "" {
			answer = "(sans réponse)"
		}
		fmt.Fprintf(&sb, "- %s : %s\n", k, answer)
	}
	sb.WriteString("\nÉvalue ce projet d'entreprise.")

	return Prompt{
		System: "Tu es un conseiller en création d'entreprise. " +
			"Réponds en français avec exactement trois sections, dans cet ordre : " +
			"« ✅ Points positifs: », « ❌ Points négatifs: », « 💡 Recommandations: ». " +
			"Sois concret et concis, sans autre préambule.",
		User: sb.String(),
	}
}
