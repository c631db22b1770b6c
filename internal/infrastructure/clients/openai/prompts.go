package openai

import (
	"fmt"
	"strings"
)

const draftSystemPrompt = `You help doctors answer patient questions. Write a short draft reply (at most 120 words) in plain language that a doctor will review and edit before it is sent. Do not diagnose, do not prescribe, and recommend contacting a clinician for anything urgent. Reply with the draft text only.`

func buildDraftUserPrompt(queryText, condition string) string {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		condition = "not recorded"
	}
	return fmt.Sprintf("Patient condition: %s\n\nPatient question:\n%s", condition, strings.TrimSpace(queryText))
}
