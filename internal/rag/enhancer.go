package rag

import (
	"fmt"
	"strings"
)

const enhancedTemplate = `
Database Schema Context:
%s

USER QUESTION: %s

Please generate accurate SQL based on the database schema context above. Use the correct table names, field names, and relationships. Filter appropriately based on the question.
`

// Enhance merges retrieved context into a prompt for the generation
// service. With no context the question passes through unchanged so
// generation is never blocked on missing context. Pure function.
func Enhance(question string, contexts []string) string {
	if len(contexts) == 0 {
		return question
	}

	return fmt.Sprintf(enhancedTemplate, strings.Join(contexts, "\n"), question)
}
