package service

import (
	"github.com/kdduha/code-explainer/backend/internal/models"
	"github.com/kdduha/code-explainer/backend/internal/provider"
)

// BuildMessages returns the system instruction followed by the user
// message embedding the snippet verbatim.
func BuildMessages(snippet string) []models.ChatMessage {
	return []models.ChatMessage{
		{Role: models.RoleSystem, Content: systemPrompt},
		{Role: models.RoleUser, Content: getUserPrompt(snippet)},
	}
}

func getUserPrompt(snippet string) string {
	return userPromptPrefix + "\n\n" + snippet
}

func (e *ExplainService) buildProviderReq(req *models.ExplainRequest) provider.Request {
	return provider.Request{
		Model:       e.generation.Model,
		Messages:    BuildMessages(req.CodeSnippet),
		MaxTokens:   e.generation.MaxTokens,
		Temperature: e.generation.Temperature,
	}
}
