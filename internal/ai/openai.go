package ai

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/v0xg/webscript/internal/crawler"
	"github.com/v0xg/webscript/internal/steps"
)

// OpenAIProvider implements the Provider interface using OpenAI
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(model string) (*OpenAIProvider, error) {
	key, err := apiKey("WEBSCRIPT_OPENAI_KEY", "OPENAI_API_KEY")
	if err != nil {
		return nil, err
	}

	if model == "" {
		model = openai.GPT4o
	}

	return &OpenAIProvider{
		client: openai.NewClient(key),
		model:  model,
	}, nil
}

// Draft asks OpenAI for a script performing task on the mapped page
func (p *OpenAIProvider) Draft(ctx context.Context, pageMap *crawler.PageMap, task string) ([]steps.Step, error) {
	prompt, err := userPrompt(pageMap, task)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: 2048,
	})
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	responseText := resp.Choices[0].Message.Content
	list, err := parseScript(responseText)
	if err != nil {
		return nil, fmt.Errorf("OpenAI returned an unusable script: %w\nResponse: %s", err, responseText)
	}
	return list, nil
}
