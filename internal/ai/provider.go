// Package ai drafts step scripts from a page map and a task description
// with a hosted language model.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/v0xg/webscript/internal/crawler"
	"github.com/v0xg/webscript/internal/steps"
)

// Provider drafts a validated step script for a task on the mapped page.
type Provider interface {
	Draft(ctx context.Context, pageMap *crawler.PageMap, task string) ([]steps.Step, error)
}

// NewProvider creates a new AI provider based on the provider name
func NewProvider(name, model string) (Provider, error) {
	switch name {
	case "claude", "anthropic":
		return NewClaudeProvider(model)
	case "openai", "gpt":
		return NewOpenAIProvider(model)
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: claude, openai)", name)
	}
}

func apiKey(vars ...string) (string, error) {
	for _, v := range vars {
		if key := os.Getenv(v); key != "" {
			return key, nil
		}
	}
	return "", fmt.Errorf("%s environment variable required", strings.Join(vars, " or "))
}

func userPrompt(pageMap *crawler.PageMap, task string) (string, error) {
	pageMapJSON, err := json.MarshalIndent(pageMap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal page map: %w", err)
	}
	return buildUserPrompt(string(pageMapJSON), task), nil
}

// parseScript turns a model answer into a validated step list.
func parseScript(response string) ([]steps.Step, error) {
	list, err := steps.Parse([]byte(extractYAML(response)))
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("model returned an empty script")
	}
	if err := steps.Validate(list); err != nil {
		return nil, err
	}
	return list, nil
}

// extractYAML returns the body of the first fenced code block, or the whole
// response trimmed when there is none.
func extractYAML(response string) string {
	start := strings.Index(response, "```")
	if start == -1 {
		return strings.TrimSpace(response)
	}
	body := response[start+3:]
	// skip the info string, e.g. ```yaml
	if nl := strings.IndexByte(body, '\n'); nl != -1 {
		body = body[nl+1:]
	}
	if end := strings.Index(body, "```"); end != -1 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}
