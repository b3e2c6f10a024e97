package llm

import (
	"context"
	"fmt"

	"github.com/tembea/server/domain/repositories"
)

// MockGeminiClient is a placeholder implementation for Gemini LLM
type MockGeminiClient struct {
	// Err, if set, fails every request.
	Err error
}

// NewMockGeminiClient creates a new mock Gemini client
func NewMockGeminiClient() *MockGeminiClient {
	return &MockGeminiClient{}
}

// Generate implements repositories.LargeLanguageModel
func (g *MockGeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	if g.Err != nil {
		return "", g.Err
	}
	return fmt.Sprintf("Mock response for prompt of %d characters.", len(prompt)), nil
}

var _ repositories.LargeLanguageModel = &MockGeminiClient{}
