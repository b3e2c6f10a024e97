package usecase

import (
	"context"
	"fmt"

	"github.com/tembea/server/domain/repositories"
)

// PlaceService answers single-shot questions about a place using the
// configured language model. It keeps no state between requests.
type PlaceService struct {
	llm repositories.LargeLanguageModel
}

// NewPlaceService creates a new place information service
func NewPlaceService(llm repositories.LargeLanguageModel) *PlaceService {
	return &PlaceService{llm: llm}
}

// Describe generates descriptive text for the named place.
func (s *PlaceService) Describe(ctx context.Context, place string) (string, error) {
	return s.llm.Generate(ctx, placePrompt(place))
}

// placePrompt builds the tour-guide prompt for a place
func placePrompt(place string) string {
	return fmt.Sprintf(`Tell me about %s, focusing on:
    1. Its historical significance
    2. Why people love visiting it
    3. Interesting facts and cultural impact
    4. Notable architectural or design elements
    Please provide detailed but concise information.`, place)
}
