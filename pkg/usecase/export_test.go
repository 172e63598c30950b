package usecase

import "github.com/flowdeck-dev/flowdeck/pkg/domain/model"

// SetSuggestionsForTest seeds the suggestion batch directly, standing in
// for an extraction pass.
func (s *Session) SetSuggestionsForTest(ops []model.SuggestedOperation) {
	s.suggestions.Set(ops)
}
