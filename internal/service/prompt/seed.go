package prompt

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"mechat/internal/domain/models"
)

// SystemAuthorID marks prompts shipped with the application.
const SystemAuthorID = "system"

//go:embed recommended_prompts.yaml
var recommendedPromptsYAML []byte

type seedPrompt struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Author      string `yaml:"author"`
	Tag         string `yaml:"tag"`
	PromptText  string `yaml:"promptText"`
}

// RecommendedPrompts parses the built-in prompt library.
func RecommendedPrompts() ([]models.Prompt, error) {
	var seeds []seedPrompt
	if err := yaml.Unmarshal(recommendedPromptsYAML, &seeds); err != nil {
		return nil, fmt.Errorf("parse recommended prompts: %w", err)
	}

	prompts := make([]models.Prompt, 0, len(seeds))
	for _, s := range seeds {
		prompts = append(prompts, models.Prompt{
			Title:       s.Title,
			Description: s.Description,
			PromptText:  s.PromptText,
			Tag:         s.Tag,
			Author:      s.Author,
			AuthorID:    SystemAuthorID,
			IsPublic:    true,
		})
	}
	return prompts, nil
}

// SeedPrompts writes the built-in prompts when the store holds none
func (s *promptService) SeedPrompts(ctx context.Context) (int, error) {
	existing, err := s.repo.ListPrompts(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		s.logger.Info("prompt store already populated, skipping seed", "count", len(existing))
		return 0, nil
	}

	prompts, err := RecommendedPrompts()
	if err != nil {
		return 0, err
	}

	for i, p := range prompts {
		id, err := s.repo.CreatePrompt(ctx, p)
		if err != nil {
			return i, fmt.Errorf("seed prompt %q: %w", p.Title, err)
		}
		s.logger.Debug("seeded prompt", "id", id, "title", p.Title)
	}

	s.logger.Info("prompt store seeded", "count", len(prompts))
	return len(prompts), nil
}
