// Package prompt implements the shared prompt library and per-user favorites.
package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/sourcegraph/conc"

	"mechat/internal/config"
	"mechat/internal/domain"
	"mechat/internal/domain/models"
	"mechat/internal/domain/repositories"
	"mechat/internal/domain/services"
)

// promptService implements services.PromptService
type promptService struct {
	repo       repositories.PromptRepository
	authorizer services.ResourceAuthorizer
	sanitizer  *textSanitizer
	logger     *slog.Logger
}

// NewPromptService creates a new prompt service
func NewPromptService(
	repo repositories.PromptRepository,
	authorizer services.ResourceAuthorizer,
	logger *slog.Logger,
) services.PromptService {
	return &promptService{
		repo:       repo,
		authorizer: authorizer,
		sanitizer:  newTextSanitizer(),
		logger:     logger,
	}
}

// ListPrompts fetches prompts, the caller's favorites and global counts in
// parallel, then filters and orders them for the tab
func (s *promptService) ListPrompts(ctx context.Context, userID string, tab models.PromptTab) ([]models.PromptListItem, error) {
	if tab == "" {
		tab = models.PromptTabRecommended
	}
	if err := validation.Validate(tab, validation.In(
		models.PromptTabRecommended,
		models.PromptTabFavorites,
		models.PromptTabMine,
		models.PromptTabAll,
	)); err != nil {
		return nil, fmt.Errorf("%w: tab: %v", domain.ErrValidation, err)
	}

	var (
		prompts                      []models.Prompt
		favorites                    map[string]bool
		counts                       map[string]int
		promptsErr, favErr, countErr error
	)
	wg := conc.NewWaitGroup()
	wg.Go(func() { prompts, promptsErr = s.repo.ListPrompts(ctx) })
	wg.Go(func() { favorites, favErr = s.repo.ListFavorites(ctx, userID) })
	wg.Go(func() { counts, countErr = s.repo.FavoriteCounts(ctx) })
	wg.Wait()

	for _, err := range []error{promptsErr, favErr, countErr} {
		if err != nil {
			return nil, err
		}
	}

	// Store order is arbitrary; make it stable before filtering
	sort.SliceStable(prompts, func(i, j int) bool {
		if prompts[i].Title != prompts[j].Title {
			return prompts[i].Title < prompts[j].Title
		}
		return prompts[i].ID < prompts[j].ID
	})

	items := make([]models.PromptListItem, 0, len(prompts))
	for _, p := range prompts {
		if !visibleOnTab(p, tab, userID, favorites, counts) {
			continue
		}
		items = append(items, models.PromptListItem{
			Prompt:        p,
			FavoriteCount: counts[p.ID],
			IsFavorite:    favorites[p.ID],
		})
	}

	if tab == models.PromptTabRecommended {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].FavoriteCount > items[j].FavoriteCount
		})
	}

	return items, nil
}

func visibleOnTab(p models.Prompt, tab models.PromptTab, userID string, favorites map[string]bool, counts map[string]int) bool {
	switch tab {
	case models.PromptTabRecommended:
		return p.IsPublic && counts[p.ID] > 0
	case models.PromptTabFavorites:
		return favorites[p.ID] && (p.IsPublic || p.AuthorID == userID)
	case models.PromptTabMine:
		return p.AuthorID == userID
	default:
		return p.IsPublic || p.AuthorID == userID
	}
}

// CreatePrompt validates, sanitizes and stores a prompt authored by the caller
func (s *promptService) CreatePrompt(ctx context.Context, author services.Author, req *services.PromptInput) (*models.Prompt, error) {
	p, err := s.buildPrompt(author, req)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.CreatePrompt(ctx, *p)
	if err != nil {
		return nil, err
	}
	p.ID = id

	s.logger.Info("prompt created",
		"id", id,
		"author_id", author.ID,
		"is_public", p.IsPublic,
	)
	return p, nil
}

// UpdatePrompt replaces a prompt after checking the caller authored it
func (s *promptService) UpdatePrompt(ctx context.Context, author services.Author, promptID string, req *services.PromptInput) (*models.Prompt, error) {
	if err := s.authorizer.CanEditPrompt(ctx, author.ID, promptID); err != nil {
		return nil, err
	}

	p, err := s.buildPrompt(author, req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdatePrompt(ctx, promptID, *p); err != nil {
		return nil, err
	}
	p.ID = promptID

	s.logger.Info("prompt updated", "id", promptID, "author_id", author.ID)
	return p, nil
}

func (s *promptService) buildPrompt(author services.Author, req *services.PromptInput) (*models.Prompt, error) {
	req.Title = s.sanitizer.Sanitize(req.Title)
	req.Description = s.sanitizer.Sanitize(req.Description)
	req.Tag = s.sanitizer.Sanitize(req.Tag)
	req.PromptText = strings.TrimSpace(req.PromptText)

	if err := validatePromptInput(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if author.ID == "" {
		return nil, fmt.Errorf("missing author: %w", domain.ErrUnauthorized)
	}

	name := strings.TrimSpace(author.Name)
	if name == "" {
		name = "Anonymous"
	}

	return &models.Prompt{
		Title:       req.Title,
		Description: req.Description,
		PromptText:  req.PromptText,
		Tag:         req.Tag,
		Author:      name,
		AuthorID:    author.ID,
		IsPublic:    req.IsPublic,
	}, nil
}

// ListFavorites returns the caller's favorite prompt ids in sorted order
func (s *promptService) ListFavorites(ctx context.Context, userID string) ([]string, error) {
	favorites, err := s.repo.ListFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(favorites))
	for id, on := range favorites {
		if on {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// AddFavorite marks a prompt as a favorite; the prompt must exist
func (s *promptService) AddFavorite(ctx context.Context, userID, promptID string) error {
	if strings.TrimSpace(promptID) == "" {
		return fmt.Errorf("%w: prompt id is required", domain.ErrValidation)
	}
	if _, err := s.repo.GetPrompt(ctx, promptID); err != nil {
		return err
	}
	if err := s.repo.AddFavorite(ctx, userID, promptID); err != nil {
		return err
	}
	s.logger.Debug("favorite added", "user_id", userID, "prompt_id", promptID)
	return nil
}

// RemoveFavorite clears a favorite; removing an absent one succeeds
func (s *promptService) RemoveFavorite(ctx context.Context, userID, promptID string) error {
	if strings.TrimSpace(promptID) == "" {
		return fmt.Errorf("%w: prompt id is required", domain.ErrValidation)
	}
	if err := s.repo.RemoveFavorite(ctx, userID, promptID); err != nil {
		return err
	}
	s.logger.Debug("favorite removed", "user_id", userID, "prompt_id", promptID)
	return nil
}

func validatePromptInput(req *services.PromptInput) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.Required,
			validation.RuneLength(1, config.MaxPromptTitleLength),
		),
		validation.Field(&req.Description, validation.RuneLength(0, config.MaxPromptDescriptionLength)),
		validation.Field(&req.PromptText,
			validation.Required,
			validation.RuneLength(1, config.MaxPromptTextLength),
		),
		validation.Field(&req.Tag, validation.RuneLength(0, config.MaxPromptTagLength)),
	)
}
