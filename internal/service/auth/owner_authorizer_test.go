package auth

import (
	"context"
	"errors"
	"testing"

	"mechat/internal/domain"
	"mechat/internal/domain/models"
	"mechat/internal/domain/repositories"
)

type stubPromptRepo struct {
	repositories.PromptRepository
	prompts map[string]models.Prompt
}

func (s *stubPromptRepo) GetPrompt(_ context.Context, id string) (*models.Prompt, error) {
	p, ok := s.prompts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p.ID = id
	return &p, nil
}

func TestCanEditPrompt(t *testing.T) {
	a := NewOwnerBasedAuthorizer(&stubPromptRepo{prompts: map[string]models.Prompt{
		"p1":     {Title: "mine", AuthorID: "alice"},
		"legacy": {Title: "seeded"},
	}})
	ctx := context.Background()

	tests := []struct {
		name    string
		user    string
		prompt  string
		wantErr error
	}{
		{"author", "alice", "p1", nil},
		{"someone else", "bob", "p1", domain.ErrForbidden},
		{"no author", "alice", "legacy", domain.ErrForbidden},
		{"missing", "alice", "nope", domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.CanEditPrompt(ctx, tt.user, tt.prompt)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("CanEditPrompt() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CanEditPrompt() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCanAccessAttachment(t *testing.T) {
	a := NewOwnerBasedAuthorizer(&stubPromptRepo{})
	ctx := context.Background()

	if err := a.CanAccessAttachment(ctx, "alice", "attachments/alice/x/report.pdf"); err != nil {
		t.Errorf("owner denied: %v", err)
	}
	for _, key := range []string{
		"attachments/bob/x/report.pdf",
		"attachments/alice-2/x/report.pdf",
		"other/alice/x",
	} {
		if err := a.CanAccessAttachment(ctx, "alice", key); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("CanAccessAttachment(%q) error = %v, want ErrForbidden", key, err)
		}
	}
	if err := a.CanAccessAttachment(ctx, "", "attachments//x"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("anonymous access should be denied, got %v", err)
	}
}
