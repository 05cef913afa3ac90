package models

// Prompt is a reusable instruction template kept in the prompt store.
// ID is the store key and is never written inside the stored value.
type Prompt struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	PromptText  string `json:"promptText"`
	Tag         string `json:"tag"`
	Author      string `json:"author"`
	AuthorID    string `json:"authorId"`
	IsPublic    bool   `json:"isPublic"`
}

// PromptListItem decorates a prompt with per-caller favorite information.
type PromptListItem struct {
	Prompt
	FavoriteCount int  `json:"favorite_count"`
	IsFavorite    bool `json:"is_favorite"`
}

// PromptTab selects a view of the prompt library.
type PromptTab string

const (
	PromptTabRecommended PromptTab = "recommended"
	PromptTabFavorites   PromptTab = "favorites"
	PromptTabMine        PromptTab = "mine"
	PromptTabAll         PromptTab = "all"
)
