package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Theme values accepted in the ui namespace.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// JSONMap is a type alias for JSONB columns
type JSONMap map[string]interface{}

// UserPreferences represents user-specific settings.
// All preferences are stored in a single JSONB column with namespaced structure.
type UserPreferences struct {
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Preferences JSONMap   `json:"preferences" db:"preferences"` // {ui: {theme}}
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// UIPreferences represents the ui namespace in preferences
type UIPreferences struct {
	Theme string `json:"theme"` // "light" or "dark"
}

// GetUI extracts the ui namespace from preferences
func (up *UserPreferences) GetUI() (*UIPreferences, error) {
	if up.Preferences == nil {
		return &UIPreferences{Theme: ThemeLight}, nil
	}

	uiData, ok := up.Preferences["ui"]
	if !ok {
		return &UIPreferences{Theme: ThemeLight}, nil
	}

	// Re-marshal to ensure type safety
	data, err := json.Marshal(uiData)
	if err != nil {
		return nil, err
	}

	var ui UIPreferences
	if err := json.Unmarshal(data, &ui); err != nil {
		return nil, err
	}
	if ui.Theme == "" {
		ui.Theme = ThemeLight
	}

	return &ui, nil
}

// SetUI sets the ui namespace in preferences
func (up *UserPreferences) SetUI(ui *UIPreferences) error {
	if up.Preferences == nil {
		up.Preferences = JSONMap{}
	}

	data, err := json.Marshal(ui)
	if err != nil {
		return err
	}

	var uiMap map[string]interface{}
	if err := json.Unmarshal(data, &uiMap); err != nil {
		return err
	}

	up.Preferences["ui"] = uiMap
	return nil
}

// UpdatePreferencesRequest represents a partial preferences update.
// Only provided namespaces are replaced.
type UpdatePreferencesRequest struct {
	UI *UIPreferences `json:"ui"`
}
