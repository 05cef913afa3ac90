package promptstore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"mechat/internal/domain"
	"mechat/internal/domain/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore mimics the document database's REST surface in memory.
type fakeStore struct {
	mu        sync.Mutex
	prompts   map[string]models.Prompt
	favorites map[string]map[string]bool
	nextID    int
	lastAuth  string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		prompts:   map[string]models.Prompt{},
		favorites: map[string]map[string]bool{},
	}
}

func (f *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastAuth = r.URL.Query().Get("auth")

	path := strings.TrimSuffix(r.URL.Path, ".json")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	write := func(v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	switch {
	case parts[0] == "prompts" && len(parts) == 1 && r.Method == http.MethodGet:
		if len(f.prompts) == 0 {
			write(nil)
			return
		}
		write(f.prompts)
	case parts[0] == "prompts" && len(parts) == 1 && r.Method == http.MethodPost:
		var p models.Prompt
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.nextID++
		id := "-P" + string(rune('0'+f.nextID))
		f.prompts[id] = p
		write(map[string]string{"name": id})
	case parts[0] == "prompts" && len(parts) == 2 && r.Method == http.MethodGet:
		p, ok := f.prompts[parts[1]]
		if !ok {
			write(nil)
			return
		}
		write(p)
	case parts[0] == "prompts" && len(parts) == 2 && r.Method == http.MethodPut:
		var p models.Prompt
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.prompts[parts[1]] = p
		write(p)
	case parts[0] == "favorites" && len(parts) == 1 && r.Method == http.MethodGet:
		write(f.favorites)
	case parts[0] == "favorites" && len(parts) == 2 && r.Method == http.MethodGet:
		favs, ok := f.favorites[parts[1]]
		if !ok {
			write(nil)
			return
		}
		write(favs)
	case parts[0] == "favorites" && len(parts) == 3 && r.Method == http.MethodPut:
		if f.favorites[parts[1]] == nil {
			f.favorites[parts[1]] = map[string]bool{}
		}
		f.favorites[parts[1]][parts[2]] = true
		write(true)
	case parts[0] == "favorites" && len(parts) == 3 && r.Method == http.MethodDelete:
		delete(f.favorites[parts[1]], parts[2])
		write(nil)
	default:
		http.Error(w, "unsupported", http.StatusNotFound)
	}
}

func TestClient_PromptLifecycle(t *testing.T) {
	store := newFakeStore()
	server := httptest.NewServer(store)
	defer server.Close()

	c := NewClient(server.URL+"/", "", testLogger())
	ctx := context.Background()

	prompts, err := c.ListPrompts(ctx)
	if err != nil {
		t.Fatalf("ListPrompts() on empty store error = %v", err)
	}
	if len(prompts) != 0 {
		t.Fatalf("expected no prompts, got %d", len(prompts))
	}

	id, err := c.CreatePrompt(ctx, models.Prompt{ID: "ignored", Title: "Summarize", PromptText: "Summarize {{doc}}", AuthorID: "u1"})
	if err != nil {
		t.Fatalf("CreatePrompt() error = %v", err)
	}
	if id == "" || id == "ignored" {
		t.Fatalf("CreatePrompt() id = %q", id)
	}

	got, err := c.GetPrompt(ctx, id)
	if err != nil {
		t.Fatalf("GetPrompt() error = %v", err)
	}
	if got.ID != id || got.Title != "Summarize" || got.AuthorID != "u1" {
		t.Errorf("GetPrompt() = %+v", got)
	}

	got.Title = "Summarize v2"
	if err := c.UpdatePrompt(ctx, id, *got); err != nil {
		t.Fatalf("UpdatePrompt() error = %v", err)
	}

	prompts, err = c.ListPrompts(ctx)
	if err != nil {
		t.Fatalf("ListPrompts() error = %v", err)
	}
	if len(prompts) != 1 || prompts[0].ID != id || prompts[0].Title != "Summarize v2" {
		t.Errorf("ListPrompts() = %+v", prompts)
	}

	// Stored documents never carry their own key
	if stored := store.prompts[id]; stored.ID != "" {
		t.Errorf("stored prompt has id %q", stored.ID)
	}
}

func TestClient_GetPromptMissing(t *testing.T) {
	server := httptest.NewServer(newFakeStore())
	defer server.Close()

	_, err := NewClient(server.URL, "", testLogger()).GetPrompt(context.Background(), "nope")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_Favorites(t *testing.T) {
	store := newFakeStore()
	server := httptest.NewServer(store)
	defer server.Close()

	c := NewClient(server.URL, "secret", testLogger())
	ctx := context.Background()

	favs, err := c.ListFavorites(ctx, "u1")
	if err != nil {
		t.Fatalf("ListFavorites() error = %v", err)
	}
	if favs == nil || len(favs) != 0 {
		t.Errorf("expected empty non-nil favorites, got %v", favs)
	}

	for _, add := range []struct{ user, prompt string }{
		{"u1", "p1"}, {"u1", "p2"}, {"u2", "p1"},
	} {
		if err := c.AddFavorite(ctx, add.user, add.prompt); err != nil {
			t.Fatalf("AddFavorite(%s, %s) error = %v", add.user, add.prompt, err)
		}
	}
	if store.lastAuth != "secret" {
		t.Errorf("auth query = %q, want secret", store.lastAuth)
	}

	favs, err = c.ListFavorites(ctx, "u1")
	if err != nil {
		t.Fatalf("ListFavorites() error = %v", err)
	}
	if !favs["p1"] || !favs["p2"] || len(favs) != 2 {
		t.Errorf("ListFavorites() = %v", favs)
	}

	counts, err := c.FavoriteCounts(ctx)
	if err != nil {
		t.Fatalf("FavoriteCounts() error = %v", err)
	}
	if counts["p1"] != 2 || counts["p2"] != 1 {
		t.Errorf("FavoriteCounts() = %v", counts)
	}

	if err := c.RemoveFavorite(ctx, "u1", "p1"); err != nil {
		t.Fatalf("RemoveFavorite() error = %v", err)
	}
	// Removing twice is harmless
	if err := c.RemoveFavorite(ctx, "u1", "p1"); err != nil {
		t.Fatalf("second RemoveFavorite() error = %v", err)
	}
	counts, _ = c.FavoriteCounts(ctx)
	if counts["p1"] != 1 {
		t.Errorf("count after removal = %d, want 1", counts["p1"])
	}
}

func TestClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Permission denied"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	c := NewClient(server.URL, "", testLogger())
	_, err := c.ListPrompts(context.Background())
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error should carry status: %v", err)
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	err := NewClient(url, "", testLogger()).AddFavorite(context.Background(), "u1", "p1")
	if !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("expected ErrUpstream, got %v", err)
	}
}

func TestClient_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"p1": "not a prompt"`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "", testLogger()).ListPrompts(context.Background())
	if !errors.Is(err, domain.ErrUpstream) {
		t.Errorf("expected ErrUpstream for malformed body, got %v", err)
	}
}
