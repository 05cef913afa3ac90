package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mechat/internal/service/auth"
	"mechat/internal/storage"
)

func TestGetFile(t *testing.T) {
	files, err := storage.NewLocalStorage(t.TempDir(), "/files")
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}
	key := storage.AttachmentKey("user-1", "chart.png")
	png := []byte("\x89PNG\r\n\x1a\nfake")
	if err := files.Write(context.Background(), key, bytes.NewReader(png), int64(len(png)), "image/png"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	h := NewFileHandler(files, auth.NewOwnerBasedAuthorizer(nil), testLogger())
	serve := func(userID, path string) *httptest.ResponseRecorder {
		mux := http.NewServeMux()
		mux.Handle("GET /files/{key...}", withUser(userID, h.GetFile))
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	t.Run("owner", func(t *testing.T) {
		rec := serve("user-1", "/files/"+key)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
			t.Errorf("content type = %q", ct)
		}
		if !bytes.Equal(rec.Body.Bytes(), png) {
			t.Error("body mismatch")
		}
		if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "inline;") {
			t.Errorf("Content-Disposition = %q, want inline", cd)
		}
	})

	t.Run("active content is downloaded", func(t *testing.T) {
		for _, name := range []string{"page.html", "icon.svg", "notes.txt", "blob"} {
			k := storage.AttachmentKey("user-1", name)
			data := []byte("<script>alert(1)</script>")
			if err := files.Write(context.Background(), k, bytes.NewReader(data), int64(len(data)), "text/html"); err != nil {
				t.Fatalf("Write(%s) error = %v", name, err)
			}
			rec := serve("user-1", "/files/"+k)
			if rec.Code != http.StatusOK {
				t.Fatalf("%s: status = %d, body = %s", name, rec.Code, rec.Body)
			}
			if cd := rec.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment;") {
				t.Errorf("%s: Content-Disposition = %q, want attachment", name, cd)
			}
			if nosniff := rec.Header().Get("X-Content-Type-Options"); nosniff != "nosniff" {
				t.Errorf("%s: X-Content-Type-Options = %q", name, nosniff)
			}
		}
	})

	t.Run("other user", func(t *testing.T) {
		if rec := serve("user-2", "/files/"+key); rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		rec := serve("user-1", "/files/attachments/user-1/nope/gone.txt")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("traversal", func(t *testing.T) {
		rec := serve("user-1", "/files/attachments/user-1/../user-2/x/secret.txt")
		if rec.Code == http.StatusOK {
			t.Error("traversal should not succeed")
		}
	})
}
