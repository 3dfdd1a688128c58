package handlers

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/folderdrop/backend/internal/models"
)

func TestCreateCodeSnippet(t *testing.T) {
	env := setupTestEnv(t)
	user, token := createTestUser(t, env.db, "alice", "alice-password-1", models.UserRoleUser)
	folder := createTestFolder(t, env.db, user, "snippets", "")

	t.Run("requires filename, content and folderId", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/codes/", map[string]any{
			"filename": "main.go",
		}, authHeaders(token))
		body := decodeJSONMap(t, resp)

		assertErrorResponse(t, resp.StatusCode, body, http.StatusBadRequest, "filename, content, and folderId are required")
	})

	t.Run("rejects content over the character limit", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/codes/", map[string]any{
			"filename": "big.txt",
			"content":  strings.Repeat("a", models.MaxCodeChars+1),
			"folderId": folder.ID.String(),
		}, authHeaders(token))
		body := decodeJSONMap(t, resp)

		assertErrorResponse(t, resp.StatusCode, body, http.StatusBadRequest,
			fmt.Sprintf("code snippet must be at most %d characters", models.MaxCodeChars))
	})

	t.Run("rejects content over the line limit", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/codes/", map[string]any{
			"filename": "long.txt",
			"content":  strings.Repeat("x\n", models.MaxCodeLines),
			"folderId": folder.ID.String(),
		}, authHeaders(token))
		body := decodeJSONMap(t, resp)

		assertErrorResponse(t, resp.StatusCode, body, http.StatusBadRequest,
			fmt.Sprintf("code snippet must be less than %d lines", models.MaxCodeLines))
	})

	t.Run("rejects unknown folder", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/codes/", map[string]any{
			"filename": "main.go",
			"content":  "package main\n",
			"folderId": "00000000-0000-0000-0000-000000000001",
		}, authHeaders(token))
		body := decodeJSONMap(t, resp)

		assertErrorResponse(t, resp.StatusCode, body, http.StatusNotFound, "folder not found")
	})

	t.Run("creates snippet with uploader snapshot", func(t *testing.T) {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/codes/", map[string]any{
			"filename": "main.go",
			"content":  "package main\n\nfunc main() {}\n",
			"folderId": folder.ID.String(),
		}, authHeaders(token))
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusCreated)
		data := dataObject(t, body)
		if data["filename"] != "main.go" {
			t.Fatalf("expected filename %q, got %v", "main.go", data["filename"])
		}
		if data["uploaderUsername"] != "alice" {
			t.Fatalf("expected uploaderUsername %q, got %v", "alice", data["uploaderUsername"])
		}
	})
}

func TestGetCodeSnippetRaw(t *testing.T) {
	env := setupTestEnv(t)
	user, token := createTestUser(t, env.db, "alice", "alice-password-1", models.UserRoleUser)
	folder := createTestFolder(t, env.db, user, "snippets", "")

	content := "def main():\n    pass\n"
	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/codes/", map[string]any{
		"filename": "main.py",
		"content":  content,
		"folderId": folder.ID.String(),
	}, authHeaders(token))
	codeID, _ := dataObject(t, decodeJSONMap(t, resp))["id"].(string)

	t.Run("serves raw content inline", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/codes/"+codeID, nil, nil)
		defer resp.Body.Close()

		assertStatus(t, resp, http.StatusOK)
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
			t.Fatalf("expected text/plain content type, got %q", ct)
		}
		if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "inline") || !strings.Contains(cd, "main.py") {
			t.Fatalf("unexpected content disposition %q", cd)
		}

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("failed reading body: %v", err)
		}
		if string(raw) != content {
			t.Fatalf("expected body %q, got %q", content, string(raw))
		}
	})

	t.Run("unknown snippet is not found", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/codes/00000000-0000-0000-0000-000000000009", nil, nil)
		body := decodeJSONMap(t, resp)

		assertErrorResponse(t, resp.StatusCode, body, http.StatusNotFound, "code snippet not found")
	})
}

func TestListFolderContents(t *testing.T) {
	env := setupTestEnv(t)
	user, token := createTestUser(t, env.db, "alice", "alice-password-1", models.UserRoleUser)
	folder := createTestFolder(t, env.db, user, "mixed", "")
	other := createTestFolder(t, env.db, user, "other", "")

	resp := performUpload(t, env.app, folder.ID.String(), "a.png", []byte("a"), authHeaders(token))
	assertStatus(t, resp, http.StatusCreated)
	resp.Body.Close()
	resp = performUpload(t, env.app, other.ID.String(), "b.png", []byte("b"), authHeaders(token))
	assertStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = performJSONRequest(t, env.app, http.MethodPost, "/api/codes/", map[string]any{
		"filename": "x.go",
		"content":  "package x\n",
		"folderId": folder.ID.String(),
	}, authHeaders(token))
	assertStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	t.Run("images scoped to the folder", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/folders/"+folder.ID.String()+"/images", nil, nil)
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusOK)
		images, ok := body["data"].([]any)
		if !ok {
			t.Fatalf("expected data array, got %T", body["data"])
		}
		if len(images) != 1 {
			t.Fatalf("expected 1 image, got %d", len(images))
		}
	})

	t.Run("codes scoped to the folder", func(t *testing.T) {
		resp := performRequest(t, env.app, http.MethodGet, "/api/folders/"+folder.ID.String()+"/codes", nil, nil)
		body := decodeJSONMap(t, resp)

		assertStatus(t, resp, http.StatusOK)
		codes, ok := body["data"].([]any)
		if !ok {
			t.Fatalf("expected data array, got %T", body["data"])
		}
		if len(codes) != 1 {
			t.Fatalf("expected 1 snippet, got %d", len(codes))
		}
	})
}
