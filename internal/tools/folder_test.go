package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFolders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/mailFolders", r.URL.Path)
		page := map[string]any{
			"value": []MailFolder{
				{ID: "f1", DisplayName: "Inbox", UnreadItemCount: 3, TotalItemCount: 120},
				{ID: "f2", DisplayName: "Archive", TotalItemCount: 900},
			},
		}
		_ = json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	s := newToolServer(t, srv.URL)
	result, _, err := s.listFolders(context.Background(), nil, listFoldersInput{})

	require.NoError(t, err)
	text := textOf(t, result)
	assert.Contains(t, text, "2 folder(s)")
	assert.Contains(t, text, "Inbox (3 unread / 120 total)")
	assert.Contains(t, text, "ID: f2")
}

func TestCreateFolder_TopLevel(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_ = json.NewEncoder(w).Encode(MailFolder{ID: "f-new", DisplayName: gotBody["displayName"]})
	}))
	defer srv.Close()

	s := newToolServer(t, srv.URL)
	result, _, err := s.createFolder(context.Background(), nil, createFolderInput{Name: "Receipts"})

	require.NoError(t, err)
	assert.Equal(t, "/me/mailFolders", gotPath)
	assert.Equal(t, "Receipts", gotBody["displayName"])
	assert.Contains(t, textOf(t, result), "ID: f-new")
}

func TestCreateFolder_Nested(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(MailFolder{ID: "f-child"})
	}))
	defer srv.Close()

	s := newToolServer(t, srv.URL)
	_, _, err := s.createFolder(context.Background(), nil, createFolderInput{Name: "2026", ParentID: "f-parent"})

	require.NoError(t, err)
	assert.Equal(t, "/me/mailFolders/f-parent/childFolders", gotPath)
}

func TestCreateFolder_RequiresName(t *testing.T) {
	s := newToolServer(t, "http://unused")

	_, _, err := s.createFolder(context.Background(), nil, createFolderInput{})

	assert.Error(t, err)
}

func TestMoveEmails(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "archive", body["destinationId"])
		_ = json.NewEncoder(w).Encode(Message{ID: "moved"})
	}))
	defer srv.Close()

	s := newToolServer(t, srv.URL)
	result, _, err := s.moveEmails(context.Background(), nil, moveEmailsInput{
		IDs:           []string{"m1", "m2"},
		DestinationID: "archive",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"/me/messages/m1/move", "/me/messages/m2/move"}, paths)
	assert.Equal(t, "Moved 2 of 2 email(s).", textOf(t, result))
}

func TestMoveEmails_ReportsPartialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "m-bad") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(Message{ID: "moved"})
	}))
	defer srv.Close()

	s := newToolServer(t, srv.URL)
	result, _, err := s.moveEmails(context.Background(), nil, moveEmailsInput{
		IDs:           []string{"m1", "m-bad"},
		DestinationID: "archive",
	})

	require.NoError(t, err)
	text := textOf(t, result)
	assert.Contains(t, text, "Moved 1 of 2 email(s).")
	assert.Contains(t, text, "m-bad")
}

func TestMoveEmails_RequiresArguments(t *testing.T) {
	s := newToolServer(t, "http://unused")

	_, _, err := s.moveEmails(context.Background(), nil, moveEmailsInput{DestinationID: "archive"})
	assert.Error(t, err)

	_, _, err = s.moveEmails(context.Background(), nil, moveEmailsInput{IDs: []string{"m1"}})
	assert.Error(t, err)
}
