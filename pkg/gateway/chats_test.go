package gateway

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetChatPictureDirect(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sessions/s1/chats/c1/picture", r.URL.Path)
		writeJSON(t, w, http.StatusOK, `{"success":true,"data":{"url":"https://cdn.example.com/c1.jpg"}}`)
	})

	url, err := client.GetChatPicture(context.Background(), "s1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/c1.jpg", url)
}

func TestGetChatPictureFallsBackToContact(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/sessions/s1/chats/c1/picture":
			writeJSON(t, w, http.StatusNotFound, `{"success":false,"message":"no chat picture route"}`)
		case "/api/sessions/s1/contacts/c1/profile-picture":
			writeJSON(t, w, http.StatusOK, `{"success":true,"data":{"url":"https://cdn.example.com/contact.jpg"}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}, WithReadRetry(0))

	url, err := client.GetChatPicture(context.Background(), "s1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/contact.jpg", url)
}

func TestGetChatMessagesLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sessions/s1/chats/c1/messages", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		writeJSON(t, w, http.StatusOK, `{"success":true,"data":[{"id":"m1","chatId":"c1","body":"hey"}]}`)
	})

	messages, err := client.GetChatMessages(context.Background(), "s1", "c1", 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "hey", messages[0].Body)
}

func TestArchivePaths(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})
	ctx := context.Background()

	require.NoError(t, client.ArchiveChat(ctx, "s1", "c1"))
	assert.Equal(t, "/api/sessions/s1/chats/c1/archive", gotPath)

	require.NoError(t, client.UnarchiveChat(ctx, "s1", "c1"))
	assert.Equal(t, "/api/sessions/s1/chats/c1/unarchive", gotPath)
}
