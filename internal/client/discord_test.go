package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMembersFollowsPagination(t *testing.T) {
	var afters []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bot bot-token", r.Header.Get("Authorization"))
		assert.Equal(t, "/guilds/g1/members", r.URL.Path)
		after := r.URL.Query().Get("after")
		afters = append(afters, after)

		var page []map[string]interface{}
		if after == "0" {
			for i := 1; i <= discordMemberPageSize; i++ {
				page = append(page, map[string]interface{}{"user": map[string]string{"id": fmt.Sprint(i)}, "roles": []string{}})
			}
		} else {
			page = append(page, map[string]interface{}{"user": map[string]string{"id": "1001"}, "roles": []string{"r1"}})
		}
		writeJSON(w, http.StatusOK, page)
	}))
	defer server.Close()

	c := NewDiscordClient(server.URL, "bot-token", time.Second)
	members, err := c.ListMembers(context.Background(), "g1")

	require.NoError(t, err)
	assert.Len(t, members, discordMemberPageSize+1)
	assert.Equal(t, []string{"0", "1000"}, afters)
	assert.True(t, members[len(members)-1].HasRole("r1"))
}

func TestListRolesSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{"message": "Missing Access", "code": 50001})
	}))
	defer server.Close()

	c := NewDiscordClient(server.URL, "bot-token", time.Second)
	_, err := c.ListRoles(context.Background(), "g1")

	var apiErr *DiscordAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "Missing Access", apiErr.Message)
}

func TestDiscordWebhookPostsEmbeds(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, decodeJSON(r, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	hook := NewDiscordWebhook(server.URL, time.Second)
	err := hook.Send(context.Background(), Embed{Title: "Nova Compra", Fields: []EmbedField{{Name: "Produto", Value: "Script"}}})

	require.NoError(t, err)
	require.Len(t, got.Embeds, 1)
	assert.Equal(t, "Nova Compra", got.Embeds[0].Title)
	assert.True(t, hook.Configured())
	assert.False(t, NewDiscordWebhook("", time.Second).Configured())
}
