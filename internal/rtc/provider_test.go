package rtc_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytchou/focus-squad-sub000/internal/rtc"
)

func TestHTTPProvider_CreateRoom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rooms", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "Bearer "), "admin token attached")

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "table-11", body["name"])
		assert.Equal(t, float64(4), body["max_participants"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(rtc.Room{Name: "table-11", SID: "RM_abc", MaxParticipants: 4})
	}))
	defer srv.Close()

	provider := rtc.NewHTTPProvider(srv.URL, "api-key", "api-secret")
	room, err := provider.CreateRoom(context.Background(), "table-11", 4, `{"mode":"forced_audio"}`)

	require.NoError(t, err)
	assert.Equal(t, "table-11", room.Name)
	assert.Equal(t, "RM_abc", room.SID)
}

func TestHTTPProvider_CreateRoomProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	provider := rtc.NewHTTPProvider(srv.URL, "api-key", "api-secret")
	_, err := provider.CreateRoom(context.Background(), "table-11", 4, "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, rtc.ErrProvider))
}

func TestHTTPProvider_DeleteRoomAlreadyGoneIsSuccess(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/rooms/table-11", r.URL.Path)
		if calls == 1 {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	provider := rtc.NewHTTPProvider(srv.URL, "api-key", "api-secret")

	// Deleting twice: the second call hits a 404, which is still success.
	require.NoError(t, provider.DeleteRoom(context.Background(), "table-11"))
	require.NoError(t, provider.DeleteRoom(context.Background(), "table-11"))
	assert.Equal(t, 2, calls)
}

func TestPlaceholderProvider_DeterministicAndIdempotent(t *testing.T) {
	provider := rtc.NewPlaceholderProvider()
	ctx := context.Background()

	room, err := provider.CreateRoom(ctx, "table-11", 4, "")
	require.NoError(t, err)
	assert.Equal(t, "dev-table-11", room.SID)

	again, err := provider.CreateRoom(ctx, "table-11", 4, "")
	require.NoError(t, err)
	assert.Equal(t, room.SID, again.SID)

	require.NoError(t, provider.DeleteRoom(ctx, "table-11"))
	require.NoError(t, provider.DeleteRoom(ctx, "table-11"))
}
