package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creativechannel/denizen/api"
	"github.com/creativechannel/denizen/internal/server/data"
	"github.com/creativechannel/denizen/internal/server/models"
)

func TestAPI_APIKeySelfManagement(t *testing.T) {
	srv, routes, _ := setupRoutes(t)

	require.NoError(t, data.CreateAPIKey(srv.db, &models.APIKey{
		PublicKey:   "agent-0001",
		PrivateKey:  "super-secret",
		DisplayName: "Mobile Agent",
		Application: "mobile",
		Groups:      models.CommaSeparatedStrings{"admin"},
	}))

	t.Run("get own key", func(t *testing.T) {
		query := signedQuery("super-secret", "agent-0001", http.MethodGet, "/api/api-key")
		request := httptest.NewRequest(http.MethodGet, "/api/api-key?"+query.Encode(), nil)
		resp, body := doRequest(t, routes, request)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		var key api.APIKey
		require.NoError(t, json.Unmarshal(body.Data, &key))
		assert.Equal(t, "agent-0001", key.PublicKey)
		assert.Equal(t, "Mobile Agent", key.DisplayName)
		assert.Equal(t, []string{"admin"}, key.Groups)

		// the private key is never serialized
		assert.NotContains(t, resp.Body.String(), "super-secret")
	})

	t.Run("update own key", func(t *testing.T) {
		query := signedQuery("super-secret", "agent-0001", http.MethodPut, "/api/api-key")

		payload, err := json.Marshal(api.UpdateAPIKeyRequest{
			DisplayName: "Renamed Agent",
			Application: "mobile",
		})
		require.NoError(t, err)

		request := httptest.NewRequest(http.MethodPut, "/api/api-key?"+query.Encode(),
			strings.NewReader(string(payload)))
		request.Header.Set("Content-Type", "application/json")
		resp, body := doRequest(t, routes, request)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		var key api.APIKey
		require.NoError(t, json.Unmarshal(body.Data, &key))
		assert.Equal(t, "Renamed Agent", key.DisplayName)

		stored, err := data.GetAPIKey(srv.db, data.ByPublicKey("agent-0001"))
		require.NoError(t, err)
		assert.Equal(t, "Renamed Agent", stored.DisplayName)
	})
}
