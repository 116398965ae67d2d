package server

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creativechannel/denizen/api"
	"github.com/creativechannel/denizen/internal/server/authn"
	"github.com/creativechannel/denizen/internal/server/cache"
	"github.com/creativechannel/denizen/internal/server/data"
	"github.com/creativechannel/denizen/internal/server/models"
)

func setupServer(t *testing.T) (*Server, *miniredis.Miniredis) {
	t.Helper()

	driver, err := data.NewSQLiteDriver("file::memory:")
	require.NoError(t, err)
	db, err := data.NewDB(driver)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	c := cache.NewCacheWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	srv := &Server{
		options: Options{
			SessionDuration: time.Hour,
			API:             APIOptions{RequestTimeout: time.Minute},
		},
		db:     db,
		cache:  c,
		nonces: authn.NewNonceStore(c),
		sessions: &authn.SessionAuthenticator{
			Cache:    c,
			Salt:     "table-salt",
			HostName: "api.example.org",
		},
	}
	return srv, mr
}

func setupRoutes(t *testing.T) (*Server, http.Handler, *miniredis.Miniredis) {
	t.Helper()
	srv, mr := setupServer(t)
	routes := srv.GenerateRoutes(prometheus.NewRegistry())
	return srv, routes, mr
}

// signedQuery builds the auth parameters for a request signed with
// privateKey. The method must be the effective method the server will
// dispatch.
func signedQuery(privateKey, apiKey, method, path string) url.Values {
	stamp := time.Now().Unix()
	nonce := uuid.NewString()
	signature := authn.ComputeSignature(privateKey, method, stamp, nonce, strings.TrimPrefix(path, "/"))

	v := url.Values{}
	v.Set("api_key", apiKey)
	v.Set("stamp", strconv.FormatInt(stamp, 10))
	v.Set("nonce", nonce)
	v.Set("signature", signature)
	return v
}

type envelope struct {
	IsSuccess bool            `json:"is_success"`
	Data      json.RawMessage `json:"data"`
	Code      int32           `json:"code"`
	Message   string          `json:"message"`
}

func doRequest(t *testing.T, handler http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	var body envelope
	if resp.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body), resp.Body.String())
	}
	return resp, body
}

func userhash(nonce, username, password string) string {
	sum := sha1.Sum([]byte(nonce + username + password))
	return base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(sum[:])))
}

func TestPublicEndpoints(t *testing.T) {
	_, routes, _ := setupRoutes(t)

	t.Run("timestamp", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/timestamp", nil)
		resp, body := doRequest(t, routes, req)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.True(t, body.IsSuccess)

		var ts api.TimestampResponse
		require.NoError(t, json.Unmarshal(body.Data, &ts))
		assert.InDelta(t, time.Now().Unix(), ts.Timestamp, 2)
	})

	t.Run("version", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
		resp, body := doRequest(t, routes, req)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.True(t, body.IsSuccess)
	})

	t.Run("authtest public", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/authtest/public", nil)
		resp, _ := doRequest(t, routes, req)
		require.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("healthz", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		resp := httptest.NewRecorder()
		routes.ServeHTTP(resp, req)
		require.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("unknown route is 404 with empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/notaroute", nil)
		resp := httptest.NewRecorder()
		routes.ServeHTTP(resp, req)
		require.Equal(t, http.StatusNotFound, resp.Code)
		assert.Zero(t, resp.Body.Len())
	})
}

func TestSignedRequestAuthentication(t *testing.T) {
	srv, routes, _ := setupRoutes(t)

	require.NoError(t, data.CreateAPIKey(srv.db, &models.APIKey{
		PublicKey:  "agent-0001",
		PrivateKey: "super-secret",
	}))

	t.Run("valid signature", func(t *testing.T) {
		query := signedQuery("super-secret", "agent-0001", http.MethodGet, "/api/authtest")
		req := httptest.NewRequest(http.MethodGet, "/api/authtest?"+query.Encode(), nil)
		resp, body := doRequest(t, routes, req)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.True(t, body.IsSuccess)
	})

	t.Run("no auth parameters", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/authtest", nil)
		resp, body := doRequest(t, routes, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.False(t, body.IsSuccess)
		assert.Equal(t, "unauthorized", body.Message)
	})

	t.Run("wrong private key", func(t *testing.T) {
		query := signedQuery("not-the-secret", "agent-0001", http.MethodGet, "/api/authtest")
		req := httptest.NewRequest(http.MethodGet, "/api/authtest?"+query.Encode(), nil)
		resp, body := doRequest(t, routes, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
		// the response never says which check failed
		assert.Equal(t, "unauthorized", body.Message)
	})

	t.Run("replayed request", func(t *testing.T) {
		query := signedQuery("super-secret", "agent-0001", http.MethodGet, "/api/authtest")

		req := httptest.NewRequest(http.MethodGet, "/api/authtest?"+query.Encode(), nil)
		resp, _ := doRequest(t, routes, req)
		require.Equal(t, http.StatusOK, resp.Code)

		req = httptest.NewRequest(http.MethodGet, "/api/authtest?"+query.Encode(), nil)
		resp, body := doRequest(t, routes, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Equal(t, "unauthorized", body.Message)
	})

	t.Run("stale stamp", func(t *testing.T) {
		stamp := time.Now().Add(-time.Hour).Unix()
		nonce := uuid.NewString()
		signature := authn.ComputeSignature("super-secret", http.MethodGet, stamp, nonce, "api/authtest")

		query := url.Values{}
		query.Set("api_key", "agent-0001")
		query.Set("stamp", strconv.FormatInt(stamp, 10))
		query.Set("nonce", nonce)
		query.Set("signature", signature)

		req := httptest.NewRequest(http.MethodGet, "/api/authtest?"+query.Encode(), nil)
		resp, _ := doRequest(t, routes, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("nonce store unreachable is 500 not 401", func(t *testing.T) {
		srv, routes, mr := setupRoutes(t)
		require.NoError(t, data.CreateAPIKey(srv.db, &models.APIKey{
			PublicKey:  "agent-0001",
			PrivateKey: "super-secret",
		}))
		mr.SetError("connection refused")

		query := signedQuery("super-secret", "agent-0001", http.MethodGet, "/api/authtest")
		req := httptest.NewRequest(http.MethodGet, "/api/authtest?"+query.Encode(), nil)
		resp, _ := doRequest(t, routes, req)
		require.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}

func TestAPI_Login(t *testing.T) {
	srv, routes, mr := setupRoutes(t)

	require.NoError(t, data.CreateAPIKey(srv.db, &models.APIKey{
		PublicKey:  "agent-0001",
		PrivateKey: "super-secret",
	}))
	require.NoError(t, data.CreateProfile(srv.db, &models.Profile{
		Username: "msmith",
		Password: "hunter2",
	}))

	login := func(t *testing.T, username, password string) (*httptest.ResponseRecorder, envelope) {
		t.Helper()
		query := signedQuery("super-secret", "agent-0001", http.MethodPost, "/api/auth/login")

		form := url.Values{}
		form.Set("username", username)
		form.Set("userhash", userhash(query.Get("nonce"), username, password))

		req := httptest.NewRequest(http.MethodPost, "/api/auth/login?"+query.Encode(),
			strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return doRequest(t, routes, req)
	}

	t.Run("success", func(t *testing.T) {
		resp, body := login(t, "msmith", "hunter2")
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		require.True(t, body.IsSuccess)

		var result api.LoginResponse
		require.NoError(t, json.Unmarshal(body.Data, &result))
		assert.NotEmpty(t, result.Session)
		assert.NotEmpty(t, result.ProfileUUID)

		// the session is retrievable from the store
		session, err := srv.cache.GetSession(context.Background(), result.Session)
		require.NoError(t, err)
		assert.Equal(t, "msmith", session.Username)
		assert.Equal(t, "agent-0001", session.APIKey)

		entries, err := mr.List("profile")
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Contains(t, entries[len(entries)-1], "msmith|success|")
	})

	t.Run("wrong password", func(t *testing.T) {
		resp, body := login(t, "msmith", "wrong")
		require.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Equal(t, "unauthorized", body.Message)

		entries, err := mr.List("profile")
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Contains(t, entries[len(entries)-1], "msmith|fail|")
	})

	t.Run("unknown profile is 404 with empty body", func(t *testing.T) {
		resp, _ := login(t, "nobody", "hunter2")
		require.Equal(t, http.StatusNotFound, resp.Code)
		assert.Zero(t, resp.Body.Len())
	})

	t.Run("missing userhash", func(t *testing.T) {
		query := signedQuery("super-secret", "agent-0001", http.MethodPost, "/api/auth/login")
		form := url.Values{}
		form.Set("username", "msmith")

		request := httptest.NewRequest(http.MethodPost, "/api/auth/login?"+query.Encode(),
			strings.NewReader(form.Encode()))
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, _ := doRequest(t, routes, request)
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("userhash in query string", func(t *testing.T) {
		query := signedQuery("super-secret", "agent-0001", http.MethodPost, "/api/auth/login")
		query.Set("username", "msmith")
		query.Set("userhash", userhash(query.Get("nonce"), "msmith", "hunter2"))

		request := httptest.NewRequest(http.MethodPost, "/api/auth/login?"+query.Encode(), nil)
		resp, _ := doRequest(t, routes, request)
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("locked profile", func(t *testing.T) {
		require.NoError(t, data.CreateProfile(srv.db, &models.Profile{
			Username: "locked-member",
			Password: "hunter2",
			Locked:   true,
		}))

		resp, body := login(t, "locked-member", "hunter2")
		require.Equal(t, http.StatusForbidden, resp.Code)
		assert.Contains(t, body.Message, "Profile is locked")
	})

	t.Run("application not registered", func(t *testing.T) {
		require.NoError(t, data.CreateAPIKey(srv.db, &models.APIKey{
			PublicKey:   "agent-0002",
			PrivateKey:  "other-secret",
			Application: "mobile",
		}))

		query := signedQuery("other-secret", "agent-0002", http.MethodPost, "/api/auth/login")
		form := url.Values{}
		form.Set("username", "msmith")
		form.Set("userhash", userhash(query.Get("nonce"), "msmith", "hunter2"))

		request := httptest.NewRequest(http.MethodPost, "/api/auth/login?"+query.Encode(),
			strings.NewReader(form.Encode()))
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, body := doRequest(t, routes, request)
		require.Equal(t, http.StatusForbidden, resp.Code)
		assert.Contains(t, body.Message, "Application not registered")
	})
}

func TestAPI_AuthSecurityQuestion(t *testing.T) {
	srv, routes, mr := setupRoutes(t)

	require.NoError(t, data.CreateAPIKey(srv.db, &models.APIKey{
		PublicKey:  "agent-0001",
		PrivateKey: "super-secret",
	}))
	profile := &models.Profile{Username: "msmith", Password: "hunter2"}
	require.NoError(t, data.CreateProfile(srv.db, profile))
	require.NoError(t, data.CreateSecurityQuestion(srv.db, &models.SecurityQuestion{
		ProfileID:  profile.ID,
		QuestionID: "1",
		Question:   "first pet",
		Answer:     "rex",
	}))

	answerhash := func(nonce, answer string) string {
		sum := sha1.Sum([]byte(nonce + answer))
		return base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(sum[:])))
	}

	ask := func(t *testing.T, username, questionID, answer string) (*httptest.ResponseRecorder, envelope) {
		t.Helper()
		path := "/api/auth/security-question/" + username + "/" + questionID
		query := signedQuery("super-secret", "agent-0001", http.MethodPost, path)

		form := url.Values{}
		form.Set("answerhash", answerhash(query.Get("nonce"), answer))

		req := httptest.NewRequest(http.MethodPost, path+"?"+query.Encode(),
			strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return doRequest(t, routes, req)
	}

	t.Run("correct answer", func(t *testing.T) {
		resp, body := ask(t, "msmith", "1", "rex")
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		require.True(t, body.IsSuccess)

		var result api.AuthorizedResponse
		require.NoError(t, json.Unmarshal(body.Data, &result))
		assert.True(t, result.IsAuthorized)

		entries, err := mr.List("profile")
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Contains(t, entries[len(entries)-1], "msmith|question-success|")
	})

	t.Run("wrong answer", func(t *testing.T) {
		resp, body := ask(t, "msmith", "1", "fido")
		require.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Equal(t, "unauthorized", body.Message)

		entries, err := mr.List("profile")
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Contains(t, entries[len(entries)-1], "msmith|question-fail|")
	})

	t.Run("unknown question is 404 with empty body", func(t *testing.T) {
		resp, _ := ask(t, "msmith", "99", "rex")
		require.Equal(t, http.StatusNotFound, resp.Code)
		assert.Zero(t, resp.Body.Len())
	})

	t.Run("unknown profile is 404 with empty body", func(t *testing.T) {
		resp, _ := ask(t, "nobody", "1", "rex")
		require.Equal(t, http.StatusNotFound, resp.Code)
		assert.Zero(t, resp.Body.Len())
	})

	t.Run("missing answerhash", func(t *testing.T) {
		path := "/api/auth/security-question/msmith/1"
		query := signedQuery("super-secret", "agent-0001", http.MethodPost, path)

		req := httptest.NewRequest(http.MethodPost, path+"?"+query.Encode(), nil)
		resp, _ := doRequest(t, routes, req)
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("answerhash in query is rejected", func(t *testing.T) {
		path := "/api/auth/security-question/msmith/1"
		query := signedQuery("super-secret", "agent-0001", http.MethodPost, path)
		query.Set("answerhash", answerhash(query.Get("nonce"), "rex"))

		req := httptest.NewRequest(http.MethodPost, path+"?"+query.Encode(), nil)
		resp, _ := doRequest(t, routes, req)
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})
}

func TestAPI_SessionRoutes(t *testing.T) {
	srv, routes, _ := setupRoutes(t)

	require.NoError(t, data.CreateAPIKey(srv.db, &models.APIKey{
		PublicKey:  "agent-0001",
		PrivateKey: "super-secret",
	}))
	require.NoError(t, data.CreateProfile(srv.db, &models.Profile{
		Username: "msmith",
		Password: "hunter2",
	}))

	doLogin := func(t *testing.T) string {
		t.Helper()
		query := signedQuery("super-secret", "agent-0001", http.MethodPost, "/api/auth/login")
		form := url.Values{}
		form.Set("username", "msmith")
		form.Set("userhash", userhash(query.Get("nonce"), "msmith", "hunter2"))

		request := httptest.NewRequest(http.MethodPost, "/api/auth/login?"+query.Encode(),
			strings.NewReader(form.Encode()))
		request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, body := doRequest(t, routes, request)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		var result api.LoginResponse
		require.NoError(t, json.Unmarshal(body.Data, &result))
		return result.Session
	}

	t.Run("member authtest", func(t *testing.T) {
		session := doLogin(t)

		query := signedQuery("super-secret", "agent-0001", http.MethodGet, "/api/authtest/member")
		query.Set("session", session)
		request := httptest.NewRequest(http.MethodGet, "/api/authtest/member?"+query.Encode(), nil)
		resp, body := doRequest(t, routes, request)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Contains(t, string(body.Data), "msmith")
	})

	t.Run("member route without session", func(t *testing.T) {
		query := signedQuery("super-secret", "agent-0001", http.MethodGet, "/api/authtest/member")
		request := httptest.NewRequest(http.MethodGet, "/api/authtest/member?"+query.Encode(), nil)
		resp, _ := doRequest(t, routes, request)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("session does not transfer to another api key", func(t *testing.T) {
		require.NoError(t, data.CreateAPIKey(srv.db, &models.APIKey{
			PublicKey:  "agent-0003",
			PrivateKey: "third-secret",
		}))
		session := doLogin(t)

		query := signedQuery("third-secret", "agent-0003", http.MethodGet, "/api/authtest/member")
		query.Set("session", session)
		request := httptest.NewRequest(http.MethodGet, "/api/authtest/member?"+query.Encode(), nil)
		resp, _ := doRequest(t, routes, request)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("logout destroys the session", func(t *testing.T) {
		session := doLogin(t)

		query := signedQuery("super-secret", "agent-0001", http.MethodDelete, "/api/auth/logout")
		query.Set("session", session)
		request := httptest.NewRequest(http.MethodDelete, "/api/auth/logout?"+query.Encode(), nil)
		resp, _ := doRequest(t, routes, request)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		_, err := srv.cache.GetSession(context.Background(), session)
		assert.Error(t, err)
	})
}

func TestAPI_GroupRoutes(t *testing.T) {
	srv, routes, mr := setupRoutes(t)

	require.NoError(t, data.CreateAPIKey(srv.db, &models.APIKey{
		PublicKey:  "admin-agent",
		PrivateKey: "admin-secret",
		Groups:     models.CommaSeparatedStrings{"admin"},
	}))
	require.NoError(t, data.CreateAPIKey(srv.db, &models.APIKey{
		PublicKey:  "plain-agent",
		PrivateKey: "plain-secret",
	}))

	t.Run("admin group member", func(t *testing.T) {
		query := signedQuery("admin-secret", "admin-agent", http.MethodGet, "/api/authtest/group/admin")
		request := httptest.NewRequest(http.MethodGet, "/api/authtest/group/admin?"+query.Encode(), nil)
		resp, _ := doRequest(t, routes, request)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

		entries, err := mr.List("group_admin")
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Contains(t, entries[len(entries)-1], "admin-agent|api/authtest/group/admin|true|")
	})

	t.Run("not a group member", func(t *testing.T) {
		query := signedQuery("plain-secret", "plain-agent", http.MethodGet, "/api/authtest/group/admin")
		request := httptest.NewRequest(http.MethodGet, "/api/authtest/group/admin?"+query.Encode(), nil)
		resp, body := doRequest(t, routes, request)
		require.Equal(t, http.StatusForbidden, resp.Code)
		assert.Contains(t, body.Message, "admin")

		entries, err := mr.List("group_admin")
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Contains(t, entries[len(entries)-1], "plain-agent|api/authtest/group/admin|false|")
	})

	t.Run("invalid group always denies", func(t *testing.T) {
		query := signedQuery("admin-secret", "admin-agent", http.MethodGet, "/api/authtest/group/invalid")
		request := httptest.NewRequest(http.MethodGet, "/api/authtest/group/invalid?"+query.Encode(), nil)
		resp, _ := doRequest(t, routes, request)
		require.Equal(t, http.StatusForbidden, resp.Code)
	})
}

func TestAPI_MethodOverride(t *testing.T) {
	srv, routes, _ := setupRoutes(t)

	require.NoError(t, data.CreateAPIKey(srv.db, &models.APIKey{
		PublicKey:  "admin-agent",
		PrivateKey: "admin-secret",
		Groups:     models.CommaSeparatedStrings{"admin"},
	}))
	require.NoError(t, data.CreateProfile(srv.db, &models.Profile{
		Username: "togo",
		Password: "hunter2",
	}))

	// the transport method is POST but the request is signed, dispatched, and
	// handled as DELETE
	query := signedQuery("admin-secret", "admin-agent", http.MethodDelete, "/api/profiles/togo")
	query.Set("override_method", "delete")

	request := httptest.NewRequest(http.MethodPost, "/api/profiles/togo?"+query.Encode(), nil)
	resp, body := doRequest(t, routes, request)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.True(t, body.IsSuccess)

	_, err := data.GetProfile(srv.db, data.ByUsername("togo"))
	assert.Error(t, err)
}
