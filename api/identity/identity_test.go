package identity

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/beka-birhanu/vinom-labyrinth/game"
	"github.com/beka-birhanu/vinom-labyrinth/identity"
	"github.com/beka-birhanu/vinom-labyrinth/infrastruture/token"
	"github.com/beka-birhanu/vinom-labyrinth/service"
	"github.com/beka-birhanu/vinom-labyrinth/service/i"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUsers struct {
	mu    sync.Mutex
	users map[uuid.UUID]*identity.User
}

func (r *memUsers) Save(u *identity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *u
	r.users[u.ID] = &c
	return nil
}

func (r *memUsers) ByID(id uuid.UUID) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, errors.New("not found")
}

func (r *memUsers) ByUsername(name string) (*identity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == name {
			return u, nil
		}
	}
	return nil, errors.New("not found")
}

func newEngine(t *testing.T, debug bool) (*gin.Engine, i.Tokenizer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokenizer := token.NewJwtService("test-secret", "labyrinth-test")
	auth, err := service.NewAuthService(&memUsers{users: make(map[uuid.UUID]*identity.User)}, tokenizer)
	require.NoError(t, err)

	c := NewIdentityServer(auth)
	engine := gin.New()
	c.RegisterPublic(engine.Group("/v1"))
	protected := engine.Group("/v1")
	protected.Use(Authoriz(tokenizer, debug))
	c.RegisterProtected(protected)
	return engine, tokenizer
}

func post(engine http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func me(engine http.Handler, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/me", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRegisterAndLogin(t *testing.T) {
	engine, _ := newEngine(t, false)
	creds := `{"username":"maze_walker","password":"correct-horse-battery-staple"}`

	w := post(engine, "/v1/auth/register", creds)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = post(engine, "/v1/auth/register", creds)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = post(engine, "/v1/auth/register", `{"username":"x","password":"correct-horse-battery-staple"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(engine, "/v1/auth/register", `{"username":"walker2"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(engine, "/v1/auth/login", `{"username":"maze_walker","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = post(engine, "/v1/auth/login", creds)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "maze_walker", res.Username)
	assert.NotEmpty(t, res.Token)

	w = me(engine, map[string]string{"Authorization": "Bearer " + res.Token})
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, res.ID, body["playerId"])
	assert.Equal(t, "maze_walker", body["displayName"])
}

func TestAuthoriz(t *testing.T) {
	engine, tokenizer := newEngine(t, true)
	tok, err := tokenizer.Generate(map[string]interface{}{i.ClaimUserID: "u1", i.ClaimUsername: "alice"}, time.Hour)
	require.NoError(t, err)
	noSubject, err := tokenizer.Generate(map[string]interface{}{i.ClaimUsername: "alice"}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header map[string]string
		status int
	}{
		{"missing header", nil, http.StatusUnauthorized},
		{"not bearer", map[string]string{"Authorization": "Basic " + tok}, http.StatusUnauthorized},
		{"bad token", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized},
		{"no subject", map[string]string{"Authorization": "Bearer " + noSubject}, http.StatusUnauthorized},
		{"valid", map[string]string{"Authorization": "Bearer " + tok}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, me(engine, tt.header).Code)
		})
	}
}

func TestDebugOverride(t *testing.T) {
	for _, debug := range []bool{true, false} {
		engine, tokenizer := newEngine(t, debug)
		tok, err := tokenizer.Generate(map[string]interface{}{i.ClaimUserID: "u1", i.ClaimUsername: "alice"}, time.Hour)
		require.NoError(t, err)

		w := me(engine, map[string]string{"Authorization": "Bearer " + tok, DebugPlayerHeader: "u2"})
		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		if debug {
			assert.Equal(t, "u2", body["actingAs"])
			assert.Equal(t, true, body["debugOverride"])
		} else {
			assert.Equal(t, "u1", body["actingAs"])
			assert.Equal(t, false, body["debugOverride"])
		}
	}
}

func TestActingWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := Acting(c)
	assert.False(t, ok)

	c.Set(ContextActingIdentity, game.ActingIdentity{PlayerID: "u1"})
	who, ok := Acting(c)
	require.True(t, ok)
	assert.Equal(t, "u1", who.Effective())
}
