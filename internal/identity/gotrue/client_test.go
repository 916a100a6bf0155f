package gotrue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/prova/internal/identity"
)

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{URL: srv.URL + "/", AnonKey: "anon", ServiceKey: "service"})
}

func TestSignIn(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		if in["password"] != "ok-pass" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
			return
		}
		assert.Equal(t, "jane@example.com", in["email"])
		_, _ = w.Write([]byte(`{"access_token":"x","user":{"id":"u1","email":"jane@example.com","email_confirmed_at":"2024-01-01T00:00:00Z","user_metadata":{"name":"Jane"}}}`))
	})

	id, err := c.SignIn(context.Background(), " Jane@Example.com", "ok-pass")
	require.NoError(t, err)
	require.Equal(t, "u1", id.ID)
	require.Equal(t, "Jane", id.Name)
	require.True(t, id.EmailVerified)

	_, err = c.SignIn(context.Background(), "jane@example.com", "bad")
	require.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestSignUp_Errors(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var in map[string]any
		_ = json.NewDecoder(r.Body).Decode(&in)
		w.WriteHeader(http.StatusUnprocessableEntity)
		if in["email"] == "taken@example.com" {
			_, _ = w.Write([]byte(`{"code":422,"error_code":"user_already_exists","msg":"User already registered"}`))
			return
		}
		_, _ = w.Write([]byte(`{"code":422,"error_code":"weak_password","msg":"Password should be at least 6 characters"}`))
	})
	ctx := context.Background()
	require.ErrorIs(t, c.SignUp(ctx, "taken@example.com", "whatever", identity.SignUpAttrs{}), identity.ErrEmailTaken)
	require.ErrorIs(t, c.SignUp(ctx, "new@example.com", "x", identity.SignUpAttrs{}), identity.ErrWeakPassword)
}

func TestFindByEmail_Pages(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer service", r.Header.Get("Authorization"))
		users := []map[string]any{}
		if r.URL.Query().Get("page") == "1" {
			for i := 0; i < 200; i++ {
				users = append(users, map[string]any{"id": fmt.Sprint(i), "email": fmt.Sprintf("u%d@x.com", i)})
			}
		} else {
			users = append(users, map[string]any{"id": "target", "email": "Target@x.com"})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"users": users})
	})
	id, err := c.FindByEmail(context.Background(), "target@x.com")
	require.NoError(t, err)
	require.Equal(t, "target", id.ID)

	_, err = c.FindByEmail(context.Background(), "ghost@x.com")
	require.ErrorIs(t, err, identity.ErrUserNotFound)
}

func TestResetPassword(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":"u1"}`))
	})
	ctx := context.Background()
	require.NoError(t, c.ResetPassword(ctx, "good", "new-pass-1"))
	require.ErrorIs(t, c.ResetPassword(ctx, "bad", "new-pass-1"), identity.ErrInvalidToken)
	require.ErrorIs(t, c.ResetPassword(ctx, "", "new-pass-1"), identity.ErrInvalidToken)
}

func TestCreateUser_RequiresServiceKey(t *testing.T) {
	c := New(Config{URL: "http://127.0.0.1:1"})
	_, err := c.CreateUser(context.Background(), identity.CreateUserInput{Email: "a@b.c"})
	require.Error(t, err)
}
