package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/campusconnect/campusconnect/internal/app"
	"github.com/campusconnect/campusconnect/internal/auth"
	"github.com/campusconnect/campusconnect/internal/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type successEnvelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"request_id"`
}

type errorEnvelope struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

func TestE2E_InvitationLifecycleOverHTTP(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)

	cfg := &config.Config{
		Env:               "dev",
		HTTPAddr:          ":0",
		BaseURL:           "http://localhost",
		DBDSN:             "unused",
		JWTSecret:         "test-secret",
		LogLevel:          "error",
		LoginRateLimitRPM: 120,
		SessionDays:       7,
	}

	srv := httptest.NewServer(app.NewRouter(pool, cfg))
	t.Cleanup(srv.Close)

	authorClient, authorCSRF := newCSRFClient(t, srv.URL)
	inviteeClient, inviteeCSRF := newCSRFClient(t, srv.URL)

	signup(t, authorClient, srv.URL, authorCSRF, "author@campus.edu")
	inviteeID := signup(t, inviteeClient, srv.URL, inviteeCSRF, "invitee@campus.edu")

	// Author creates a post.
	postResp := doJSON(t, authorClient, http.MethodPost, srv.URL+"/api/v1/posts/", authorCSRF, http.StatusCreated, map[string]any{
		"title":           "Robotics competition team",
		"description":     "Need two teammates for the regional round",
		"category":        "COMPETITION",
		"required_skills": []string{"ROS", "C++"},
	})
	var post struct {
		ID uuid.UUID `json:"id"`
	}
	require.NoError(t, json.Unmarshal(postResp.Data, &post))
	require.NotEqual(t, uuid.Nil, post.ID)

	// Author invites the other user.
	inviteResp := doJSON(t, authorClient, http.MethodPost, srv.URL+"/api/v1/invitations/", authorCSRF, http.StatusCreated, map[string]any{
		"post_id":         post.ID,
		"invited_user_id": inviteeID,
		"message":         "Interested?",
	})
	var invite struct {
		ID     uuid.UUID `json:"id"`
		Status string    `json:"status"`
	}
	require.NoError(t, json.Unmarshal(inviteResp.Data, &invite))
	require.Equal(t, "PENDING", invite.Status)

	// A duplicate send conflicts while the first is pending.
	errEnv := doJSONExpectError(t, authorClient, http.MethodPost, srv.URL+"/api/v1/invitations/", authorCSRF, http.StatusConflict, map[string]any{
		"post_id":         post.ID,
		"invited_user_id": inviteeID,
	})
	require.Equal(t, "conflict", errEnv.Error)

	// The author cannot accept their own invitation.
	errEnv = doJSONExpectError(t, authorClient, http.MethodPatch, srv.URL+"/api/v1/invitations/"+invite.ID.String()+"/accept", authorCSRF, http.StatusForbidden, nil)
	require.Equal(t, "forbidden", errEnv.Error)

	// The invitee accepts and joins the team.
	acceptResp := doJSON(t, inviteeClient, http.MethodPatch, srv.URL+"/api/v1/invitations/"+invite.ID.String()+"/accept", inviteeCSRF, http.StatusOK, nil)
	var accepted struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(acceptResp.Data, &accepted))
	require.Equal(t, "ACCEPTED", accepted.Status)
	require.Equal(t, 1, countTeamMembers(t, pool, post.ID))

	// Disconnecting before closure is an invalid state.
	errEnv = doJSONExpectError(t, inviteeClient, http.MethodPatch, srv.URL+"/api/v1/invitations/"+invite.ID.String()+"/disconnect", inviteeCSRF, http.StatusConflict, nil)
	require.Equal(t, "invalid_state", errEnv.Error)

	// Closing the post disconnects the accepted connection.
	closeResp := doJSON(t, authorClient, http.MethodPatch, srv.URL+"/api/v1/posts/"+post.ID.String()+"/close", authorCSRF, http.StatusOK, nil)
	var closure struct {
		Status                  string `json:"status"`
		DisconnectedConnections int    `json:"disconnected_connections"`
	}
	require.NoError(t, json.Unmarshal(closeResp.Data, &closure))
	require.Equal(t, "CLOSED", closure.Status)
	require.Equal(t, 1, closure.DisconnectedConnections)
	require.Equal(t, 0, countTeamMembers(t, pool, post.ID))

	// Closing again is an invalid state.
	errEnv = doJSONExpectError(t, authorClient, http.MethodPatch, srv.URL+"/api/v1/posts/"+post.ID.String()+"/close", authorCSRF, http.StatusConflict, nil)
	require.Equal(t, "invalid_state", errEnv.Error)

	// Stats reflect the disconnected connection.
	statsResp := getJSON(t, inviteeClient, srv.URL+"/api/v1/invitations/stats")
	var stats struct {
		TotalReceived       int `json:"total_received"`
		AcceptedConnections int `json:"accepted_connections"`
	}
	require.NoError(t, json.Unmarshal(statsResp.Data, &stats))
	require.Equal(t, 1, stats.TotalReceived)
	require.Equal(t, 0, stats.AcceptedConnections)

	// A request without a CSRF token is rejected.
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/invitations/", bytes.NewReader([]byte(`{}`)))
	require.NoError(t, err)
	resp, err := authorClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func newCSRFClient(t *testing.T, serverURL string) (*http.Client, string) {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	baseURL, err := url.Parse(serverURL)
	require.NoError(t, err)

	csrfToken, err := auth.GenerateCSRFToken()
	require.NoError(t, err)
	jar.SetCookies(baseURL, []*http.Cookie{{
		Name:  auth.CSRFCookieName,
		Value: csrfToken,
		Path:  "/",
	}})

	return client, csrfToken
}

func signup(t *testing.T, client *http.Client, baseURL, csrfToken, email string) uuid.UUID {
	t.Helper()

	resp := doJSON(t, client, http.MethodPost, baseURL+"/api/v1/auth/signup", csrfToken, http.StatusCreated, map[string]any{
		"email":      email,
		"password":   "password123",
		"first_name": "Test",
		"last_name":  "User",
	})

	var session struct {
		UserID uuid.UUID `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &session))
	require.NotEqual(t, uuid.Nil, session.UserID)

	return session.UserID
}

func doJSON(t *testing.T, client *http.Client, method, urlStr, csrfToken string, wantStatus int, payload any) successEnvelope {
	t.Helper()

	body := doRequest(t, client, method, urlStr, csrfToken, wantStatus, payload)

	var env successEnvelope
	require.NoError(t, json.Unmarshal(body, &env))
	require.True(t, env.Success)
	require.NotEmpty(t, env.RequestID)

	return env
}

func doJSONExpectError(t *testing.T, client *http.Client, method, urlStr, csrfToken string, wantStatus int, payload any) errorEnvelope {
	t.Helper()

	body := doRequest(t, client, method, urlStr, csrfToken, wantStatus, payload)

	var env errorEnvelope
	require.NoError(t, json.Unmarshal(body, &env))
	require.False(t, env.Success)
	require.NotEmpty(t, env.RequestID)

	return env
}

func doRequest(t *testing.T, client *http.Client, method, urlStr, csrfToken string, wantStatus int, payload any) []byte {
	t.Helper()

	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, urlStr, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", csrfToken)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, wantStatus, resp.StatusCode, "body: %s", string(body))

	return body
}

func getJSON(t *testing.T, client *http.Client, urlStr string) successEnvelope {
	t.Helper()

	resp, err := client.Get(urlStr)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", string(body))

	var env successEnvelope
	require.NoError(t, json.Unmarshal(body, &env))
	require.True(t, env.Success)

	return env
}
