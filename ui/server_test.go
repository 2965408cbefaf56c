package ui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"churndash/app"
	"churndash/internal"
	"churndash/internal/config"
	"churndash/internal/container"
	"churndash/internal/errors"
	"churndash/internal/testkit"
	"churndash/ui/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	return newServer(t).Handler()
}

func newServer(t *testing.T) *Server {
	t.Helper()
	path := testkit.WriteFile(t, "churn.csv", testkit.CSV(
		testkit.Row{CustomerID: "1", Gender: "Male", Dependents: "Yes", MultipleLines: "No", Contract: "One year", PaymentMethod: "Mailed check", Tenure: "10", MonthlyCharges: "20", TotalCharges: "200", Churn: "Yes"},
		testkit.Row{CustomerID: "2", Gender: "Female", Dependents: "No", MultipleLines: "Yes", Contract: "Month-to-month", PaymentMethod: "Electronic check", Tenure: "2", MonthlyCharges: "80", TotalCharges: "160", Churn: "No"},
	))

	cfg := &config.Config{
		Data: config.DataConfig{File: path, HistogramBins: 5},
		Auth: config.AuthConfig{
			Users:       []config.UserCredential{{Username: "ana", Password: "pw", DisplayName: "Ana Lima"}},
			IdleTimeout: time.Hour,
		},
	}
	logger := internal.NewNopLogger()
	c, err := container.New(cfg, logger)
	require.NoError(t, err)

	s, err := NewServer("127.0.0.1:0", c.Dashboard, c.Sessions, c.Authenticator, logger)
	require.NoError(t, err)
	return s
}

// client replays the session cookie between requests
type client struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
}

func (cl *client) do(req *http.Request) *httptest.ResponseRecorder {
	if cl.cookie != nil {
		req.AddCookie(cl.cookie)
	}
	rec := httptest.NewRecorder()
	cl.handler.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.CookieName {
			cl.cookie = ck
		}
	}
	return rec
}

func (cl *client) get(path string) *httptest.ResponseRecorder {
	return cl.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (cl *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return cl.do(req)
}

func (cl *client) login(user, pass string) *httptest.ResponseRecorder {
	return cl.post("/login", url.Values{"username": {user}, "password": {pass}})
}

func TestAPIRequiresLogin(t *testing.T) {
	cl := &client{t: t, handler: newTestServer(t)}

	rec := cl.get("/api/dashboard?view=kpi")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, errors.CodeUnauthorized, body["code"])
}

func TestHomeShowsLoginPrompt(t *testing.T) {
	cl := &client{t: t, handler: newTestServer(t)}

	rec := cl.get("/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), LoginPrompt)
	assert.Contains(t, rec.Body.String(), "Guest")
	require.NotNil(t, cl.cookie)
	assert.True(t, cl.cookie.HttpOnly)

	rec = cl.get("/dashboard?view=kpi")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), LoginPrompt)
}

func TestLoginThenRenderViews(t *testing.T) {
	cl := &client{t: t, handler: newTestServer(t)}
	cl.get("/")

	rec := cl.login("ana", "pw")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	home := cl.get("/")
	assert.Contains(t, home.Body.String(), "Ana Lima")
	assert.Contains(t, home.Body.String(), "<h2", "home page markdown is rendered")

	rec = cl.get("/api/dashboard?view=kpi")
	require.Equal(t, http.StatusOK, rec.Code)
	var payload app.ViewPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.NotNil(t, payload.KPI)
	total, ok := payload.KPI.Get("total_customers")
	require.True(t, ok)
	assert.Equal(t, "2", total.Display)
	rate, _ := payload.KPI.Get("churn_rate_pct")
	assert.Equal(t, "50.00%", rate.Display)

	page := cl.get("/dashboard?view=Analytics%20Dashboard")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Analytics Dashboard")
	assert.Contains(t, page.Body.String(), "Mailed check")

	page = cl.get("/dashboard?view=eda")
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Distribution of tenure")

	page = cl.get("/dashboard")
	assert.Contains(t, page.Body.String(), app.SelectPrompt)
	assert.Contains(t, page.Body.String(), "Mailed check", "questions render under the prompt")

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal(cl.get("/api/session").Body.Bytes(), &info))
	assert.Equal(t, true, info["authenticated"])
	assert.Equal(t, "unselected", info["view"])
}

func TestLoginIssuesFreshSession(t *testing.T) {
	cl := &client{t: t, handler: newTestServer(t)}
	cl.get("/")
	require.NotNil(t, cl.cookie)
	guest := cl.cookie

	rec := cl.login("ana", "pw")
	require.Equal(t, http.StatusSeeOther, rec.Code)

	require.NotNil(t, cl.cookie)
	assert.NotEqual(t, guest.Value, cl.cookie.Value)
	assert.Equal(t, http.StatusOK, cl.get("/api/dashboard?view=kpi").Code)

	cl.cookie = guest
	assert.Equal(t, http.StatusUnauthorized, cl.get("/api/dashboard?view=kpi").Code, "the pre-login ID is not promoted")
}

func TestShutdownBeforeStart(t *testing.T) {
	s := newServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, s.Shutdown(ctx))

	done := make(chan error, 1)
	go func() { done <- s.Start() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start kept serving after Shutdown")
	}
}

func TestBadCredentials(t *testing.T) {
	cl := &client{t: t, handler: newTestServer(t)}

	rec := cl.login("ana", "wrong")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid username or password")
	assert.Equal(t, http.StatusUnauthorized, cl.get("/api/dashboard?view=kpi").Code)
}

func TestUnknownViewIsBadRequest(t *testing.T) {
	cl := &client{t: t, handler: newTestServer(t)}
	cl.login("ana", "pw")

	rec := cl.get("/api/dashboard?view=predict")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutEndsSession(t *testing.T) {
	cl := &client{t: t, handler: newTestServer(t)}
	cl.login("ana", "pw")
	require.Equal(t, http.StatusOK, cl.get("/api/dashboard?view=eda").Code)
	old := cl.cookie

	rec := cl.post("/logout", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	cl.cookie = old
	assert.Equal(t, http.StatusUnauthorized, cl.get("/api/dashboard?view=eda").Code)
}

func TestHealthz(t *testing.T) {
	cl := &client{t: t, handler: newTestServer(t)}

	rec := cl.get("/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
