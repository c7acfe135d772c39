package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Rusal42/floofwebsite/config"
	"github.com/Rusal42/floofwebsite/internal"
	"github.com/Rusal42/floofwebsite/internal/discord"
	"github.com/Rusal42/floofwebsite/internal/model"
	"github.com/Rusal42/floofwebsite/internal/store"
	"github.com/Rusal42/floofwebsite/pkg/middleware"
	"github.com/Rusal42/floofwebsite/pkg/security"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	botToken  = "bot-secret"
	jwtSecret = "jwt-secret"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// brokenDurable fails every operation, the way an unreachable backend does
type brokenDurable struct{}

func (brokenDurable) TryGet(context.Context) (model.StatsRecord, bool) { return model.StatsRecord{}, false }
func (brokenDurable) TrySet(context.Context, model.StatsRecord)        {}
func (brokenDurable) Name() string                                     { return "broken" }
func (brokenDurable) Close() error                                     { return nil }

type fakeIdentity struct {
	profile *discord.Profile
	err     error
	code    string
}

func (f *fakeIdentity) Login(_ context.Context, code, _ string) (*discord.Profile, error) {
	f.code = code
	return f.profile, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "Floofs Den API",
			Version:     "v2.1.5",
			Environment: "test",
			LogLevel:    "info",
		},
		Bot: config.BotConfig{APIToken: botToken},
		JWT: config.JWTConfig{Secret: jwtSecret, TTL: time.Hour},
	}
}

func newTestDeps(cfg *config.Config, d store.Durable) *internal.Deps {
	return &internal.Deps{
		Config:    cfg,
		Stats:     store.New(store.NewVolatile(nil), d),
		Identity:  &fakeIdentity{},
		StartedAt: time.Now(),
	}
}

func request(t *testing.T, r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func getStats(t *testing.T, r http.Handler) model.StatsRecord {
	t.Helper()

	w := request(t, r, http.MethodGet, "/api/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	var rec model.StatsRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	return rec
}

func TestStatsColdStart(t *testing.T) {
	r := NewRouter(newTestDeps(testConfig(), nil))

	rec := getStats(t, r)
	assert.Equal(t, int64(8), rec.ServerCount)
	assert.Equal(t, int64(30), rec.UserCount)
	assert.Equal(t, int64(150), rec.CommandsUsed)
	assert.Equal(t, 50.0, rec.Uptime)
	assert.Equal(t, 42.0, rec.Ping)
	assert.False(t, rec.LastUpdated.IsZero())
}

func TestStatsUpdateMerges(t *testing.T) {
	r := NewRouter(newTestDeps(testConfig(), nil))
	auth := map[string]string{middleware.BotTokenHeader: botToken}

	w := request(t, r, http.MethodPost, "/api/update-stats", `{"serverCount":42,"ping":17}`, auth)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	stats := body["stats"].(map[string]any)
	assert.Equal(t, float64(42), stats["serverCount"])
	assert.Equal(t, float64(30), stats["userCount"])

	first := getStats(t, r)

	w = request(t, r, http.MethodPost, "/api/stats", `{"userCount":500}`, auth)
	require.Equal(t, http.StatusOK, w.Code)

	rec := getStats(t, r)
	assert.Equal(t, int64(42), rec.ServerCount)
	assert.Equal(t, int64(500), rec.UserCount)
	assert.Equal(t, 17.0, rec.Ping)
	assert.Equal(t, int64(150), rec.CommandsUsed)
	assert.True(t, rec.LastUpdated.After(first.LastUpdated))
}

func TestStatsUpdateIgnoresUnknownFields(t *testing.T) {
	r := NewRouter(newTestDeps(testConfig(), nil))

	w := request(t, r, http.MethodPost, "/api/update-stats",
		`{"serverCount":1,"admin":true,"lastUpdated":"1999-01-01T00:00:00Z"}`,
		map[string]string{middleware.BotTokenHeader: botToken})
	require.Equal(t, http.StatusOK, w.Code)

	stats := decode(t, w)["stats"].(map[string]any)
	assert.NotContains(t, stats, "admin")
	assert.NotContains(t, stats["lastUpdated"], "1999")
}

func TestStatsUpdateKeysAreCaseSensitive(t *testing.T) {
	r := NewRouter(newTestDeps(testConfig(), nil))
	before := getStats(t, r)

	w := request(t, r, http.MethodPost, "/api/update-stats", `{"SERVERCOUNT":999,"Ping":1,"UserCount":5}`,
		map[string]string{middleware.BotTokenHeader: botToken})
	require.Equal(t, http.StatusOK, w.Code)

	after := getStats(t, r)
	assert.Equal(t, before.ServerCount, after.ServerCount)
	assert.Equal(t, before.Ping, after.Ping)
	assert.Equal(t, before.UserCount, after.UserCount)

	w = request(t, r, http.MethodPost, "/api/update-stats", `{"serverCount":1,"serverCOUNT":2}`,
		map[string]string{middleware.BotTokenHeader: botToken})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), getStats(t, r).ServerCount)
}

func TestStatsUpdateEmptyBody(t *testing.T) {
	r := NewRouter(newTestDeps(testConfig(), nil))
	before := getStats(t, r)

	w := request(t, r, http.MethodPost, "/api/update-stats", "", map[string]string{middleware.BotTokenHeader: botToken})
	require.Equal(t, http.StatusOK, w.Code)

	after := getStats(t, r)
	assert.Equal(t, before.ServerCount, after.ServerCount)
	assert.True(t, after.LastUpdated.After(before.LastUpdated))
}

func TestStatsUpdateUnauthorized(t *testing.T) {
	r := NewRouter(newTestDeps(testConfig(), nil))
	before := getStats(t, r)

	for _, hdr := range []map[string]string{nil, {middleware.BotTokenHeader: "wrong"}} {
		w := request(t, r, http.MethodPost, "/api/update-stats", `{"serverCount":9999}`, hdr)
		require.Equal(t, http.StatusUnauthorized, w.Code)

		body := decode(t, w)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Unauthorized", body["error"])
	}

	assert.Equal(t, before, getStats(t, r))
}

func TestStatsUpdateInvalidJSON(t *testing.T) {
	r := NewRouter(newTestDeps(testConfig(), nil))
	auth := map[string]string{middleware.BotTokenHeader: botToken}
	before := getStats(t, r)

	for _, body := range []string{
		`{"serverCount":`,
		`[1,2]`,
		`null`,
		`{"serverCount":"many"}`,
		`{"userCount":777} trailing-garbage`,
		`{"userCount":1}{"userCount":2}`,
	} {
		w := request(t, r, http.MethodPost, "/api/update-stats", body, auth)
		require.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, "Invalid JSON", decode(t, w)["error"])
	}

	assert.Equal(t, before, getStats(t, r))
}

func TestStatsUpdateTooLarge(t *testing.T) {
	r := NewRouter(newTestDeps(testConfig(), nil))

	big := fmt.Sprintf(`{"version":%q}`, strings.Repeat("a", maxBodySize))
	w := request(t, r, http.MethodPost, "/api/update-stats", big, map[string]string{middleware.BotTokenHeader: botToken})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestStatsUpdateOpenMode(t *testing.T) {
	cfg := testConfig()
	cfg.Bot.APIToken = ""
	r := NewRouter(newTestDeps(cfg, nil))

	w := request(t, r, http.MethodPost, "/api/update-stats", `{"serverCount":3}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(3), getStats(t, r).ServerCount)

	cfg = testConfig()
	cfg.Bot.APIToken = ""
	cfg.Bot.RequireToken = true
	r = NewRouter(newTestDeps(cfg, nil))

	w = request(t, r, http.MethodPost, "/api/update-stats", `{"serverCount":3}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStatsWrongMethod(t *testing.T) {
	r := NewRouter(newTestDeps(testConfig(), nil))

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/update-stats"},
		{http.MethodPut, "/api/stats"},
		{http.MethodDelete, "/api/stats"},
	} {
		w := request(t, r, tc.method, tc.path, "", nil)
		require.Equal(t, http.StatusMethodNotAllowed, w.Code, tc.method+" "+tc.path)
		assert.Equal(t, "Method not allowed", decode(t, w)["error"])
	}
}

func TestHealth(t *testing.T) {
	r := NewRouter(newTestDeps(testConfig(), brokenDurable{}))

	w := request(t, r, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var h struct {
		Success bool   `json:"success"`
		Status  string `json:"status"`
		Server  struct {
			Name        string `json:"name"`
			Version     string `json:"version"`
			Uptime      string `json:"uptime"`
			Environment string `json:"environment"`
		} `json:"server"`
		Endpoints map[string]string `json:"endpoints"`
		Shards    []struct {
			ID        int     `json:"id"`
			Status    string  `json:"status"`
			LatencyMs float64 `json:"latencyMs"`
			Servers   int64   `json:"servers"`
			Users     int64   `json:"users"`
		} `json:"shards"`
		CuteMessage string `json:"cute_message"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &h))

	assert.True(t, h.Success)
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, "Floofs Den API", h.Server.Name)
	assert.Equal(t, "v2.1.5", h.Server.Version)
	assert.Equal(t, "0h 0m 50s", h.Server.Uptime)
	assert.Equal(t, "test", h.Server.Environment)
	assert.Equal(t, "/api/stats", h.Endpoints["stats"])
	require.Len(t, h.Shards, 1)
	assert.Equal(t, 0, h.Shards[0].ID)
	assert.Equal(t, "operational", h.Shards[0].Status)
	assert.Equal(t, 42.0, h.Shards[0].LatencyMs)
	assert.Equal(t, int64(8), h.Shards[0].Servers)
	assert.Equal(t, int64(30), h.Shards[0].Users)
	assert.NotEmpty(t, h.CuteMessage)
}

func TestHealthReflectsWrites(t *testing.T) {
	r := NewRouter(newTestDeps(testConfig(), nil))

	request(t, r, http.MethodPost, "/api/update-stats", `{"uptime":90061,"serverCount":12}`,
		map[string]string{middleware.BotTokenHeader: botToken})

	w := request(t, r, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "1d 1h 1m 1s", body["server"].(map[string]any)["uptime"])
	assert.Equal(t, float64(12), body["shards"].([]any)[0].(map[string]any)["servers"])
}

func TestHeartbeatAndPage(t *testing.T) {
	r := NewRouter(newTestDeps(testConfig(), nil))

	w := request(t, r, http.MethodHead, "/api/heartbeat", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = request(t, r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Floofs Den API")
}

func TestCORS(t *testing.T) {
	r := NewRouter(newTestDeps(testConfig(), nil))

	w := request(t, r, http.MethodOptions, "/api/update-stats", "", map[string]string{
		"Origin":                         "https://floof.example",
		"Access-Control-Request-Method":  "POST",
		"Access-Control-Request-Headers": "content-type,x-bot-token",
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, strings.ToLower(w.Header().Get("Access-Control-Allow-Headers")), "x-bot-token")

	w = request(t, r, http.MethodGet, "/api/stats", "", map[string]string{"Origin": "https://elsewhere.example"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWithoutOrigin(t *testing.T) {
	r := NewRouter(newTestDeps(testConfig(), nil))

	w := request(t, r, http.MethodGet, "/api/stats", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = request(t, r, http.MethodGet, "/api/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = request(t, r, http.MethodPost, "/api/update-stats", `{}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	for _, path := range []string{"/api/stats", "/api/update-stats", "/api/health", "/api/auth/discord"} {
		w = request(t, r, http.MethodOptions, path, "", nil)
		require.Equal(t, http.StatusNoContent, w.Code, path)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "x-bot-token")
	}
}

func TestNotFound(t *testing.T) {
	r := NewRouter(newTestDeps(testConfig(), nil))

	w := request(t, r, http.MethodGet, "/api/does-not-exist", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "API endpoint not found", decode(t, w)["error"])

	w = request(t, r, http.MethodGet, "/some/page", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found", decode(t, w)["error"])
}

func TestStaticFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>floof</h1>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	cfg := testConfig()
	cfg.Host.StaticDir = dir
	r := NewRouter(newTestDeps(cfg, nil))

	w := request(t, r, http.MethodGet, "/app.js", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "console.log(1)", w.Body.String())

	w = request(t, r, http.MethodGet, "/dashboard/settings", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "floof")
}

func TestDiscordLogin(t *testing.T) {
	d := newTestDeps(testConfig(), nil)
	id := &fakeIdentity{profile: &discord.Profile{
		User: &discordgo.User{ID: "80351110224678912", Username: "floof", Discriminator: "0", Avatar: "a_1"},
		Guilds: []*discordgo.UserGuild{
			{ID: "1", Name: "Den", Permissions: discordgo.PermissionAdministrator},
			{ID: "2", Name: "Lurker"},
		},
	}}
	d.Identity = id
	r := NewRouter(d)

	w := request(t, r, http.MethodPost, "/api/auth/discord", `{"code":"abc","redirect_uri":"https://floof.example/cb"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "abc", id.code)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])

	user := body["user"].(map[string]any)
	assert.Equal(t, "80351110224678912", user["id"])
	assert.Len(t, user["guilds"], 1)

	claims, err := security.ParseSession(jwtSecret, body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "80351110224678912", claims.UserID)

	w = request(t, r, http.MethodGet, "/api/user/dashboard", "", map[string]string{"Authorization": "Bearer " + body["token"].(string)})
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "floof", data["user"].(map[string]any)["username"])
	assert.Empty(t, data["servers"])
	assert.Empty(t, data["recentActivity"])
}

func TestDiscordLoginErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		msg    string
	}{
		{"missing code", `{}`, nil, http.StatusBadRequest, "No authorization code provided"},
		{"bad exchange", `{"code":"x"}`, fmt.Errorf("%w: invalid_grant", discord.ErrTokenExchange), http.StatusBadRequest, "Failed to exchange code for token"},
		{"bad user", `{"code":"x"}`, fmt.Errorf("%w: 500", discord.ErrUserFetch), http.StatusBadRequest, "Failed to fetch user data"},
		{"other", `{"code":"x"}`, context.DeadlineExceeded, http.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := newTestDeps(testConfig(), nil)
			d.Identity = &fakeIdentity{err: tc.err}
			r := NewRouter(d)

			w := request(t, r, http.MethodPost, "/api/auth/discord", tc.body, nil)
			require.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.msg, decode(t, w)["error"])
		})
	}
}

func TestDashboardRequiresToken(t *testing.T) {
	r := NewRouter(newTestDeps(testConfig(), nil))

	w := request(t, r, http.MethodGet, "/api/user/dashboard", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "No token provided", decode(t, w)["error"])

	w = request(t, r, http.MethodGet, "/api/user/dashboard", "", map[string]string{"Authorization": "Bearer nope"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token", decode(t, w)["error"])
}

func TestMetricsRoute(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = true
	r := NewRouter(newTestDeps(cfg, nil))

	request(t, r, http.MethodGet, "/api/stats", "", nil)

	w := request(t, r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "floof_stats_reads_total")
}
