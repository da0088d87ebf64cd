package web

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-salas/internal/config"
	"github.com/go-while/go-salas/internal/metrics"
	"github.com/go-while/go-salas/internal/roles"
	"github.com/go-while/go-salas/internal/routes"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, modify ...func(*config.MainConfig)) *WebServer {
	t.Helper()
	cfg := config.NewDefaultConfig()
	for _, m := range modify {
		m(cfg)
	}
	s, err := NewServer(cfg, zap.NewNop())
	require.NoError(t, err)
	return s
}

func doRequest(s *WebServer, method, target string, header map[string]string) *httptest.ResponseRecorder {
	return doRequestFrom(s, "", method, target, header)
}

// doRequestFrom sends the request from remoteAddr (httptest default when empty)
func doRequestFrom(s *WebServer, remoteAddr, method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if remoteAddr != "" {
		req.RemoteAddr = remoteAddr
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestPagesRenderTheirTemplate(t *testing.T) {
	s := newTestServer(t)
	all := routes.All()

	for _, r := range all {
		t.Run(r.Name, func(t *testing.T) {
			w := doRequest(s, http.MethodGet, r.Path, nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

			body := w.Body.String()
			assert.Contains(t, body, `data-template="`+r.Template+`"`)
			assert.Contains(t, body, `id="page-`+r.Name+`"`)
			for _, other := range all {
				if other.Name != r.Name {
					assert.NotContains(t, body, `data-template="`+other.Template+`"`)
					assert.NotContains(t, body, `id="page-`+other.Name+`"`)
				}
			}
		})
	}
}

func TestPagesDispatchToNamedHandler(t *testing.T) {
	s := newTestServer(t)
	expected := map[string]string{
		"/":          "homePage",
		"/perfil/":   "profilePage",
		"/salas/":    "roomsPage",
		"/sala/":     "roomPage",
		"/feedback/": "feedbackPage",
		"/progreso/": "progressPage",
	}

	found := 0
	for _, info := range s.Router.Routes() {
		want, ok := expected[info.Path]
		if !ok || info.Method != http.MethodGet {
			continue
		}
		found++
		assert.True(t, strings.HasSuffix(info.Handler, "."+want+"-fm"),
			"path %s dispatches to %s, want %s", info.Path, info.Handler, want)
	}
	assert.Equal(t, len(expected), found)
}

func TestScenarios(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `data-template="core/home.html"`)

	w = doRequest(s, http.MethodGet, "/sala/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `data-template="core/room.html"`)
	assert.Contains(t, w.Body.String(), `/static/js/wizard.js`)
}

func TestRoomWizardSteps(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(s, http.MethodGet, "/sala/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	for i := 1; i <= 7; i++ {
		assert.Contains(t, body, `data-step="`+strconv.Itoa(i)+`"`)
	}
	assert.Equal(t, 7, strings.Count(body, "data-step-dot"))
	for _, hook := range []string{"data-guest", "data-login-email", `data-toggle="cam"`, "data-avatar-option", "data-category", "data-role-tips"} {
		assert.Contains(t, body, hook)
	}

	w = doRequest(s, http.MethodGet, "/static/js/wizard.js", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/v1/roles/random")
}

func TestUnknownPathIsNotFound(t *testing.T) {
	s := newTestServer(t)
	before := testutil.ToFloat64(metrics.NotFound)

	for _, p := range []string{"/unknown/", "/sala/1/", "/api/v1/nothing"} {
		w := doRequest(s, http.MethodGet, p, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, p)
		assert.Contains(t, w.Body.String(), "Page Not Found", p)
	}
	assert.Equal(t, before+3, testutil.ToFloat64(metrics.NotFound))

	w := doRequest(s, http.MethodPost, "/unknown/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPagesDispatchOnPathAlone(t *testing.T) {
	s := newTestServer(t)
	methods := []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}

	for _, m := range methods {
		w := doRequest(s, m, "/sala/", nil)
		require.Equal(t, http.StatusOK, w.Code, m)
		assert.Contains(t, w.Body.String(), `data-template="core/room.html"`, m)
		assert.NotContains(t, w.Body.String(), "Page Not Found", m)
	}

	w := doRequest(s, http.MethodPost, "/feedback/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `id="page-feedback"`)
}

func TestMissingTrailingSlashRedirects(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(s, http.MethodGet, "/sala", nil)
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/sala/", w.Header().Get("Location"))
}

func TestHeadRequest(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(s, http.MethodHead, "/progreso/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRenderCountsPages(t *testing.T) {
	s := newTestServer(t)
	before := testutil.ToFloat64(metrics.PagesRendered.WithLabelValues(routes.Room))
	doRequest(s, http.MethodGet, "/sala/", nil)
	doRequest(s, http.MethodGet, "/sala/", nil)
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.PagesRendered.WithLabelValues(routes.Room)))
}

func TestNavigationAndLanguage(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/feedback/", map[string]string{"Accept-Language": "en-US,en;q=0.9"})
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `<html lang="en">`)
	assert.Contains(t, body, `<a href="/feedback/" aria-current="page">Feedback</a>`)
	assert.Contains(t, body, `<a href="/salas/">Salas</a>`)

	w = doRequest(s, http.MethodGet, "/feedback/", nil)
	assert.Contains(t, w.Body.String(), `<html lang="es">`)
}

func TestCanonicalBehindProxy(t *testing.T) {
	s := newTestServer(t)
	forwarded := map[string]string{
		"X-Forwarded-Proto": "https",
		"X-Forwarded-Host":  "salas.example",
	}

	for _, proxy := range []string{"127.0.0.1:40000", "10.1.2.3:40000", "[::1]:40000"} {
		w := doRequestFrom(s, proxy, http.MethodGet, "/sala/", forwarded)
		require.Equal(t, http.StatusOK, w.Code, proxy)
		assert.Contains(t, w.Body.String(), `href="https://salas.example/sala/"`, proxy)
	}
}

func TestForwardedHeadersIgnoredFromUntrustedPeer(t *testing.T) {
	s := newTestServer(t)
	w := doRequestFrom(s, "192.0.2.1:1234", http.MethodGet, "/", map[string]string{
		"X-Forwarded-Proto": "https",
		"X-Forwarded-Host":  "evil.example",
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.NotContains(t, body, "evil.example")
	assert.Contains(t, body, `href="http://example.com/"`)

	// No trusted proxies at all means nobody may rewrite the host.
	closed := newTestServer(t, func(c *config.MainConfig) { c.Web.TrustedProxies = nil })
	w = doRequestFrom(closed, "127.0.0.1:40000", http.MethodGet, "/", map[string]string{"X-Forwarded-Host": "evil.example"})
	assert.NotContains(t, w.Body.String(), "evil.example")
}

func TestInvalidTrustedProxyFailsStartup(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Web.TrustedProxies = []string{"not-an-ip"}
	_, err := NewServer(cfg, zap.NewNop())
	assert.Error(t, err)

	prefixes, err := parseTrustedProxies([]string{"10.0.0.0/8", "::ffff:127.0.0.1", "2001:db8::1"})
	require.NoError(t, err)
	require.Len(t, prefixes, 3)
	assert.Equal(t, 32, prefixes[1].Bits())
	assert.Equal(t, 128, prefixes[2].Bits())
}

func TestFooterShowsRenderTime(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(s, http.MethodGet, "/progreso/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Regexp(t, `<time datetime="\d{4}-\d{2}-\d{2}T[^"]+">\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}</time>`, w.Body.String())
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(s, http.MethodGet, "/", nil)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/ping", nil)
	_, err := uuid.Parse(w.Header().Get("X-Request-ID"))
	assert.NoError(t, err)

	id := uuid.NewString()
	w = doRequest(s, http.MethodGet, "/ping", map[string]string{"X-Request-ID": id})
	assert.Equal(t, id, w.Header().Get("X-Request-ID"))

	w = doRequest(s, http.MethodGet, "/ping", map[string]string{"X-Request-ID": "<script>"})
	assert.NotEqual(t, "<script>", w.Header().Get("X-Request-ID"))
}

func TestBotDetection(t *testing.T) {
	s := newTestServer(t, func(c *config.MainConfig) { c.Web.BlockBots = true })
	w := doRequest(s, http.MethodGet, "/", map[string]string{"User-Agent": "python-requests/2.31"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(s, http.MethodGet, "/", map[string]string{"User-Agent": "Mozilla/5.0"})
	assert.Equal(t, http.StatusOK, w.Code)

	open := newTestServer(t)
	w = doRequest(open, http.MethodGet, "/", map[string]string{"User-Agent": "python-requests/2.31"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOperationalEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/ping", nil)
	assert.Equal(t, "pong", w.Body.String())

	w = doRequest(s, http.MethodGet, "/robots.txt", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "User-agent: *")

	doRequest(s, http.MethodGet, "/", nil)
	w = doRequest(s, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "salas_pages_rendered_total")
}

func TestStaticAssets(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/static/css/app.css", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ":root")
	assert.Equal(t, "public, max-age=3600", w.Header().Get("Cache-Control"))

	w = doRequest(s, http.MethodGet, "/static/js/wizard.js", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(s, http.MethodGet, "/static/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(s, http.MethodGet, "/favicon.svg", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))

	files, err := ListEmbeddedFiles()
	require.NoError(t, err)
	assert.Contains(t, files, "static/css/app.css")
}

func TestRolesAPI(t *testing.T) {
	s := newTestServer(t)

	w := doRequest(s, http.MethodGet, "/api/v1/roles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Roles []roles.Role `json:"roles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list.Roles, 4)

	w = doRequest(s, http.MethodGet, "/api/v1/roles/random", map[string]string{"Origin": "https://salas.example"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	var role roles.Role
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &role))
	_, ok := roles.ByName(role.Name)
	assert.True(t, ok, "unknown role %q", role.Name)
}

func TestRoutesAPI(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(s, http.MethodGet, "/api/v1/routes", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Routes []routes.Route `json:"routes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, routes.All(), resp.Routes)
}

func TestCORSRestrictedOrigins(t *testing.T) {
	s := newTestServer(t, func(c *config.MainConfig) {
		c.Web.AllowOrigins = []string{"https://salas.example"}
	})
	w := doRequest(s, http.MethodGet, "/api/v1/roles", map[string]string{"Origin": "https://salas.example"})
	assert.Equal(t, "https://salas.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = doRequest(s, http.MethodGet, "/api/v1/roles", map[string]string{"Origin": "https://evil.example"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// copyTemplates writes the embedded templates to a directory so tests can alter them
func copyTemplates(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	sub, err := fs.Sub(embeddedTemplatesFS, "templates")
	require.NoError(t, err)
	err = fs.WalkDir(sub, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		target := filepath.Join(dir, filepath.FromSlash(p))
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := fs.ReadFile(sub, p)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
	require.NoError(t, err)
	return dir
}

func TestTemplateDirOverride(t *testing.T) {
	dir := copyTemplates(t)
	page := `{{define "content"}}<p id="page-home">desde disco</p>{{end}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "core", "home.html"), []byte(page), 0o644))

	s := newTestServer(t, func(c *config.MainConfig) { c.Web.TemplateDir = dir })
	w := doRequest(s, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "desde disco")
}

func TestMissingTemplateFailsStartup(t *testing.T) {
	dir := copyTemplates(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "core", "progress.html")))

	cfg := config.NewDefaultConfig()
	cfg.Web.TemplateDir = dir
	_, err := NewServer(cfg, zap.NewNop())
	assert.Error(t, err)

	_, err = NewServer(nil, zap.NewNop())
	assert.Error(t, err)
}

func TestBrokenTemplateRendersErrorPage(t *testing.T) {
	dir := copyTemplates(t)
	page := `{{define "content"}}{{url "lobby"}}{{end}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "core", "rooms.html"), []byte(page), 0o644))

	s := newTestServer(t, func(c *config.MainConfig) { c.Web.TemplateDir = dir })
	before := testutil.ToFloat64(metrics.RenderErrors.WithLabelValues("core/rooms.html"))

	w := doRequest(s, http.MethodGet, "/salas/", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Template error")
	assert.NotContains(t, w.Body.String(), "lobby")
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.RenderErrors.WithLabelValues("core/rooms.html")))
}

func TestNegotiateLanguage(t *testing.T) {
	testCases := []struct {
		header string
		want   string
	}{
		{"", "es"},
		{"es-MX,es;q=0.9", "es"},
		{"en-GB", "en"},
		{"de-DE", "es"},
		{"garbage;;", "es"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, negotiateLanguage(tc.header), tc.header)
	}
}

func TestGetContentType(t *testing.T) {
	assert.Equal(t, "text/javascript; charset=utf-8", getContentType("static/js/wizard.js"))
	assert.Equal(t, "image/jpeg", getContentType("a.JPEG"))
	assert.Equal(t, "application/octet-stream", getContentType("README"))
}

func TestShutdownBeforeStart(t *testing.T) {
	s := newTestServer(t)
	assert.NoError(t, s.Shutdown(context.Background()))
	assert.Equal(t, ":11980", s.httpServer.Addr)
}
