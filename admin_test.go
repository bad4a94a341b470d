package montaze

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/eringen/montaze/analytics"
	"github.com/eringen/montaze/inquiry"
)

func TestAdminShowsLoginWhenAnonymous(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	rec := newClient(t, a).get("/admin/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/admin/login/"`)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestAdminLoginRejectsWrongPassword(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	cl := newClient(t, a)

	rec := cl.login("spatne")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Nesprávné heslo")
	assert.NotContains(t, cl.cookies, sessionName)
}

func TestAdminLoginRateLimited(t *testing.T) {
	cfg := testConfig(t)
	cfg.LoginLimit = 1
	a := newTestApp(t, cfg)
	cl := newClient(t, a)

	cl.login("spatne")
	rec := cl.login(testPassword)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAdminLoginRequiresCSRF(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	cl := newClient(t, a)
	cl.get("/admin/")

	rec := cl.postForm("/admin/login/", url.Values{"password": {testPassword}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminDashboardFlow(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	created, err := a.Store.Create(context.Background(), inquiry.Submission{
		Name: "<script>alert(1)</script>", Email: "jan@example.cz", Phone: "777", Service: "EPS",
	})
	require.NoError(t, err)

	cl := newClient(t, a)
	rec := cl.login(testPassword)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Contains(t, cl.cookies, sessionName)

	rec = cl.get("/admin/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Přehled")
	assert.Contains(t, body, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.NotContains(t, body, "<script>alert(1)")
	assert.Equal(t, 1, a.Dashboard.Snapshot().KPIs.NewInquiries)

	token := csrfField.FindStringSubmatch(body)[1]
	rec = cl.postForm("/admin/inquiries/"+created.ID+"/read/", url.Values{"_csrf": {token}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	got, err := a.Store.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, inquiry.StatusRead, got.Status)
	assert.Equal(t, 0, a.Dashboard.Snapshot().KPIs.NewInquiries)

	rec = cl.postForm("/admin/inquiries/missing/read/", url.Values{"_csrf": {token}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = cl.get("/admin/?period=12m")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, analytics.Period12m, a.Dashboard.Period())
	assert.Len(t, a.Dashboard.Snapshot().Traffic, 12)

	rec = cl.postForm("/admin/refresh/", url.Values{"_csrf": {token}, "period": {"7d"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Len(t, a.Dashboard.Snapshot().Traffic, 7)

	rec = cl.postForm("/admin/logout/", url.Values{"_csrf": {token}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.NotContains(t, cl.cookies, sessionName)
}

func TestAdminChartsRequireLogin(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	cl := newClient(t, a)

	rec := cl.get("/admin/charts/traffic/")
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	require.Equal(t, http.StatusSeeOther, cl.login(testPassword).Code)
	rec = cl.get("/admin/charts/traffic/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "echarts")

	rec = cl.get("/admin/charts/weather/")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckPasswordAcceptsBcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := testConfig(t)
	cfg.AdminPassword = string(hash)
	a := newTestApp(t, cfg)

	assert.True(t, a.checkPassword(testPassword))
	assert.False(t, a.checkPassword("spatne"))
	assert.Equal(t, http.StatusSeeOther, newClient(t, a).login(testPassword).Code)
}

func TestSetupRequiresSecrets(t *testing.T) {
	cfg := testConfig(t)
	cfg.AdminPassword = ""
	assert.Error(t, New(cfg, WithLogger(quietLogger())).Setup())

	cfg = testConfig(t)
	cfg.SessionSecret = ""
	assert.Error(t, New(cfg, WithLogger(quietLogger())).Setup())
}

func TestSetupStoreFailureClosesLogFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	cfg := testConfig(t)
	cfg.LogFile = filepath.Join(dir, "montaze.log")
	cfg.TimeZone = "Nowhere/Invalid"
	cfg.DatabasePath = filepath.Join(blocker, "inquiries.db")

	a := New(cfg)
	require.Error(t, a.Setup())
	assert.Nil(t, a.logCloser)
	assert.Nil(t, a.Log)
	assert.FileExists(t, cfg.LogFile)

	a.Config.DatabasePath = filepath.Join(dir, "inquiries.db")
	require.NoError(t, a.Setup())
	t.Cleanup(func() { a.Close() })
	assert.NotNil(t, a.logCloser)
}

func TestPublicRoutes(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.StaticDir, "index.html"), []byte("<h1>Montáže</h1>"), 0o644))
	a := newTestApp(t, cfg)
	cl := newClient(t, a)

	rec := cl.get("/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>Montáže</h1>")

	rec = cl.get("/sitemap.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<loc>https://montaze.example/</loc>")
	assert.Contains(t, rec.Body.String(), "<loc>https://montaze.example/sluzby/eps/</loc>")

	rec = cl.get("/robots.txt")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Sitemap: https://montaze.example/sitemap.xml")

	rec = cl.get("/public/dashboard.css")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = cl.get("/neexistuje.html")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>404</h1>")
}
