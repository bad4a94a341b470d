package montaze

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const (
	testPassword = "tajne-heslo"
	testAPIToken = "api-token"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig(t *testing.T) SiteConfig {
	t.Helper()
	return SiteConfig{
		URL:           "https://montaze.example",
		AdminPassword: testPassword,
		SessionSecret: "0123456789abcdef0123456789abcdef",
		AdminAPIToken: testAPIToken,
		DatabasePath:  filepath.Join(t.TempDir(), "inquiries.db"),
		StaticDir:     t.TempDir(),
		Pages:         []string{"/", "/sluzby/eps", "/kontakt"},
	}
}

func newTestApp(t *testing.T, cfg SiteConfig, opts ...Option) *App {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger()), WithSyntheticSeed(1)}, opts...)
	a := New(cfg, opts...)
	require.NoError(t, a.Setup())
	t.Cleanup(func() { a.Close() })
	return a
}

// client is a tiny cookie-keeping browser over the app's handler.
type client struct {
	t       *testing.T
	app     *App
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, a *App) *client {
	return &client{t: t, app: a, cookies: map[string]*http.Cookie{}}
}

func (cl *client) do(req *http.Request) *httptest.ResponseRecorder {
	cl.t.Helper()
	for _, c := range cl.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	cl.app.Echo.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(cl.cookies, c.Name)
			continue
		}
		cl.cookies[c.Name] = c
	}
	return rec
}

func (cl *client) get(target string) *httptest.ResponseRecorder {
	return cl.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (cl *client) postForm(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return cl.do(req)
}

var csrfField = regexp.MustCompile(`name="_csrf" value="([^"]+)"`)

// csrf loads the admin page and returns the form token.
func (cl *client) csrf() string {
	cl.t.Helper()
	rec := cl.get("/admin/")
	m := csrfField.FindStringSubmatch(rec.Body.String())
	require.Len(cl.t, m, 2, "csrf token in page")
	return m[1]
}

func (cl *client) login(password string) *httptest.ResponseRecorder {
	cl.t.Helper()
	return cl.postForm("/admin/login/", url.Values{"password": {password}, "_csrf": {cl.csrf()}})
}
