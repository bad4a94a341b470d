package montaze

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/eringen/montaze/analytics"
	"github.com/eringen/montaze/dashboard"
	"github.com/eringen/montaze/inquiry"
	"github.com/eringen/montaze/views"
)

// checkPassword compares against the configured admin password, which may be
// stored as a bcrypt hash.
func (a *App) checkPassword(pass string) bool {
	want := a.Config.AdminPassword
	if strings.HasPrefix(want, "$2a$") || strings.HasPrefix(want, "$2b$") || strings.HasPrefix(want, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(want), []byte(pass)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(pass), []byte(want)) == 1
}

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(false, CsrfToken(c)))
	}
	ctx, sess := c.Request().Context(), dashboardSession(c)
	switch p := c.QueryParam("period"); {
	case p != "" && analytics.ParsePeriod(p) != a.Dashboard.Period():
		<-a.Dashboard.SetPeriod(ctx, sess, analytics.ParsePeriod(p))
	case a.Dashboard.Snapshot().Demo.Inquiries:
		<-a.Dashboard.Refresh(ctx, sess)
	}
	return a.renderDashboard(c)
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Příliš mnoho pokusů o přihlášení. Zkuste to později.")
	}
	if !a.checkPassword(c.FormValue("password")) {
		a.loginLimiter.Record(ip)
		a.Log.WithField("ip", ip).Warn("failed admin login")
		return RenderStatus(c, http.StatusUnauthorized, a.Views.AdminLogin(true, CsrfToken(c)))
	}
	if err := setAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleAdminRefresh(c echo.Context) error {
	sess := dashboardSession(c)
	if p := c.FormValue("period"); p != "" {
		<-a.Dashboard.SetPeriod(c.Request().Context(), sess, analytics.ParsePeriod(p))
	} else {
		<-a.Dashboard.Refresh(c.Request().Context(), sess)
	}
	a.analyticsCache.Invalidate()
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleAdminMarkRead(c echo.Context) error {
	err := a.Dashboard.MarkRead(c.Request().Context(), dashboardSession(c), c.Param("id"))
	if errors.Is(err, inquiry.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleAdminChart(c echo.Context) error {
	vm := a.Dashboard.Snapshot()
	w := dashboard.NewWidgets(vm, dashboard.WidgetOptions{})
	var buf bytes.Buffer
	if err := w.Render(c.Param("name"), &buf); err != nil {
		if errors.Is(err, dashboard.ErrUnknownWidget) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (a *App) renderDashboard(c echo.Context) error {
	body := a.renderer.Dashboard(a.Dashboard.Snapshot(), CsrfToken(c))
	return Render(c, views.Layout(a.site(), views.PageMeta{Title: "Přehled", NoIndex: true}, body))
}
