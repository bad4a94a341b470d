// Package montaze serves the Montáže EPS marketing site: static pages, the
// contact-form inquiry API, the analytics proxy and the admin dashboard.
//
// New builds an App from a SiteConfig; Setup wires storage, middleware and
// routes, and Start listens. Page templates can be replaced via ViewFuncs.
package montaze

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/eringen/montaze/analytics"
	"github.com/eringen/montaze/dashboard"
	"github.com/eringen/montaze/inquiry"
	"github.com/eringen/montaze/views"
)

// ViewFuncs holds the page components the handlers render. Unset fields
// fall back to the views package.
type ViewFuncs struct {
	AdminLogin  func(showError bool, csrfToken string) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// App is the central montaze application. It wires together the store,
// analytics client, dashboard synchronizer, handlers and middleware.
type App struct {
	Config    SiteConfig
	Echo      *echo.Echo
	Store     *inquiry.Store
	Dashboard *dashboard.Synchronizer
	Views     ViewFuncs
	Log       *logrus.Logger

	analyticsClient *analytics.Client
	analyticsCache  *analytics.ResponseCache
	analyticsSource dashboard.AnalyticsSource
	loaderOpts      []dashboard.LoaderOption
	renderer        dashboard.Renderer
	loginLimiter    *RateLimiter
	submitLimiter   *RateLimiter
	customRoutes    []func(*App)
	logCloser       io.Closer
	ready           bool
}

// New creates a new App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
	}
	a.Echo.HideBanner = true
	a.Views = ViewFuncs{
		AdminLogin: func(showError bool, csrfToken string) templ.Component {
			return views.AdminLogin(a.site(), showError, csrfToken)
		},
		NotFound:    func() templ.Component { return views.NotFound(a.site()) },
		ServerError: func() templ.Component { return views.ServerError(a.site()) },
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup opens the store and mounts middleware and routes without listening.
// It is called by Start and may be called directly to serve via a.Echo.
func (a *App) Setup() error {
	if a.ready {
		return nil
	}
	if a.Config.AdminPassword == "" {
		return errors.New("montaze: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return errors.New("montaze: SessionSecret is required")
	}

	if a.Log == nil {
		l, closer, err := NewLogger(a.Config)
		if err != nil {
			return err
		}
		a.Log, a.logCloser = l, closer
	}

	loc, err := time.LoadLocation(a.Config.TimeZone)
	if err != nil {
		a.Log.WithError(err).WithField("tz", a.Config.TimeZone).Warn("unknown time zone, using UTC")
		loc = time.UTC
	}
	a.renderer = dashboard.Renderer{Location: loc}

	store, err := inquiry.NewStore(a.Config.DatabasePath)
	if err != nil {
		a.releaseLog()
		return fmt.Errorf("montaze: init store: %w", err)
	}
	a.Store = store

	a.analyticsClient = analytics.NewClient(analytics.Config{
		Token:     a.Config.VercelToken,
		ProjectID: a.Config.VercelProjectID,
		TeamID:    a.Config.VercelTeamID,
		BaseURL:   a.Config.AnalyticsBaseURL,
	})
	a.analyticsCache = analytics.NewResponseCache(a.Config.AnalyticsCacheTTL)

	src := a.analyticsSource
	if src == nil && a.analyticsClient.Configured() {
		src = a.analyticsClient
	}
	a.Dashboard = dashboard.NewSynchronizer(
		dashboard.NewAnalyticsLoader(src, a.Log, a.loaderOpts...),
		dashboard.NewInquiryLoader(a.Store, a.Log),
		a.Log,
		dashboard.WithLoadTimeout(a.Config.LoadTimeout),
	)

	a.loginLimiter = NewRateLimiter(a.Config.LoginLimit, time.Minute)
	a.submitLimiter = NewRateLimiter(a.Config.SubmissionLimit, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}

	a.ready = true
	return nil
}

// releaseLog closes a log file opened by Setup after a failed start.
// Injected loggers are left alone.
func (a *App) releaseLog() {
	if a.logCloser == nil {
		return
	}
	_ = a.logCloser.Close()
	a.Log, a.logCloser = nil, nil
}

// Start sets the app up and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	a.Log.WithField("addr", a.Config.Addr).Info("listening")
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully and releases resources.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	return errors.Join(err, a.Close())
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Embedded dashboard assets, ahead of the user's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	e.GET("/public/dashboard.css", echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(embeddedFS)))))

	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)

	// JSON API
	analytics.NewHandler(a.analyticsClient, a.analyticsCache, a.Log).
		RegisterRoutes(e, apiCORS("GET, OPTIONS", "Content-Type, Authorization"))
	e.Any("/api/inquiry", a.handleInquirySubmit, apiCORS("POST, OPTIONS", "Content-Type"))
	e.Any("/api/inquiries", a.handleInquiries, apiCORS("GET, PATCH, OPTIONS", "Content-Type, Authorization"), a.requireAPIToken)

	// Admin
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", handleAdminLogout)
	admin := e.Group("/admin", requireAdmin)
	admin.POST("/refresh/", a.handleAdminRefresh)
	admin.POST("/inquiries/:id/read/", a.handleAdminMarkRead)
	admin.GET("/charts/:name/", a.handleAdminChart)

	// Public site
	e.Static("/", a.Config.StaticDir)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	var errs []error
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.submitLimiter != nil {
		a.submitLimiter.Stop()
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.logCloser != nil {
		errs = append(errs, a.logCloser.Close())
	}
	return errors.Join(errs...)
}
