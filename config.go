package montaze

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eringen/montaze/dashboard"
)

// SiteConfig holds all configuration for a montaze site.
type SiteConfig struct {
	Name        string   // Site name (default "Montáže EPS")
	URL         string   // Canonical URL (default "http://localhost:3000")
	Description string   // Meta description
	Pages       []string // Public paths listed in the sitemap (default "/")

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path (default "data/inquiries.db")
	StaticDir    string // Public site files (default "public")
	TimeZone     string // Dashboard timestamps (default "Europe/Prague")

	AdminPassword string // Required: admin login password, plain or bcrypt hash
	SessionSecret string // Required: session encryption secret
	AdminAPIToken string // Bearer token for /api/inquiries; empty disables the endpoint
	CookieSecure  bool   // Set true for HTTPS

	VercelToken       string        // Analytics API token
	VercelProjectID   string        // Analytics project
	VercelTeamID      string        // Optional team scope
	AnalyticsBaseURL  string        // Upstream override (default Vercel)
	AnalyticsCacheTTL time.Duration // Proxy response cache (default 5min)
	LoadTimeout       time.Duration // Dashboard background load bound (default 15s)

	LoginLimit      int // Login attempts per IP per minute (default 5)
	SubmissionLimit int // Inquiry submissions per IP per minute (default 10)

	LogLevel      string // logrus level (default "info")
	LogFile       string // Rotated log file; stderr when empty
	LogMaxSizeMB  int    // default 20
	LogMaxBackups int    // default 10
	LogMaxAgeDays int    // default 30
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Montáže EPS"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.Pages = FilterEmpty(c.Pages)
	if len(c.Pages) == 0 {
		c.Pages = []string{"/"}
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/inquiries.db"
	}
	if c.StaticDir == "" {
		c.StaticDir = "public"
	}
	if c.TimeZone == "" {
		c.TimeZone = "Europe/Prague"
	}
	if c.AnalyticsCacheTTL == 0 {
		c.AnalyticsCacheTTL = 5 * time.Minute
	}
	if c.LoadTimeout == 0 {
		c.LoadTimeout = dashboard.DefaultLoadTimeout
	}
	if c.LoginLimit == 0 {
		c.LoginLimit = 5
	}
	if c.SubmissionLimit == 0 {
		c.SubmissionLimit = 10
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 20
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 10
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 30
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback runs after the built-in routes are mounted.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithLogger replaces the logger built from the config.
func WithLogger(l *logrus.Logger) Option {
	return func(a *App) {
		a.Log = l
	}
}

// WithViews overrides the default page components. Nil fields keep the defaults.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		if v.AdminLogin != nil {
			a.Views.AdminLogin = v.AdminLogin
		}
		if v.NotFound != nil {
			a.Views.NotFound = v.NotFound
		}
		if v.ServerError != nil {
			a.Views.ServerError = v.ServerError
		}
	}
}

// WithAnalyticsSource makes the dashboard read analytics from src instead of
// the configured upstream client. The /api/analytics proxy is unaffected.
func WithAnalyticsSource(src dashboard.AnalyticsSource) Option {
	return func(a *App) {
		a.analyticsSource = src
	}
}

// WithSyntheticSeed makes the dashboard's fallback traffic reproducible.
func WithSyntheticSeed(seed uint64) Option {
	return func(a *App) {
		a.loaderOpts = append(a.loaderOpts, dashboard.WithSeed(seed))
	}
}
