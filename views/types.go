package views

// SiteConfig holds the site-wide values every page template needs.
type SiteConfig struct {
	Name        string // site name shown in titles (default "Montáže EPS")
	URL         string // canonical base URL
	Description string
}

// PageMeta carries per-page metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical URL, omitted when empty
	NoIndex     bool   // admin and error pages
}
