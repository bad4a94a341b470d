package views

import (
	"net/url"
	"path"
	"strings"

	"github.com/a-h/templ"
)

// buildURL joins path segments onto a base URL, ensuring a trailing slash.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// PathEscape wraps url.PathEscape for use in component attributes.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

// CSRFField returns the hidden form input carrying the CSRF token.
func CSRFField(token string) string {
	return `<input type="hidden" name="_csrf" value="` + templ.EscapeString(token) + `"/>`
}

func pageTitle(site SiteConfig, meta PageMeta) string {
	if meta.Title == "" {
		return site.Name
	}
	return meta.Title + " | " + site.Name
}
