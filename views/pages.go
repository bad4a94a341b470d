package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

func fragment(html string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, html)
		return err
	})
}

// AdminLogin renders the password form. showError adds the failed-login notice.
func AdminLogin(site SiteConfig, showError bool, csrfToken string) templ.Component {
	body := `<section class="login"><h1>Přihlášení</h1>`
	if showError {
		body += `<p class="error" role="alert">Nesprávné heslo.</p>`
	}
	body += `<form method="post" action="/admin/login/">` + CSRFField(csrfToken) +
		`<label for="password">Heslo</label>` +
		`<input id="password" type="password" name="password" autocomplete="current-password" required/>` +
		`<button type="submit">Přihlásit</button></form></section>`
	return Layout(site, PageMeta{Title: "Administrace", NoIndex: true}, fragment(body))
}

// NotFound renders the 404 page.
func NotFound(site SiteConfig) templ.Component {
	return Layout(site, PageMeta{Title: "Stránka nenalezena", NoIndex: true},
		fragment(`<section class="error-page"><h1>404</h1><p>Stránka nebyla nalezena.</p><a href="/">Zpět na úvod</a></section>`))
}

// ServerError renders the 5xx page.
func ServerError(site SiteConfig) templ.Component {
	return Layout(site, PageMeta{Title: "Chyba serveru", NoIndex: true},
		fragment(`<section class="error-page"><h1>500</h1><p>Něco se pokazilo. Zkuste to prosím později.</p></section>`))
}
