package views

import (
	"bytes"
	"context"
	"io"

	"github.com/a-h/templ"
)

// Layout wraps body in the shared HTML document shell.
func Layout(site SiteConfig, meta PageMeta, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		buf.WriteString(`<!DOCTYPE html><html lang="cs"><head><meta charset="utf-8"/>`)
		buf.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1"/>`)
		buf.WriteString("<title>")
		buf.WriteString(templ.EscapeString(pageTitle(site, meta)))
		buf.WriteString("</title>")
		desc := meta.Description
		if desc == "" {
			desc = site.Description
		}
		if desc != "" {
			buf.WriteString(`<meta name="description" content="`)
			buf.WriteString(templ.EscapeString(desc))
			buf.WriteString(`"/>`)
		}
		if meta.URL != "" {
			buf.WriteString(`<link rel="canonical" href="`)
			buf.WriteString(templ.EscapeString(meta.URL))
			buf.WriteString(`"/>`)
		}
		if meta.NoIndex {
			buf.WriteString(`<meta name="robots" content="noindex, nofollow"/>`)
		}
		buf.WriteString(`<link rel="stylesheet" href="/public/dashboard.css"/>`)
		buf.WriteString(`</head><body><header class="site-header"><a href="`)
		buf.WriteString(templ.EscapeString(buildURL(site.URL)))
		buf.WriteString(`">`)
		buf.WriteString(templ.EscapeString(site.Name))
		buf.WriteString(`</a></header><main>`)
		if body != nil {
			if err := body.Render(ctx, &buf); err != nil {
				return err
			}
		}
		buf.WriteString(`</main></body></html>`)
		_, err := w.Write(buf.Bytes())
		return err
	})
}
