// Package views renders the few HTML pages the site serves itself: the
// admin dashboard and the error pages.
package views

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/studio/blog"
	"github.com/eringen/studio/ledger"
)

const styles = `body{font-family:system-ui,sans-serif;max-width:960px;margin:2rem auto;padding:0 1rem;color:#1c1917}
table{border-collapse:collapse;width:100%;margin:1rem 0}th,td{border-bottom:1px solid #e7e5e4;padding:.4rem;text-align:left;font-size:14px}
.muted{color:#78716c}.error{color:#b91c1c}.pill{display:inline-block;padding:0 .5rem;border:1px solid #1c1917;border-radius:4px;font-size:11px;text-transform:uppercase}
form.inline{display:inline}`

// page writes a complete document around body.
func page(title string, body func(*bytes.Buffer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		buf.WriteString(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
		buf.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		fmt.Fprintf(&buf, "<title>%s</title><style>%s</style></head><body>", esc(title), styles)
		body(&buf)
		buf.WriteString("</body></html>")
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func esc(s string) string { return html.EscapeString(s) }

func NotFound() templ.Component {
	return page("Not found", func(b *bytes.Buffer) {
		b.WriteString(`<h1>Page not found</h1><p class="muted">The page you were looking for does not exist.</p><p><a href="/">Back home</a></p>`)
	})
}

func ServerError() templ.Component {
	return page("Server error", func(b *bytes.Buffer) {
		b.WriteString(`<h1>Something went wrong</h1><p class="muted">Please try again in a moment.</p>`)
	})
}

func csrfField(b *bytes.Buffer, token string) {
	fmt.Fprintf(b, `<input type="hidden" name="_csrf" value="%s">`, esc(token))
}

// AdminLogin is the password form shown to anonymous visitors of /admin/.
func AdminLogin(showError bool, csrfToken string) templ.Component {
	return page("Admin login", func(b *bytes.Buffer) {
		b.WriteString(`<h1>Admin</h1>`)
		if showError {
			b.WriteString(`<p class="error">Invalid password.</p>`)
		}
		b.WriteString(`<form method="post" action="/admin/login/">`)
		csrfField(b, csrfToken)
		b.WriteString(`<label>Password <input type="password" name="password" autofocus required></label> <button type="submit">Log in</button></form>`)
	})
}

// CategoryCount is one row of the image summary.
type CategoryCount struct {
	Label string
	Dir   string
	Count int
}

// Dashboard is everything the admin page shows.
type Dashboard struct {
	SiteName  string
	Message   string
	CSRFToken string
	Posts     []blog.Post
	Images    []CategoryCount
	Cleanup   []ledger.Entry
}

func AdminDashboard(d Dashboard) templ.Component {
	return page(d.SiteName+" admin", func(b *bytes.Buffer) {
		fmt.Fprintf(b, `<h1>%s admin</h1>`, esc(d.SiteName))
		b.WriteString(`<form class="inline" method="post" action="/admin/logout/">`)
		csrfField(b, d.CSRFToken)
		b.WriteString(`<button type="submit">Log out</button></form>`)
		if d.Message != "" {
			fmt.Fprintf(b, `<p class="muted">%s</p>`, esc(d.Message))
		}

		fmt.Fprintf(b, `<h2>Posts (%d)</h2>`, len(d.Posts))
		if len(d.Posts) == 0 {
			b.WriteString(`<p class="muted">No posts yet.</p>`)
		} else {
			b.WriteString(`<table><thead><tr><th>Title</th><th>Category</th><th>Status</th><th>Updated</th><th>File</th></tr></thead><tbody>`)
			for _, p := range d.Posts {
				fmt.Fprintf(b, `<tr><td><a href="/api/blogs/%s?fresh">%s</a></td><td>%s</td><td><span class="pill">%s</span></td><td>%s</td><td class="muted">%s</td></tr>`,
					esc(p.Slug), esc(p.Title), esc(p.Category), esc(string(p.Status)),
					esc(p.UpdatedAt.Format("2006-01-02 15:04")), esc(p.MetadataFile))
			}
			b.WriteString(`</tbody></table>`)
		}

		b.WriteString(`<h2>Images</h2><table><thead><tr><th>Category</th><th>Directory</th><th>Files</th></tr></thead><tbody>`)
		for _, c := range d.Images {
			fmt.Fprintf(b, `<tr><td>%s</td><td class="muted">%s</td><td>%d</td></tr>`, esc(c.Label), esc(c.Dir), c.Count)
		}
		b.WriteString(`</tbody></table>`)

		fmt.Fprintf(b, `<h2>Cleanup failures (%d open)</h2>`, len(d.Cleanup))
		if len(d.Cleanup) == 0 {
			b.WriteString(`<p class="muted">Nothing to clean up.</p>`)
			return
		}
		b.WriteString(`<table><thead><tr><th>When</th><th>Source</th><th>Step</th><th>Target</th><th>Error</th><th></th></tr></thead><tbody>`)
		for _, e := range d.Cleanup {
			fmt.Fprintf(b, `<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td class="error">%s</td><td>`,
				esc(e.CreatedAt.Format("2006-01-02 15:04")), esc(e.Source), esc(e.Op), esc(e.Target), esc(e.Err))
			fmt.Fprintf(b, `<form class="inline" method="post" action="/admin/cleanup/%s/resolve/">`, strconv.FormatInt(e.ID, 10))
			csrfField(b, d.CSRFToken)
			b.WriteString(`<button type="submit">Resolve</button></form></td></tr>`)
		}
		b.WriteString(`</tbody></table>`)
	})
}
