// Package views renders porch's pages and fragments.
//
// Every view is a pure function of the state it's handed. A view in its
// loading state carries the htmx attributes that fetch its resolved form,
// so the page shell is just each view rendered as loading.
package views

import (
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

// DefaultHTMXSrc is where htmx is loaded from unless configured otherwise.
const DefaultHTMXSrc = "https://unpkg.com/htmx.org@1.9.12"

// Page is a full document around a view.
type Page struct {
	Title   string
	HTMXSrc string
	Nav     g.Node
	Body    g.Node
}

func (p Page) Render() g.Node {
	src := p.HTMXSrc
	if src == "" {
		src = DefaultHTMXSrc
	}

	return h.Doctype(
		h.HTML(
			h.Lang("en"),
			h.Head(
				h.Meta(h.Charset("utf-8")),
				h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1")),
				g.El("title", g.Text(p.Title)),
				h.Script(h.Src(src)),
			),
			h.Body(
				p.Nav,
				h.Main(
					h.Class("page"),
					h.Div(
						h.Class("card"),
						p.Body,
					),
				),
			),
		),
	)
}

func notice(kind, text string) g.Node {
	return h.Div(h.Class("notice "+kind), g.Text(text))
}
