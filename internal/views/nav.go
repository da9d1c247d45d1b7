package views

import (
	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	h "maragu.dev/gomponents/html"

	"github.com/jdholdren/porch/internal/backend"
	"github.com/jdholdren/porch/internal/session"
)

const NavFragmentPath = "/_/nav"

// Nav is the bar on every page. Profile and Logout only show up once the
// session has resolved as authenticated.
func Nav(st session.State, logout backend.Redirect) g.Node {
	return h.Nav(
		h.ID("nav"),
		h.Class("nav"),
		g.If(!st.Resolved(), g.Group{
			hx.Get(NavFragmentPath),
			hx.Trigger("load"),
			hx.Swap("outerHTML"),
		}),
		h.Div(h.Class("brand"), g.Text("porch")),
		h.Div(
			h.Class("nav-links"),
			h.Div(h.Class("nav-item"), h.A(h.Href("/"), h.Class("btn link"), g.Text("Home"))),
			g.If(st.Authenticated(), g.Group{
				h.Div(h.Class("nav-item"), h.A(h.Href("/profile"), h.Class("btn link"), g.Text("Profile"))),
				h.Div(h.Class("nav-item"), h.A(h.Href(logout.URL), h.Class("logout"), g.Text("Logout"))),
			}),
		),
	)
}
