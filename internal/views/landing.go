package views

import (
	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	h "maragu.dev/gomponents/html"

	"github.com/jdholdren/porch/internal/backend"
	"github.com/jdholdren/porch/internal/session"
)

const LandingFragmentPath = "/_/landing"

// ProviderLink is a sign-in button. The link is a plain navigation; the
// backend and the provider do all the checking.
type ProviderLink struct {
	Provider backend.Provider
	Redirect backend.Redirect
}

// Landing is the welcome card around the session-dependent status.
// loggedOut shows the one-time notice for a session the backend just ended.
func Landing(loggedOut bool, status g.Node) g.Node {
	return g.Group{
		h.Span(h.Class("eyebrow"), g.Text("Secure OAuth 2.0")),
		h.H1(h.Class("title"), g.Text("Welcome")),
		h.P(h.Class("muted"), g.Text("Sign in using a provider below to continue.")),
		g.If(loggedOut, notice("success", "Logged out successfully.")),
		status,
	}
}

// LandingStatus is the part of the landing page that depends on the session.
func LandingStatus(st session.State, providers []ProviderLink) g.Node {
	switch st.Status {
	case session.Authenticated:
		return h.Div(
			h.ID("landing-status"),
			h.Class("notice success"),
			g.Text("Logged in as "),
			h.Strong(g.Text(st.Session.Email)),
			g.Text(". Go to your "),
			h.A(h.Href("/profile"), g.Text("profile")),
			g.Text("."),
		)
	case session.Unauthenticated:
		return h.Div(
			h.ID("landing-status"),
			h.Class("providers"),
			g.Map(providers, func(p ProviderLink) g.Node {
				return h.A(
					h.Href(p.Redirect.URL),
					h.Class("btn provider provider-"+string(p.Provider)),
					g.Text("Continue with "+p.Provider.Label()),
				)
			}),
		)
	default:
		return h.Div(
			h.ID("landing-status"),
			h.Class("hint"),
			hx.Get(LandingFragmentPath),
			hx.Trigger("load"),
			hx.Swap("outerHTML"),
			g.Text("Checking session…"),
		)
	}
}
