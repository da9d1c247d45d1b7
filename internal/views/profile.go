package views

import (
	"net/url"

	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	h "maragu.dev/gomponents/html"

	"github.com/jdholdren/porch/internal/profile"
)

const ProfileFragmentPath = "/_/profile"

// ProfileData is everything the profile view needs for one render.
type ProfileData struct {
	Snapshot profile.Snapshot
	Token    string // Signed mount id, echoed back on every fragment request
	Avatar   string
}

// Profile renders a profile mount in whatever phase it's in. The form is only
// ever rendered for an editable snapshot.
func Profile(d ProfileData) g.Node {
	snap := d.Snapshot

	switch {
	case snap.Phase == profile.PhaseLoading:
		return h.Div(
			h.ID("profile"),
			hx.Get(ProfileFragmentPath+"?"+url.Values{"mount": {d.Token}}.Encode()),
			hx.Trigger("load"),
			hx.Swap("outerHTML"),
			g.Text("Loading…"),
		)
	case !snap.Editable():
		return h.Div(
			h.ID("profile"),
			h.Div(h.Class("eyebrow"), g.Text("Profile")),
			h.H1(h.Class("title"), g.Text("My Profile")),
			h.P(h.Class("muted"), g.Text("You're not signed in.")),
			h.P(
				h.Class("muted"),
				g.Text("Go back to "),
				h.A(h.Href("/"), g.Text("Home")),
				g.Text(" and continue with Google or GitHub."),
			),
		)
	}

	saving := snap.Phase == profile.PhaseSaving
	buttonText := "Save Changes"
	if saving {
		buttonText = "Saving..."
	}

	return h.Div(
		h.ID("profile"),
		h.H1(h.Class("title"), g.Text("My Profile")),
		h.Div(
			h.Class("profile-container"),
			h.Div(
				h.Class("profile-left"),
				h.Img(h.Class("avatar"), h.Src(d.Avatar), h.Alt("avatar")),
				h.Div(h.Class("meta"), h.Strong(g.Text("Email")), g.Text(snap.Session.Email)),
			),
			h.Div(
				h.Class("profile-right"),
				h.Form(
					h.Class("form"),
					hx.Post(ProfileFragmentPath),
					hx.Target("#profile"),
					hx.Swap("outerHTML"),
					// A second submit while one is in flight is dropped by the browser
					g.Attr("hx-sync", "this:drop"),
					h.Input(h.Type("hidden"), h.Name("mount"), h.Value(d.Token)),
					h.Div(
						h.Class("form-grid"),
						h.Div(
							h.Class("form-group"),
							h.Label(h.For("displayName"), g.Text("Display Name")),
							h.Input(
								h.ID("displayName"),
								h.Name("displayName"),
								h.Value(snap.Draft.DisplayName),
								h.Placeholder("Your display name"),
							),
						),
						h.Div(
							h.Class("form-group full-width"),
							h.Label(h.For("bio"), g.Text("Bio")),
							h.Textarea(
								h.ID("bio"),
								h.Name("bio"),
								h.Placeholder("Tell something about yourself..."),
								g.Text(snap.Draft.Bio),
							),
						),
					),
					h.Div(
						h.Class("form-actions"),
						h.Button(
							h.Class("btn primary"),
							h.Type("submit"),
							g.If(saving, h.Disabled()),
							g.Text(buttonText),
						),
					),
				),
				noticeFor(snap.Notice),
			),
		),
	)
}

func noticeFor(n *profile.Notice) g.Node {
	if n == nil {
		return nil
	}
	if n.Kind == profile.NoticeOK {
		return notice("success", n.Text)
	}

	return notice("error", n.Text)
}
