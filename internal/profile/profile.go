// Package profile holds the per-mount state of the profile page: the session
// it loaded, the draft being edited, and the outcome of the last save.
package profile

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/jdholdren/porch/internal/backend"
	"github.com/jdholdren/porch/internal/session"
)

type Phase uint8

const (
	PhaseLoading Phase = iota
	PhaseUnauthenticated
	PhaseEditing
	PhaseSaving
)

func (p Phase) String() string {
	switch p {
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseEditing:
		return "editing"
	case PhaseSaving:
		return "saving"
	default:
		return "loading"
	}
}

type NoticeKind uint8

const (
	NoticeOK NoticeKind = iota
	NoticeError
)

// Notice is the outcome of the last save. Gone as soon as another save starts.
type Notice struct {
	Kind NoticeKind
	Text string
}

const (
	savedText      = "Saved successfully."
	saveFailedText = "Save failed. Please try again."
)

type Draft = backend.Draft

var (
	// ErrSaveInFlight is returned for a submit while another is still running.
	ErrSaveInFlight = errors.New("save already in flight")
	// ErrNotEditing is returned for a submit before the mount has loaded an
	// authenticated session.
	ErrNotEditing = errors.New("profile is not editable")
)

// Saver persists a draft.
type Saver interface {
	SaveProfile(ctx context.Context, creds backend.Credentials, d Draft) (backend.ProfileUpdate, error)
}

// Snapshot is a consistent copy of a view's state for rendering.
type Snapshot struct {
	ID      string
	Phase   Phase
	Session backend.Session
	Draft   Draft
	Notice  *Notice
}

// Editable reports whether the form may be shown at all.
func (s Snapshot) Editable() bool {
	return s.Phase == PhaseEditing || s.Phase == PhaseSaving
}

// View is one mount of the profile page.
type View struct {
	ID string

	holder session.Holder

	mu     sync.Mutex
	phase  Phase
	sess   backend.Session
	draft  Draft
	notice *Notice

	// Set when a load resolves signed out while a save is running. The save
	// finishing ends the edit instead of returning to it.
	signedOut bool
}

func NewView(id string) *View {
	return &View{ID: id}
}

func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.snapshot()
}

func (v *View) snapshot() Snapshot {
	snap := Snapshot{
		ID:      v.ID,
		Phase:   v.phase,
		Session: v.sess,
		Draft:   v.draft,
	}
	if v.notice != nil {
		n := *v.notice
		snap.Notice = &n
	}

	return snap
}

// Load fetches the session and seeds the draft from it. If several loads
// overlap, the one started last decides the state; earlier ones are dropped.
//
// A load that lands while a save is in flight leaves the draft alone. If it
// says the session is gone, the view drops to signed out once the save returns.
func (v *View) Load(ctx context.Context, f session.Fetcher, creds backend.Credentials) Snapshot {
	v.holder.Fetch(ctx, f, creds, func(st session.State) {
		v.mu.Lock()
		defer v.mu.Unlock()

		if v.phase == PhaseSaving {
			v.signedOut = !st.Authenticated()
			return
		}

		v.notice = nil
		if !st.Authenticated() {
			v.signOut()
			return
		}

		v.phase = PhaseEditing
		v.sess = st.Session
		v.draft = Draft{DisplayName: st.Session.Name, Bio: st.Session.Bio}
	})

	return v.Snapshot()
}

// Restore puts back a draft that was typed against a mount that has since
// been dropped. Nothing was saved, so it's marked as a failed save for the
// user to retry. Views that aren't editable are left as they are.
func (v *View) Restore(d Draft) Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.phase != PhaseEditing {
		return v.snapshot()
	}
	v.draft = d
	v.notice = &Notice{Kind: NoticeError, Text: saveFailedText}

	return v.snapshot()
}

// Submit saves d. Only one save runs per view at a time; a submit that
// arrives while one is running gets [ErrSaveInFlight] and sends nothing.
//
// A failed save is not an error here: it shows up as an error notice and the
// draft stays exactly as submitted.
func (v *View) Submit(ctx context.Context, s Saver, creds backend.Credentials, d Draft) (Snapshot, error) {
	v.mu.Lock()
	switch v.phase {
	case PhaseEditing:
	case PhaseSaving:
		snap := v.snapshot()
		v.mu.Unlock()
		return snap, ErrSaveInFlight
	default:
		snap := v.snapshot()
		v.mu.Unlock()
		return snap, ErrNotEditing
	}
	v.phase = PhaseSaving
	v.notice = nil
	v.draft = d
	v.mu.Unlock()

	upd, err := s.SaveProfile(ctx, creds, d)

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.signedOut {
		slog.InfoContext(ctx, "session ended while saving", "save_err", err)
		v.notice = nil
		v.signOut()
		return v.snapshot(), nil
	}

	v.phase = PhaseEditing
	if err != nil {
		slog.WarnContext(ctx, "profile save failed", "err", err)
		v.notice = &Notice{Kind: NoticeError, Text: saveFailedText}
		return v.snapshot(), nil
	}

	name := d.DisplayName
	if upd.DisplayName != nil {
		name = *upd.DisplayName
	}
	bio := d.Bio
	if upd.Bio != nil {
		bio = *upd.Bio
	}
	v.sess.Name = name
	v.sess.Bio = bio
	v.draft = Draft{DisplayName: name, Bio: bio}
	v.notice = &Notice{Kind: NoticeOK, Text: savedText}

	return v.snapshot(), nil
}

// Callers hold v.mu.
func (v *View) signOut() {
	v.phase = PhaseUnauthenticated
	v.sess = backend.Session{}
	v.draft = Draft{}
	v.signedOut = false
}
