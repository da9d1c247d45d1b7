package profile

import (
	"net/url"

	"github.com/jdholdren/porch/internal/backend"
)

// DefaultAvatarService generates placeholder avatars from a name.
const DefaultAvatarService = "https://ui-avatars.com/api/"

// AvatarURL is the session's picture when it has one. Otherwise it's a
// generated placeholder keyed on the name, then the email, then "User", so
// the same person always gets the same image.
func AvatarURL(service string, sess backend.Session) string {
	if sess.Picture != "" {
		return sess.Picture
	}

	key := "User"
	switch {
	case sess.Name != "":
		key = sess.Name
	case sess.Email != "":
		key = sess.Email
	}

	if service == "" {
		service = DefaultAvatarService
	}
	q := url.Values{}
	q.Set("name", key)
	q.Set("background", "E5E7EB")
	q.Set("color", "111827")

	return service + "?" + q.Encode()
}
