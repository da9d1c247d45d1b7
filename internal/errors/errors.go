package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies failures coming back from the remote backend so that views
// can decide how to degrade.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindNetwork is a failed session fetch: transport error or non-success
	// status. Views treat it as "signed out" and never show it.
	KindNetwork
	// KindSave is a failed profile save. It is shown to the user and never
	// touches the draft they typed.
	KindSave
	// KindInvalid is a malformed request against porch itself.
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindSave:
		return "save"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Error represents a universal error type between the frontend and its handlers.
type Error struct {
	Status  int
	Kind    Kind
	Err     error // The error this wraps
	Details []Detail
}

type Detail struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

func (e *Error) Error() string {
	msg := http.StatusText(e.Status)
	if e.Err != nil {
		msg = e.Err.Error()
	}

	if len(e.Details) == 0 {
		return fmt.Sprintf("%d (%s): %s", e.Status, e.Kind, msg)
	}
	return fmt.Sprintf("%d (%s): %s, details: %v", e.Status, e.Kind, msg, e.Details)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type transport struct {
	Message string   `json:"message"`
	Kind    string   `json:"kind"`
	Details []Detail `json:"details"`
	Status  int      `json:"status"`
}

func (e *Error) MarshalJSON() ([]byte, error) {
	var msg string
	if e.Err != nil {
		msg = e.Err.Error()
	}

	return json.Marshal(transport{
		Message: msg,
		Kind:    e.Kind.String(),
		Details: e.Details,
		Status:  e.Status,
	})
}

// E builds an [Error] out of whatever it's handed: strings and errors become
// the wrapped error, ints the HTTP status, a [Kind] the classification, and
// details are appended.
func E(args ...any) *Error {
	ret := &Error{
		Status:  http.StatusInternalServerError,
		Kind:    KindUnknown,
		Err:     nil,
		Details: nil,
	}

	for _, arg := range args {
		switch arg := arg.(type) {
		case string:
			ret.Err = errors.New(arg)
		case error:
			ret.Err = arg
		case int:
			ret.Status = arg
		case Kind:
			ret.Kind = arg
		case Detail:
			ret.Details = append(ret.Details, arg)
		case []Detail:
			ret.Details = append(ret.Details, arg...)
		}
	}

	return ret
}

// IsKind reports whether any [Error] in err's chain is of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	return e.Kind == k
}
