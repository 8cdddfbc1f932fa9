package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrConnectionUnavailable wraps transport failures: the server could not
	// be reached or did not answer. Callers back off and retry.
	ErrConnectionUnavailable = errors.New("server unavailable")

	// ErrSessionNotFound matches a state request for a game the server no
	// longer knows about.
	ErrSessionNotFound = errors.New("game not found")
)

// RejectedError is an application-level refusal carrying the server's message
type RejectedError struct {
	Status  int
	Message string

	notFound bool
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rejected by server (%d %s)", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("rejected by server: %s", e.Message)
}

// Is lets errors.Is(err, ErrSessionNotFound) match state lookups for a
// missing game.
func (e *RejectedError) Is(target error) bool {
	return target == ErrSessionNotFound && e.notFound
}

// IsUnavailable reports whether err is a transport failure
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrConnectionUnavailable)
}

// RejectionMessage extracts the server message from err, if it is a rejection
func RejectionMessage(err error) (string, bool) {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected.Message, true
	}
	return "", false
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrConnectionUnavailable, err)
}
