package frost

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSecret is returned when a supplied secret scalar is zero or
	// not a canonical value below the group order.
	ErrInvalidSecret = errors.New("secret is zero or out of range")

	// ErrDuplicateParticipant is returned when the same signer identifier
	// shows up twice in a signing session.
	ErrDuplicateParticipant = errors.New("duplicate participant in session")

	// ErrRandomnessFailure is returned when the randomness source errors out
	// or keeps producing unusable values.
	ErrRandomnessFailure = errors.New("randomness source failure")
)

// InvalidShareError identifies the participant whose share failed its
// commitment check or its partial signature verification.
type InvalidShareError struct {
	SignerID int
	Reason   string
}

func (e InvalidShareError) Error() string {
	return fmt.Sprintf("invalid share for signer %d: %s", e.SignerID, e.Reason)
}
