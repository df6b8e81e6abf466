package store

import "errors"

// Sentinel errors for the domain failure taxonomy. Storage failures are not
// wrapped in a sentinel; they propagate as the underlying gorm error and are
// fatal to the operation, not to the process.
var (
	// ErrValidation marks unparsable boundary input (dates, times, state
	// labels). Surfaced to the caller as a user-facing message.
	ErrValidation = errors.New("invalid input")

	// ErrConflict marks a double-booking attempt: either the doctor slot is
	// taken or the patient already holds an active appointment that day.
	// Callers are expected to refresh available slots and retry.
	ErrConflict = errors.New("appointment conflict")

	// ErrInvalidCredentials is returned for both unknown usernames and wrong
	// passwords. The two cases are deliberately indistinguishable so that
	// login failures cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrDuplicateIdentity is returned when a registration reuses a
	// national id or username.
	ErrDuplicateIdentity = errors.New("national id or username already registered")
)
