// internal/app/system/logincode/errors.go
package logincode

import (
	"errors"

	"github.com/dalemusser/stratauth/internal/app/system/normalize"
)

// Failure taxonomy for the login-code flow. The route layer branches on these
// with errors.Is and maps each to a user-facing message; none should crash the
// process.
var (
	// ErrInvalidEmail rejects empty or malformed addresses before any store
	// lookup. Aliased from normalize so either package's sentinel matches.
	ErrInvalidEmail = normalize.ErrInvalidEmail

	// ErrUserNotFound: registration is disallowed and no account exists for
	// the address, or an account disappeared between request and verify.
	ErrUserNotFound = errors.New("user not found")

	// ErrNoPendingCode: resend was asked for an email with nothing to resend.
	ErrNoPendingCode = errors.New("no pending login code")

	// ErrInvalidCode covers both a wrong code and a missing pending record.
	// The two are deliberately indistinguishable so a caller cannot probe
	// which emails have codes outstanding.
	ErrInvalidCode = errors.New("invalid login code")

	// ErrCodeExpired: the code matched but its expiry has passed. The record
	// is left in place; only a fresh request overwrites it.
	ErrCodeExpired = errors.New("login code expired")

	// ErrDelivery: the mail transport failed. The pending record remains
	// committed, so resend is the recovery path.
	ErrDelivery = errors.New("login code email delivery failed")

	// ErrFieldNotAllowed: a registration extra field is outside the
	// integrator-supplied allow-list.
	ErrFieldNotAllowed = errors.New("registration field not allowed")
)
