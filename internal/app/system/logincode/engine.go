// internal/app/system/logincode/engine.go
package logincode

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/stratauth/internal/app/store/logincodes"
	"github.com/dalemusser/stratauth/internal/app/system/mailer"
	"github.com/dalemusser/stratauth/internal/app/system/normalize"
	"github.com/dalemusser/stratauth/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Collaborator interfaces                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// UserStore is the user persistence surface the engine consumes.
// Lookups return mongo.ErrNoDocuments when no user exists.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Create(ctx context.Context, u models.User) (models.User, error)
}

// CodeStore is the pending-code persistence surface the engine consumes.
// Its Upsert must be atomic per email; that is the only cross-request
// serialization the flow relies on.
type CodeStore interface {
	Upsert(ctx context.Context, rec logincodes.PendingLoginCode) (*logincodes.PendingLoginCode, error)
	GetByEmail(ctx context.Context, email string) (*logincodes.PendingLoginCode, error)
	GetByEmailAndCode(ctx context.Context, email, code string) (*logincodes.PendingLoginCode, error)
	Delete(ctx context.Context, email string) error
}

// MailSender dispatches a single outbound email.
type MailSender interface {
	Send(email mailer.Email) error
}

// ExtraField is one (key, value) registration attribute. Callers pass them
// as a slice so the pending record preserves the order they were supplied in.
type ExtraField = logincodes.ExtraField

/*─────────────────────────────────────────────────────────────────────────────*
| Engine                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// Config holds the tunable policy for the engine.
type Config struct {
	SiteName string // used in the email body
	Digits   int    // code length (default 6)

	CodeTTL time.Duration // code lifetime from request (default 24h)

	// SingleUse deletes the pending record after a successful verify.
	// Off by default: a code stays verifiable until it expires or a new
	// request overwrites it.
	SingleUse bool

	// RegisterFields is the allow-list of extra registration field keys a
	// caller may supply. Anything outside the list fails the request.
	RegisterFields []string
}

// Engine orchestrates the request/resend/verify login-code flow.
//
// It is stateless between calls: every operation is a short-lived unit of
// work whose only shared resource is the pending-code record, and that
// record's consistency is delegated to the store's atomic upsert. Construct
// with New and share freely across goroutines.
type Engine struct {
	users  UserStore
	codes  CodeStore
	mail   MailSender
	cfg    Config
	now    func() time.Time
	logger *zap.Logger
}

// New creates an Engine with the given collaborators and policy.
func New(users UserStore, codes CodeStore, mail MailSender, cfg Config, logger *zap.Logger) *Engine {
	if cfg.Digits <= 0 {
		cfg.Digits = 6
	}
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = 24 * time.Hour
	}
	return &Engine{
		users:  users,
		codes:  codes,
		mail:   mail,
		cfg:    cfg,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock overrides the engine's time source. Intended for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// RequestResult reports the outcome of RequestCode.
type RequestResult struct {
	// Email is the canonical address the code was issued for.
	Email string
	// Code is the issued code. It is returned so server-side callers can
	// exercise the flow end to end; the route layer must never echo it to
	// the client.
	Code string
	// WillRegister is true when no account exists yet and completing the
	// challenge will create one.
	WillRegister bool
}

// RequestCode validates the address, issues a fresh code, overwrites any
// prior pending code for the email, and dispatches the email.
//
// A concurrent second request for the same email cannot leave two valid
// codes: the store upsert replaces the record atomically and the last writer
// wins. If mail dispatch fails the committed record survives and the call
// returns ErrDelivery; the caller recovers with ResendCode.
func (e *Engine) RequestCode(ctx context.Context, email string, allowRegistration bool, extra []ExtraField) (RequestResult, error) {
	canonical, err := normalize.EmailAddress(email)
	if err != nil {
		return RequestResult{}, err
	}

	if err := e.checkExtraFields(extra); err != nil {
		return RequestResult{}, err
	}

	willRegister := false
	if _, err := e.users.GetByEmail(ctx, canonical); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return RequestResult{}, fmt.Errorf("user lookup: %w", err)
		}
		if !allowRegistration {
			return RequestResult{}, ErrUserNotFound
		}
		willRegister = true
	}

	code, err := generateCode(e.cfg.Digits)
	if err != nil {
		return RequestResult{}, err
	}

	now := e.now()
	rec := logincodes.PendingLoginCode{
		Email:             canonical,
		Code:              code,
		ExpiresAt:         now.Add(e.cfg.CodeTTL),
		AllowRegistration: allowRegistration,
		ExtraFields:       extra,
		CreatedAt:         now,
	}
	if _, err := e.codes.Upsert(ctx, rec); err != nil {
		return RequestResult{}, fmt.Errorf("store login code: %w", err)
	}

	result := RequestResult{Email: canonical, Code: code, WillRegister: willRegister}

	e.logger.Info("login code issued",
		zap.String("email", canonical),
		zap.Bool("will_register", willRegister))

	if err := e.sendCode(canonical, code); err != nil {
		// The record is committed; only this notification attempt failed.
		return result, err
	}
	return result, nil
}

// ResendCode re-sends the existing code for an email without rotating the
// code or touching its expiry. An expired code is still resendable; expiry
// is only checked at verification.
func (e *Engine) ResendCode(ctx context.Context, email string) error {
	canonical, err := normalize.EmailAddress(email)
	if err != nil {
		return err
	}

	rec, err := e.codes.GetByEmail(ctx, canonical)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNoPendingCode
		}
		return fmt.Errorf("pending code lookup: %w", err)
	}

	e.logger.Info("login code resent", zap.String("email", canonical))
	return e.sendCode(canonical, rec.Code)
}

// VerifyCode checks the submitted code against the pending record and
// resolves the user, creating one when the record allows registration and no
// account exists yet.
//
// Lookup matches (email, code) as a pair, so a wrong code and a missing
// record both come back as ErrInvalidCode. Verification never mutates the
// pending record unless single-use mode is on, in which case a successful
// verify deletes it.
func (e *Engine) VerifyCode(ctx context.Context, email, code string) (*models.User, error) {
	canonical, err := normalize.EmailAddress(email)
	if err != nil {
		return nil, err
	}
	code = normalize.Code(code)
	if code == "" {
		return nil, ErrInvalidCode
	}

	rec, err := e.codes.GetByEmailAndCode(ctx, canonical, code)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			e.logger.Info("login code rejected", zap.String("email", canonical))
			return nil, ErrInvalidCode
		}
		return nil, fmt.Errorf("pending code lookup: %w", err)
	}

	if rec.ExpiresAt.Before(e.now()) {
		e.logger.Info("login code expired at verify", zap.String("email", canonical))
		return nil, ErrCodeExpired
	}

	user, err := e.users.GetByEmail(ctx, canonical)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user lookup: %w", err)
		}
		if !rec.AllowRegistration {
			// The account vanished between request and verify. Hard failure;
			// registration only happens on the branch marked allowed at
			// request time.
			return nil, ErrUserNotFound
		}
		created, err := e.users.Create(ctx, models.User{
			Email: canonical,
			Extra: extraToMap(rec.ExtraFields),
		})
		if err != nil {
			return nil, fmt.Errorf("register user: %w", err)
		}
		user = &created
		e.logger.Info("user registered via login code",
			zap.String("email", canonical),
			zap.String("user_id", created.ID.Hex()))
	}

	if e.cfg.SingleUse {
		if err := e.codes.Delete(ctx, canonical); err != nil {
			e.logger.Warn("failed to delete consumed login code",
				zap.String("email", canonical),
				zap.Error(err))
		}
	}

	e.logger.Info("login code verified",
		zap.String("email", canonical),
		zap.String("user_id", user.ID.Hex()))
	return user, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// checkExtraFields rejects any registration field key outside the allow-list.
func (e *Engine) checkExtraFields(extra []ExtraField) error {
	if len(extra) == 0 {
		return nil
	}
	allowed := make(map[string]struct{}, len(e.cfg.RegisterFields))
	for _, k := range e.cfg.RegisterFields {
		allowed[k] = struct{}{}
	}
	for _, f := range extra {
		if _, ok := allowed[f.Key]; !ok {
			return fmt.Errorf("%w: %q", ErrFieldNotAllowed, f.Key)
		}
	}
	return nil
}

// extraToMap flattens the ordered pairs onto the user document's attribute
// bag, where lookup is by key and order no longer matters.
func extraToMap(extra []ExtraField) map[string]string {
	if len(extra) == 0 {
		return nil
	}
	m := make(map[string]string, len(extra))
	for _, f := range extra {
		m[f.Key] = f.Value
	}
	return m
}

func (e *Engine) sendCode(email, code string) error {
	textBody, htmlBody := mailer.LoginCodeEmail(mailer.LoginCodeEmailData{
		SiteName:    e.cfg.SiteName,
		Code:        code,
		ExpiryHours: int(e.cfg.CodeTTL.Hours()),
	})
	if err := e.mail.Send(mailer.Email{
		To:       email,
		Subject:  "Your login code",
		TextBody: textBody,
		HTMLBody: htmlBody,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

// generateCode generates a random numeric code of the specified length.
// Leading zeros are allowed; each digit is drawn independently.
func generateCode(length int) (string, error) {
	const digits = "0123456789"
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = digits[b[i]%10]
	}
	return string(b), nil
}
