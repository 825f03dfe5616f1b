// internal/app/features/login/login.go
package login

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	errorsfeature "github.com/dalemusser/stratauth/internal/app/features/errors"
	"github.com/dalemusser/stratauth/internal/app/system/auth"
	"github.com/dalemusser/stratauth/internal/app/system/jsonutil"
	"github.com/dalemusser/stratauth/internal/app/system/logincode"
	"github.com/dalemusser/stratauth/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// CodeEngine is the slice of the login-code engine the handlers use.
type CodeEngine interface {
	RequestCode(ctx context.Context, email string, allowRegistration bool, extra []logincode.ExtraField) (logincode.RequestResult, error)
	ResendCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string) (*models.User, error)
}

// Handler provides login handlers.
type Handler struct {
	engine            CodeEngine
	sessionMgr        *auth.SessionManager
	errLog            *errorsfeature.ErrorLogger
	siteName          string
	allowRegistration bool
	registerFields    []string
	logger            *zap.Logger
}

// NewHandler creates a new login Handler.
// registerFields lists the extra form fields accepted during registration;
// anything else posted with the login form is ignored.
func NewHandler(
	engine CodeEngine,
	sessionMgr *auth.SessionManager,
	errLog *errorsfeature.ErrorLogger,
	siteName string,
	allowRegistration bool,
	registerFields []string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		engine:            engine,
		sessionMgr:        sessionMgr,
		errLog:            errLog,
		siteName:          siteName,
		allowRegistration: allowRegistration,
		registerFields:    registerFields,
		logger:            logger,
	}
}

// Routes returns a chi.Router with login routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.showLogin)
	r.Post("/", h.handleLogin)

	r.Get("/code", h.showCode)
	r.Post("/code", h.handleVerify)

	r.Post("/resend", h.handleResend)

	return r
}

// showLogin displays the email entry page.
func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.renderEmailPage(w, r, "", "")
}

// handleLogin requests a login code for the submitted address and moves the
// user to the code entry page. When the address is unknown and registration
// is enabled, the code doubles as a registration code.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.errLog.Log(r, "failed to parse form", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	email := r.FormValue("email")
	if email == "" {
		h.renderEmailPage(w, r, "Please enter your email address.", "")
		return
	}

	// Remember where the user was headed before login interrupted them.
	h.sessionMgr.SetRedirectIntent(w, r)

	// Only allow-listed registration fields pass through to the engine, in
	// the order the allow-list declares them.
	var extra []logincode.ExtraField
	for _, field := range h.registerFields {
		if v := r.FormValue(field); v != "" {
			extra = append(extra, logincode.ExtraField{Key: field, Value: v})
		}
	}

	res, err := h.engine.RequestCode(r.Context(), email, h.allowRegistration, extra)
	switch {
	case err == nil:
		http.Redirect(w, r, codePageURL(res.Email, ""), http.StatusSeeOther)
	case errors.Is(err, logincode.ErrInvalidEmail):
		h.renderEmailPage(w, r, "That doesn't look like an email address.", email)
	case errors.Is(err, logincode.ErrUserNotFound):
		h.renderEmailPage(w, r, "No account found for that address.", email)
	case errors.Is(err, logincode.ErrDelivery):
		// The code is committed; the user can recover with a resend.
		h.errLog.Log(r, "failed to send login code email", err)
		http.Redirect(w, r, codePageURL(res.Email, "send_failed"), http.StatusSeeOther)
	default:
		h.errLog.Log(r, "login code request failed", err)
		h.renderEmailPage(w, r, "Service temporarily unavailable. Please try again.", email)
	}
}

// showCode displays the code entry page.
func (h *Handler) showCode(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	errorMsg := ""
	if r.URL.Query().Get("error") == "send_failed" {
		errorMsg = "We couldn't send the email. Use the resend button to try again."
	}

	h.renderCodePage(w, r, codePageVM{
		Email:  email,
		Error:  errorMsg,
		Resent: r.URL.Query().Get("resent") == "1",
	})
}

// handleVerify checks the submitted code and completes login.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.errLog.Log(r, "failed to parse form", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	email := r.FormValue("email")
	code := r.FormValue("code")
	if email == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	user, err := h.engine.VerifyCode(r.Context(), email, code)
	switch {
	case err == nil:
		// Fall through to session creation below.
	case errors.Is(err, logincode.ErrInvalidCode):
		h.renderCodePage(w, r, codePageVM{
			Email: email,
			Error: "Invalid or expired verification code. Please try again.",
		})
		return
	case errors.Is(err, logincode.ErrCodeExpired):
		h.renderCodePage(w, r, codePageVM{
			Email: email,
			Error: "That code has expired. Go back and request a new one.",
		})
		return
	case errors.Is(err, logincode.ErrUserNotFound):
		h.renderEmailPage(w, r, "No account found for that address.", email)
		return
	default:
		h.errLog.Log(r, "code verification failed", err)
		h.renderCodePage(w, r, codePageVM{
			Email: email,
			Error: "Service temporarily unavailable. Please try again.",
		})
		return
	}

	if err := h.sessionMgr.CreateSession(w, r, user); err != nil {
		h.errLog.Log(r, "failed to create session", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("user logged in via login code",
		zap.String("user_id", user.ID.Hex()),
		zap.String("email", user.Email))

	target := h.sessionMgr.ConsumeRedirectIntent(w, r)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// handleResend resends the pending code without rotating it. Browser form
// posts get a redirect back to the code page; JSON clients get {"resent":true}.
func (h *Handler) handleResend(w http.ResponseWriter, r *http.Request) {
	email := ""
	if wantsJSON(r) {
		var input struct {
			Email string `json:"email"`
		}
		if err := jsonutil.Decode(r, &input); err != nil {
			jsonutil.BadRequest(w, "invalid request body")
			return
		}
		email = input.Email
	} else {
		if err := r.ParseForm(); err != nil {
			h.errLog.Log(r, "failed to parse form", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		email = r.FormValue("email")
	}

	err := h.engine.ResendCode(r.Context(), email)
	switch {
	case err == nil:
		if wantsJSON(r) {
			jsonutil.OK(w, map[string]bool{"resent": true})
			return
		}
		http.Redirect(w, r, codePageURL(email, "")+"&resent=1", http.StatusSeeOther)
	case errors.Is(err, logincode.ErrNoPendingCode), errors.Is(err, logincode.ErrInvalidEmail):
		if wantsJSON(r) {
			jsonutil.NotFound(w, "no pending login code")
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	case errors.Is(err, logincode.ErrDelivery):
		h.errLog.Log(r, "failed to resend login code email", err)
		if wantsJSON(r) {
			jsonutil.Error(w, http.StatusBadGateway, "failed to send email")
			return
		}
		http.Redirect(w, r, codePageURL(email, "send_failed"), http.StatusSeeOther)
	default:
		h.errLog.Log(r, "login code resend failed", err)
		if wantsJSON(r) {
			jsonutil.InternalError(w, "resend failed")
			return
		}
		http.Redirect(w, r, codePageURL(email, "send_failed"), http.StatusSeeOther)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Rendering helpers                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) renderEmailPage(w http.ResponseWriter, r *http.Request, errorMsg, email string) {
	action := "/login"
	if redirect := r.URL.Query().Get("redirect"); redirect != "" {
		action += "?redirect=" + url.QueryEscape(redirect)
	}

	vm := emailPageVM{
		SiteName:  h.siteName,
		Error:     errorMsg,
		Email:     email,
		Action:    action,
		CSRFField: csrf.TemplateField(r),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := emailPageTmpl.Execute(w, vm); err != nil {
		h.errLog.Log(r, "failed to render login page", err)
	}
}

func (h *Handler) renderCodePage(w http.ResponseWriter, r *http.Request, vm codePageVM) {
	vm.SiteName = h.siteName
	vm.CSRFField = csrf.TemplateField(r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := codePageTmpl.Execute(w, vm); err != nil {
		h.errLog.Log(r, "failed to render code page", err)
	}
}

func codePageURL(email, errorCode string) string {
	u := "/login/code?email=" + url.QueryEscape(email)
	if errorCode != "" {
		u += "&error=" + errorCode
	}
	return u
}

func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
