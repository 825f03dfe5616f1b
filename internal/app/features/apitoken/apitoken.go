// internal/app/features/apitoken/apitoken.go
package apitoken

import (
	"errors"
	"net/http"
	"strings"

	userstore "github.com/dalemusser/stratauth/internal/app/store/users"
	"github.com/dalemusser/stratauth/internal/app/system/auth"
	"github.com/dalemusser/stratauth/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler issues bearer tokens to signed-in users and serves the
// token-authenticated account endpoints.
type Handler struct {
	tokens *auth.TokenManager
	users  *userstore.Store
	logger *zap.Logger
}

// NewHandler creates a new apitoken Handler.
func NewHandler(tokens *auth.TokenManager, users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		tokens: tokens,
		users:  users,
		logger: logger,
	}
}

// IssueRoutes returns the token-issuing routes. They accept either
// credential, so a signed-in browser session can mint its first token.
func IssueRoutes(h *Handler, gate *auth.Gate) http.Handler {
	r := chi.NewRouter()
	r.Use(gate.RequireLoggedIn)
	r.Post("/", h.handleIssue)
	return r
}

// APIRoutes returns the bearer-only account routes.
func APIRoutes(h *Handler, gate *auth.Gate) http.Handler {
	r := chi.NewRouter()
	r.Use(gate.RequireAPIAuth)
	r.Get("/me", h.handleMe)
	return r
}

// handleIssue mints a bearer token for the authenticated user. client_id
// names the caller and is carried in the token claims; it is required so
// tokens can be told apart in logs.
func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return
	}
	userID := user.UserID()
	if userID.IsZero() {
		jsonutil.Unauthorized(w, "Authentication required")
		return
	}

	clientID := strings.TrimSpace(r.FormValue("client_id"))
	if clientID == "" {
		jsonutil.BadRequest(w, "client_id is required")
		return
	}

	token, err := h.tokens.Sign(userID, clientID)
	if err != nil {
		h.logger.Error("failed to sign bearer token",
			zap.String("user_id", user.ID),
			zap.String("client_id", clientID),
			zap.Error(err))
		jsonutil.InternalError(w, "Failed to issue token")
		return
	}

	h.logger.Info("issued bearer token",
		zap.String("user_id", user.ID),
		zap.String("client_id", clientID))

	jsonutil.OK(w, map[string]any{
		"token":      token,
		"expires_in": int(h.tokens.TTL().Seconds()),
	})
}

// handleMe returns the account behind the presented bearer token.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	tok, ok := auth.BearerFromContext(r.Context())
	if !ok {
		jsonutil.Unauthorized(w, "Authentication required")
		return
	}

	user, err := h.users.GetByID(r.Context(), tok.UserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			jsonutil.NotFound(w, "User not found")
			return
		}
		h.logger.Error("failed to load user for bearer token",
			zap.String("user_id", tok.UserID.Hex()),
			zap.Error(err))
		jsonutil.InternalError(w, "Failed to load user")
		return
	}

	jsonutil.OK(w, map[string]any{
		"id":         user.ID.Hex(),
		"email":      user.Email,
		"roles":      user.Roles,
		"client_id":  tok.ClientID,
		"created_at": user.CreatedAt,
	})
}
