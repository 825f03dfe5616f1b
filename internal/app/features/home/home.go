// internal/app/features/home/home.go
package home

import (
	"net/http"

	"github.com/dalemusser/stratauth/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// Handler provides home page handlers.
type Handler struct {
	siteName string
	logger   *zap.Logger
}

// NewHandler creates a new home Handler.
func NewHandler(siteName string, logger *zap.Logger) *Handler {
	return &Handler{
		siteName: siteName,
		logger:   logger,
	}
}

// Routes returns a chi.Router with home routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Index)
	return r
}

// Index renders the landing page: a sign-in link for visitors, the signed-in
// account for everyone else.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	vm := homeVM{SiteName: h.siteName, CSRFField: csrf.TemplateField(r)}
	if user, ok := auth.CurrentUser(r); ok {
		vm.SignedIn = true
		vm.Email = user.Email
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homePageTmpl.Execute(w, vm); err != nil {
		h.logger.Error("failed to render home page", zap.Error(err))
	}
}
