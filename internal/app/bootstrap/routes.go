// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strings"
	"time"

	apitokenfeature "github.com/dalemusser/stratauth/internal/app/features/apitoken"
	errorsfeature "github.com/dalemusser/stratauth/internal/app/features/errors"
	healthfeature "github.com/dalemusser/stratauth/internal/app/features/health"
	homefeature "github.com/dalemusser/stratauth/internal/app/features/home"
	loginfeature "github.com/dalemusser/stratauth/internal/app/features/login"
	logoutfeature "github.com/dalemusser/stratauth/internal/app/features/logout"
	"github.com/dalemusser/stratauth/internal/app/store/logincodes"
	userstore "github.com/dalemusser/stratauth/internal/app/store/users"
	"github.com/dalemusser/stratauth/internal/app/system/auth"
	"github.com/dalemusser/stratauth/internal/app/system/logincode"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// # Mixed Authentication Routes
//
// Browser routes use session auth plus CSRF; routes under /api use bearer
// token auth (or either credential, for token issuance) and skip CSRF. The
// auth.Gate decides which credential governs a request: an Authorization
// header, when present, is always authoritative.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Bearer token manager and the gate that arbitrates between credentials.
	tokenMgr, err := auth.NewTokenManager(appCfg.TokenSecret, appCfg.TokenTTL)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}
	gate := auth.NewGate(tokenMgr, sessionMgr, logger)

	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)

	// Stores and the login-code engine over them.
	usersStore := userstore.New(deps.MongoDatabase)
	codesStore := logincodes.New(deps.MongoDatabase)
	engine := logincode.New(usersStore, codesStore, deps.Mailer, logincode.Config{
		SiteName:       appCfg.SiteName,
		Digits:         appCfg.CodeDigits,
		CodeTTL:        appCfg.CodeTTL,
		SingleUse:      appCfg.SingleUseCodes,
		RegisterFields: appCfg.RegisterFields,
	}, logger)

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	// Request timeout middleware: prevents requests from hanging indefinitely.
	r.Use(chimw.Timeout(30 * time.Second))

	// CORS middleware: must be early in the chain to handle preflight requests.
	r.Use(middleware.CORSFromConfig(coreCfg))

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// Session middleware: loads SessionUser into context if logged in.
	// API routes will simply have no session, which is fine.
	r.Use(sessionMgr.LoadSessionUser)

	// CSRF protection middleware with path-based exemption for API routes.
	// Cookie name is "stratauth_csrf" to avoid collisions with other services
	// on the same domain.
	csrfOpts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("stratauth_csrf"),
		csrf.FieldName("csrf_token"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.String("reason", csrf.FailureReason(req).Error()),
			)
			http.Error(w, "CSRF token invalid or missing", http.StatusForbidden)
		})),
	}
	// In dev mode, trust localhost origins for CSRF validation.
	trustedOrigins := []string{
		"localhost:8080",
		"localhost:3000",
		"127.0.0.1:8080",
		"127.0.0.1:3000",
	}
	if !secure {
		csrfOpts = append(csrfOpts, csrf.TrustedOrigins(trustedOrigins))
	}
	if appCfg.SessionDomain != "" {
		csrfOpts = append(csrfOpts, csrf.Domain(appCfg.SessionDomain))
	}
	csrfProtect := csrf.Protect([]byte(appCfg.CSRFKey), csrfOpts...)

	// Wrap CSRF middleware to skip for API routes: they authenticate with
	// bearer tokens, which cross-site requests cannot forge.
	csrfMiddleware := func(next http.Handler) http.Handler {
		csrfHandler := csrfProtect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if strings.HasPrefix(req.URL.Path, "/api/") {
				next.ServeHTTP(w, req)
				return
			}
			csrfHandler.ServeHTTP(w, req)
		})
	}
	r.Use(csrfMiddleware)

	// ─────────────────────────────────────────────────────────────────────────────
	// Routes
	// ─────────────────────────────────────────────────────────────────────────────

	// Health check endpoints for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	// Public landing page
	homeHandler := homefeature.NewHandler(appCfg.SiteName, logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Authentication: email login codes
	loginHandler := loginfeature.NewHandler(
		engine,
		sessionMgr,
		errLog,
		appCfg.SiteName,
		appCfg.AllowRegistration,
		appCfg.RegisterFields,
		logger,
	)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// API: bearer token issuance and token-authenticated account access
	apitokenHandler := apitokenfeature.NewHandler(tokenMgr, usersStore, logger)
	r.Route("/api", func(api chi.Router) {
		api.Mount("/token", apitokenfeature.IssueRoutes(apitokenHandler, gate))
		api.Mount("/", apitokenfeature.APIRoutes(apitokenHandler, gate))
	})

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// 404 catch-all for unmatched routes
	r.NotFound(errorsHandler.NotFound)

	return r, nil
}
