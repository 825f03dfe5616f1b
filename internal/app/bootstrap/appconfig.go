// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like:
//   - HTTP/HTTPS ports and TLS configuration
//   - Logging level and format
//   - CORS settings
//   - Request body size limits
//   - Database connection timeouts
//
// AppConfig is where you put everything specific to YOUR application:
//   - Database connection strings (MongoDB URI, etc.)
//   - Login-code and token policy
//   - SMTP delivery settings
//   - Registration policy
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: stratauth-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Maximum session cookie lifetime (default: 720h)

	// Bearer token configuration (for API callers)
	TokenSecret string        // Secret key for signing bearer tokens (must be strong in production)
	TokenTTL    time.Duration // Bearer token lifetime (default: 1h)

	// Login code policy
	CodeDigits     int           // Number of digits in an emailed login code (default: 6)
	CodeTTL        time.Duration // How long a login code stays verifiable (default: 24h)
	SingleUseCodes bool          // Delete a code after its first successful verify

	// Registration policy
	AllowRegistration bool     // Create a user on first verified login when none exists
	RegisterFields    []string // Extra registration fields accepted from the login form

	// Site presentation
	SiteName string // Display name used in pages and email subjects

	// CSRF protection configuration
	CSRFKey string // Secret key for CSRF token signing (32 bytes, must be strong in production)

	// Email/SMTP configuration
	MailSMTPHost string // SMTP server host (e.g., localhost for Mailpit, email-smtp.us-east-1.amazonaws.com for SES)
	MailSMTPPort int    // SMTP server port (e.g., 1025 for Mailpit, 587 for SES)
	MailSMTPUser string // SMTP username (empty for Mailpit, SES SMTP credentials for AWS)
	MailSMTPPass string // SMTP password
	MailFrom     string // From email address (e.g., noreply@example.com)
	MailFromName string // From display name (e.g., StrataAuth)

	// Base URL for links in outgoing email
	BaseURL string // e.g., "https://example.com" or "http://localhost:8080"
}
