// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for StudyHub.
//
// Values come from environment variables (STUDYHUB_*), config files, or
// command-line flags, loaded in LoadConfig. WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, log level, CORS, body limits); this
// struct covers everything specific to StudyHub.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management
	SessionKey    string        // signs the session cookie (must be strong in production)
	SessionName   string        // cookie name (default: studyhub-session)
	SessionDomain string        // cookie domain (blank means current host)
	SessionMaxAge time.Duration // lifetime of a signed-in session

	// Pending-verification cookie keys (securecookie hash and AES block keys)
	PendingHashKey  string
	PendingBlockKey string

	// Bearer access tokens
	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	// Email/SMTP configuration. A blank host logs emails instead of sending.
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// Base URL for email links (invitation join links)
	BaseURL string

	// Email verification code lifetime
	EmailVerifyExpiry time.Duration

	// Read-through cache
	CacheCapacity int
	CacheTTL      time.Duration

	// Stripe secret key. Blank disables billing sync.
	StripeSecretKey string

	// Webhook delivery
	WebhookWorkers int
	WebhookTimeout time.Duration

	// Rate limits (per client IP unless noted)
	LoginIPBurst    int
	LoginEmailBurst int // per email address
	OTPBurst        int
	OTPPerMinute    int
	JoinBurst       int
	JoinPerMinute   int

	// Background session cleanup interval
	SessionCleanupInterval time.Duration

	// Audit destinations per category: all, db, log or off
	AuditAuth  string
	AuditAdmin string

	// Database operation timeouts
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration
}
