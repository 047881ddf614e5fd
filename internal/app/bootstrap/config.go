// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/studyhub/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for StudyHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: STUDYHUB_MONGO_URI, STUDYHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "studyhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "studyhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session lifetime (e.g., 24h, 720h)"},

	{Name: "pending_hash_key", Default: "dev-only-pending-hash-key-0123456789abcdef", Desc: "Signing key for the pending-verification cookie (32+ chars)"},
	{Name: "pending_block_key", Default: "dev-only-pending-block-key-32byt", Desc: "Encryption key for the pending-verification cookie (16, 24 or 32 chars)"},

	{Name: "jwt_secret", Default: "dev-only-jwt-secret-change-me-0123456789", Desc: "HMAC secret for bearer access tokens (32+ chars)"},
	{Name: "jwt_issuer", Default: "studyhub", Desc: "Issuer claim for access tokens"},
	{Name: "jwt_ttl", Default: "1h", Desc: "Access token lifetime"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank logs emails instead of sending)"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@studyhub.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "StudyHub", Desc: "From display name"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for email links"},
	{Name: "email_verify_expiry", Default: "10m", Desc: "Email verification code expiry (e.g., 10m, 1h, 90s)"},

	{Name: "cache_capacity", Default: 10000, Desc: "Read cache capacity (entries)"},
	{Name: "cache_ttl", Default: "5m", Desc: "Default read cache TTL"},

	{Name: "stripe_secret_key", Default: "", Desc: "Stripe secret key (blank disables billing sync)"},

	{Name: "webhook_workers", Default: 4, Desc: "Webhook delivery workers"},
	{Name: "webhook_timeout", Default: "10s", Desc: "Per-delivery webhook timeout"},

	{Name: "login_ip_burst", Default: 20, Desc: "Login attempts allowed per client IP before throttling"},
	{Name: "login_email_burst", Default: 5, Desc: "Login attempts allowed per email before throttling"},
	{Name: "otp_burst", Default: 10, Desc: "Verify/resend requests allowed per client IP in a burst"},
	{Name: "otp_per_minute", Default: 5, Desc: "Verify/resend requests per client IP per minute"},
	{Name: "join_burst", Default: 10, Desc: "Join requests allowed per client IP in a burst"},
	{Name: "join_per_minute", Default: 5, Desc: "Join requests per client IP per minute"},

	{Name: "session_cleanup_interval", Default: "10m", Desc: "How often expired sessions are purged"},

	{Name: "audit_auth", Default: "all", Desc: "Where sign-in events go: all, db, log or off"},
	{Name: "audit_admin", Default: "all", Desc: "Where study group admin events go: all, db, log or off"},

	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document database operations"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for actions and list queries"},
	{Name: "timeout_long", Default: "30s", Desc: "Timeout for bulk database operations"},
}

// LoadConfig loads WAFFLE core config and StudyHub's app config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, STUDYHUB_* for app) and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "STUDYHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 30*24*time.Hour),

		PendingHashKey:  appValues.String("pending_hash_key"),
		PendingBlockKey: appValues.String("pending_block_key"),

		JWTSecret: appValues.String("jwt_secret"),
		JWTIssuer: appValues.String("jwt_issuer"),
		JWTTTL:    appValues.Duration("jwt_ttl", time.Hour),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		BaseURL:           appValues.String("base_url"),
		EmailVerifyExpiry: appValues.Duration("email_verify_expiry", 10*time.Minute),

		CacheCapacity: appValues.Int("cache_capacity"),
		CacheTTL:      appValues.Duration("cache_ttl", 5*time.Minute),

		StripeSecretKey: appValues.String("stripe_secret_key"),

		WebhookWorkers: appValues.Int("webhook_workers"),
		WebhookTimeout: appValues.Duration("webhook_timeout", 10*time.Second),

		LoginIPBurst:    appValues.Int("login_ip_burst"),
		LoginEmailBurst: appValues.Int("login_email_burst"),
		OTPBurst:        appValues.Int("otp_burst"),
		OTPPerMinute:    appValues.Int("otp_per_minute"),
		JoinBurst:       appValues.Int("join_burst"),
		JoinPerMinute:   appValues.Int("join_per_minute"),

		SessionCleanupInterval: appValues.Duration("session_cleanup_interval", 10*time.Minute),

		AuditAuth:  appValues.String("audit_auth"),
		AuditAdmin: appValues.String("audit_admin"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// StudyHub validates the MongoDB URI format and the lengths of its secrets
// to catch configuration errors before connecting.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database is required")
	}
	if appCfg.SessionKey == "" {
		return fmt.Errorf("session_key is required")
	}
	if len(appCfg.PendingHashKey) < 32 {
		return fmt.Errorf("pending_hash_key must be at least 32 characters")
	}
	switch len(appCfg.PendingBlockKey) {
	case 16, 24, 32:
	default:
		return fmt.Errorf("pending_block_key must be 16, 24 or 32 characters, got %d", len(appCfg.PendingBlockKey))
	}
	if len(appCfg.JWTSecret) < 32 {
		return fmt.Errorf("jwt_secret must be at least 32 characters")
	}
	if appCfg.EmailVerifyExpiry <= 0 {
		return fmt.Errorf("email_verify_expiry must be positive")
	}
	for key, mode := range map[string]string{"audit_auth": appCfg.AuditAuth, "audit_admin": appCfg.AuditAdmin} {
		switch mode {
		case "", auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
		default:
			return fmt.Errorf("%s must be one of all, db, log or off, got %q", key, mode)
		}
	}

	if coreCfg != nil && coreCfg.Env == "prod" {
		if len(appCfg.SessionKey) < 32 {
			return fmt.Errorf("session_key must be at least 32 characters in production")
		}
		if appCfg.MailSMTPHost == "" {
			logger.Warn("mail_smtp_host is blank; emails will only be logged")
		}
	}
	return nil
}
