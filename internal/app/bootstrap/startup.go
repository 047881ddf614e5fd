// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/studyhub/internal/app/actions"
	uierrors "github.com/dalemusser/studyhub/internal/app/features/errors"
	auditstore "github.com/dalemusser/studyhub/internal/app/store/audit"
	commentstore "github.com/dalemusser/studyhub/internal/app/store/comments"
	"github.com/dalemusser/studyhub/internal/app/store/emailverify"
	imagestore "github.com/dalemusser/studyhub/internal/app/store/images"
	invitationstore "github.com/dalemusser/studyhub/internal/app/store/invitations"
	notestore "github.com/dalemusser/studyhub/internal/app/store/notes"
	sessionstore "github.com/dalemusser/studyhub/internal/app/store/sessions"
	studygroupstore "github.com/dalemusser/studyhub/internal/app/store/studygroups"
	studysetstore "github.com/dalemusser/studyhub/internal/app/store/studysets"
	tagstore "github.com/dalemusser/studyhub/internal/app/store/tags"
	taskstore "github.com/dalemusser/studyhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/studyhub/internal/app/store/users"
	webhookstore "github.com/dalemusser/studyhub/internal/app/store/webhooks"
	"github.com/dalemusser/studyhub/internal/app/system/action"
	"github.com/dalemusser/studyhub/internal/app/system/auditlog"
	"github.com/dalemusser/studyhub/internal/app/system/auth"
	"github.com/dalemusser/studyhub/internal/app/system/billing"
	"github.com/dalemusser/studyhub/internal/app/system/mailer"
	"github.com/dalemusser/studyhub/internal/app/system/ratelimit"
	"github.com/dalemusser/studyhub/internal/app/system/readcache"
	"github.com/dalemusser/studyhub/internal/app/system/timeouts"
	"github.com/dalemusser/studyhub/internal/app/system/txn"
	"github.com/dalemusser/studyhub/internal/app/system/webhooks"
	"github.com/dalemusser/studyhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// services is everything Startup builds and BuildHandler and Shutdown use.
type services struct {
	sessions   *auth.SessionManager
	pending    *auth.PendingVerification
	actions    *actions.Actions
	dispatcher *webhooks.Dispatcher
	cleanup    *workers.SessionCleanup
	audit      *auditlog.Logger
	errLog     *uierrors.ErrorLogger

	loginLimiter *ratelimit.LoginLimiter
	otpLimiter   *ratelimit.Keyed
	joinLimiter  *ratelimit.Keyed
}

// Startup runs one-time initialization after DB connections and schema
// setup are complete, but before the HTTP handler is built. It constructs
// the stores, the read cache, the mailer, billing, the webhook dispatcher,
// the session machinery and the action layer, and starts the background
// workers.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.svc == nil {
		return fmt.Errorf("startup: DBDeps was not created by ConnectDB")
	}
	svc, err := buildServices(coreCfg, appCfg, deps.MongoClient, deps.MongoDatabase, logger)
	if err != nil {
		return err
	}
	svc.dispatcher.Start()
	svc.cleanup.Start()
	*deps.svc = *svc
	return nil
}

// buildServices wires the application without starting any goroutines.
func buildServices(coreCfg *config.CoreConfig, appCfg AppConfig, client *mongo.Client, db *mongo.Database, logger *zap.Logger) (*services, error) {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})
	secure := coreCfg != nil && coreCfg.Env == "prod"

	sm, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	users := userstore.New(db)
	sessions := sessionstore.New(db)
	tokens := auth.NewTokenIssuer(appCfg.JWTSecret, appCfg.JWTIssuer, appCfg.JWTTTL)
	sm.WithStores(sessions, users).WithTokens(tokens)

	send, err := buildMailer(appCfg, logger)
	if err != nil {
		return nil, err
	}

	var bill billing.Provider = billing.Noop{}
	if appCfg.StripeSecretKey != "" {
		bill = billing.NewStripe(appCfg.StripeSecretKey, logger)
	}

	auditEvents := auditstore.New(db)
	auditLog := auditlog.New(auditEvents, logger, auditlog.Config{
		Auth:  appCfg.AuditAuth,
		Admin: appCfg.AuditAdmin,
	})

	hooks := webhookstore.New(db)
	dispatcher := webhooks.New(hooks, webhooks.Config{
		Workers: appCfg.WebhookWorkers,
		Timeout: appCfg.WebhookTimeout,
	}, logger)

	svc := actions.New(actions.Deps{
		StudySets:     studysetstore.New(db),
		Images:        imagestore.New(db),
		Notes:         notestore.New(db),
		Comments:      commentstore.New(db),
		Tasks:         taskstore.New(db),
		Tags:          tagstore.New(db),
		Webhooks:      hooks,
		Invitations:   invitationstore.New(db),
		Users:         users,
		StudyGroups:   studygroupstore.New(db),
		Verifications: emailverify.New(db, appCfg.EmailVerifyExpiry),
		Txn:           txn.New(client, logger),

		Cache:   readcache.New(appCfg.CacheCapacity, appCfg.CacheTTL, logger),
		Events:  dispatcher,
		Mailer:  send,
		Billing: bill,
		Tokens:  tokens,

		AuditEvents: auditEvents,
		Audit:       auditLog,

		BaseURL:         appCfg.BaseURL,
		SiteName:        appCfg.MailFromName,
		VerifyExpiresIn: appCfg.EmailVerifyExpiry,
		Log:             logger,
	})

	return &services{
		sessions:     sm,
		pending:      auth.NewPendingVerification([]byte(appCfg.PendingHashKey), []byte(appCfg.PendingBlockKey), appCfg.EmailVerifyExpiry+5*time.Minute, secure),
		actions:      actions.Bind(action.NewRunner(logger), svc),
		dispatcher:   dispatcher,
		cleanup:      workers.NewSessionCleanup(sessions, logger, appCfg.SessionCleanupInterval),
		audit:        auditLog,
		errLog:       uierrors.NewErrorLogger(logger),
		loginLimiter: ratelimit.NewLoginLimiter(appCfg.LoginIPBurst, appCfg.LoginEmailBurst),
		otpLimiter:   ratelimit.New(appCfg.OTPBurst, appCfg.OTPPerMinute, time.Minute),
		joinLimiter:  ratelimit.New(appCfg.JoinBurst, appCfg.JoinPerMinute, time.Minute),
	}, nil
}

// buildMailer returns an SMTP mailer, or a logging sender when no SMTP host
// is configured (local development).
func buildMailer(appCfg AppConfig, logger *zap.Logger) (mailer.Sender, error) {
	if appCfg.MailSMTPHost == "" {
		logger.Warn("no SMTP host configured; emails will be logged, not sent")
		return mailer.LogSender{Log: logger}, nil
	}
	m, err := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)
	if err != nil {
		logger.Error("mailer init failed", zap.Error(err))
		return nil, err
	}
	return m, nil
}
