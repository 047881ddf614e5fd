// Package actions holds the business operations of StudyHub: one mutation
// handler per operation and one cached read function per view.
//
// Every mutation runs in the same order: a tenant-scoped existence count,
// the write (atomic when several documents change together), invalidation
// of the cache tags the write touched, and finally non-fatal side effects
// such as webhook events and billing sync.
package actions

import (
	"context"
	"time"

	"github.com/dalemusser/studyhub/internal/app/store/audit"
	"github.com/dalemusser/studyhub/internal/app/store/emailverify"
	"github.com/dalemusser/studyhub/internal/app/system/apperr"
	"github.com/dalemusser/studyhub/internal/app/system/auth"
	"github.com/dalemusser/studyhub/internal/app/system/billing"
	"github.com/dalemusser/studyhub/internal/app/system/cachetags"
	"github.com/dalemusser/studyhub/internal/app/system/mailer"
	"github.com/dalemusser/studyhub/internal/app/system/readcache"
	"github.com/dalemusser/studyhub/internal/app/system/webhooks"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Counter is the authorization primitive: how many documents match id
// within tenant.
type Counter interface {
	Count(ctx context.Context, tenant, id primitive.ObjectID) (int64, error)
}

// StudySetRepo persists study sets.
type StudySetRepo interface {
	Counter
	CountAll(ctx context.Context, tenant primitive.ObjectID) (int64, error)
	CountFavorites(ctx context.Context, tenant primitive.ObjectID) (int64, error)
	Get(ctx context.Context, tenant, id primitive.ObjectID) (models.StudySet, error)
	List(ctx context.Context, tenant primitive.ObjectID) ([]models.StudySet, error)
	ListFavorites(ctx context.Context, tenant primitive.ObjectID) ([]models.StudySet, error)
	Create(ctx context.Context, s models.StudySet) (models.StudySet, error)
	UpdateDetails(ctx context.Context, tenant, id primitive.ObjectID, name, description, subject string) (models.StudySet, error)
	SetTags(ctx context.Context, tenant, id primitive.ObjectID, tagIDs []primitive.ObjectID) (models.StudySet, error)
	MarkFavorite(ctx context.Context, tenant, id primitive.ObjectID) (bool, error)
	UnmarkFavorite(ctx context.Context, tenant, id primitive.ObjectID) (bool, error)
	Delete(ctx context.Context, tenant, id primitive.ObjectID) error
	PullTag(ctx context.Context, tenant, tagID primitive.ObjectID) (int64, error)
}

// ChildRepo persists documents attached to a study set.
type ChildRepo[T models.SetOwned] interface {
	Counter
	Get(ctx context.Context, tenant, id primitive.ObjectID) (T, error)
	ListBySet(ctx context.Context, tenant, setID primitive.ObjectID) ([]T, error)
	Create(ctx context.Context, v T) (T, error)
	Delete(ctx context.Context, tenant, id primitive.ObjectID) error
	DeleteBySet(ctx context.Context, tenant, setID primitive.ObjectID) (int64, error)
}

// EditableChildRepo is a ChildRepo whose documents can be edited.
type EditableChildRepo[T models.SetOwned] interface {
	ChildRepo[T]
	Save(ctx context.Context, v T) (T, error)
}

// TaskRepo persists tasks.
type TaskRepo interface {
	EditableChildRepo[models.Task]
	CountOpen(ctx context.Context, tenant primitive.ObjectID) (int64, error)
	CountOverdue(ctx context.Context, tenant primitive.ObjectID, now time.Time) (int64, error)
}

// TagRepo persists tags.
type TagRepo interface {
	Counter
	CountIDs(ctx context.Context, tenant primitive.ObjectID, ids []primitive.ObjectID) (int64, error)
	Get(ctx context.Context, tenant, id primitive.ObjectID) (models.Tag, error)
	List(ctx context.Context, tenant primitive.ObjectID) ([]models.Tag, error)
	Create(ctx context.Context, t models.Tag) (models.Tag, error)
	Save(ctx context.Context, t models.Tag) (models.Tag, error)
	Delete(ctx context.Context, tenant, id primitive.ObjectID) error
}

// WebhookRepo persists webhook registrations.
type WebhookRepo interface {
	Counter
	Get(ctx context.Context, tenant, id primitive.ObjectID) (models.Webhook, error)
	List(ctx context.Context, tenant primitive.ObjectID) ([]models.Webhook, error)
	Create(ctx context.Context, w models.Webhook) (models.Webhook, error)
	Save(ctx context.Context, w models.Webhook) (models.Webhook, error)
	Delete(ctx context.Context, tenant, id primitive.ObjectID) error
}

// InvitationRepo persists invitations.
type InvitationRepo interface {
	Counter
	Get(ctx context.Context, tenant, id primitive.ObjectID) (models.Invitation, error)
	List(ctx context.Context, tenant primitive.ObjectID) ([]models.Invitation, error)
	Create(ctx context.Context, inv models.Invitation) (models.Invitation, error)
	FindPending(ctx context.Context, id primitive.ObjectID) (models.Invitation, error)
	MarkAccepted(ctx context.Context, id primitive.ObjectID, at time.Time) error
	MarkSent(ctx context.Context, tenant, id primitive.ObjectID, at time.Time) error
	DeletePending(ctx context.Context, tenant, id primitive.ObjectID) error
	PendingExists(ctx context.Context, tenant primitive.ObjectID, email string) (bool, error)
	CountPending(ctx context.Context, tenant primitive.ObjectID) (int64, error)
}

// UserRepo persists user accounts. Lookups signal absence with
// mongo.ErrNoDocuments.
type UserRepo interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u models.User) (models.User, error)
	MarkEmailVerified(ctx context.Context, id primitive.ObjectID) error
	CountByStudyGroup(ctx context.Context, studyGroupID primitive.ObjectID) (int64, error)
	CountInStudyGroup(ctx context.Context, studyGroupID, id primitive.ObjectID) (int64, error)
}

// StudyGroupRepo persists study groups.
type StudyGroupRepo interface {
	Create(ctx context.Context, sg models.StudyGroup) (models.StudyGroup, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.StudyGroup, error)
	UpdateProfile(ctx context.Context, sg models.StudyGroup) (models.StudyGroup, error)
}

// VerificationRepo issues and checks email OTPs.
type VerificationRepo interface {
	Create(ctx context.Context, userID primitive.ObjectID, email string, isResend bool) (*emailverify.CreateResult, error)
	VerifyCode(ctx context.Context, userID primitive.ObjectID, code string) (*emailverify.Verification, error)
}

// Transactor runs fn atomically.
type Transactor interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// Publisher accepts webhook events. Publish must not block.
type Publisher interface {
	Publish(ctx context.Context, ev webhooks.Event)
}

// AuditRepo lists recorded audit events.
type AuditRepo interface {
	ListByStudyGroup(ctx context.Context, studyGroupID primitive.ObjectID, before *primitive.ObjectID, limit int64) ([]audit.Event, error)
}

// Auditor records security-relevant changes. Recording never fails.
type Auditor interface {
	Admin(ctx context.Context, eventType string, actorID, studyGroupID primitive.ObjectID, targetID string)
	AccessTokenIssued(ctx context.Context, userID, studyGroupID primitive.ObjectID)
}

// TokenIssuer mints API access tokens.
type TokenIssuer interface {
	Issue(u *auth.SessionUser) (string, time.Time, error)
}

// Deps is everything the service needs. Cache, Events, Billing, Tokens,
// AuditEvents and Audit may be nil.
type Deps struct {
	StudySets     StudySetRepo
	Images        ChildRepo[models.StudySetImage]
	Notes         EditableChildRepo[models.Note]
	Comments      EditableChildRepo[models.Comment]
	Tasks         TaskRepo
	Tags          TagRepo
	Webhooks      WebhookRepo
	Invitations   InvitationRepo
	Users         UserRepo
	StudyGroups   StudyGroupRepo
	Verifications VerificationRepo
	Txn           Transactor

	Cache   *readcache.Cache
	Events  Publisher
	Mailer  mailer.Sender
	Billing billing.Provider
	Tokens  TokenIssuer

	AuditEvents AuditRepo
	Audit       Auditor

	SiteName        string
	BaseURL         string // used to build invitation links
	VerifyExpiresIn time.Duration
	Log             *zap.Logger
	Now             func() time.Time
}

// Service implements every StudyHub operation.
type Service struct {
	Deps
}

// New builds a Service, filling defaults for optional dependencies.
func New(d Deps) *Service {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Billing == nil {
		d.Billing = billing.Noop{}
	}
	if d.SiteName == "" {
		d.SiteName = "StudyHub"
	}
	return &Service{Deps: d}
}

func (s *Service) now() time.Time { return s.Now().UTC() }

// authorize fails with NotFound unless id exists within tenant.
func authorize(ctx context.Context, c Counter, tenant, id primitive.ObjectID, label string) error {
	n, err := c.Count(ctx, tenant, id)
	if err != nil {
		return err
	}
	if n < 1 {
		return apperr.NotFound(label + " not found.")
	}
	return nil
}

// invalidate expires every tag mutation w touched.
func (s *Service) invalidate(w cachetags.Write, tenant, entity primitive.ObjectID) {
	ent := ""
	if !entity.IsZero() {
		ent = entity.Hex()
	}
	s.Cache.InvalidateTags(cachetags.WriteTags(w, tenant.Hex(), ent)...)
}

// publish enqueues a webhook event. It never fails the caller.
func (s *Service) publish(ctx context.Context, tenant primitive.ObjectID, name string, data any) {
	if s.Events == nil {
		return
	}
	s.Events.Publish(ctx, webhooks.Event{
		ID:           uuid.NewString(),
		Name:         name,
		StudyGroupID: tenant,
		OccurredAt:   s.now(),
		Data:         data,
	})
}

// audit records an admin change made by the caller.
func (s *Service) audit(ctx context.Context, u *auth.SessionUser, eventType string, target primitive.ObjectID) {
	if s.Audit == nil || u == nil {
		return
	}
	t := ""
	if !target.IsZero() {
		t = target.Hex()
	}
	s.Audit.Admin(ctx, eventType, u.ID, u.StudyGroupID, t)
}

// read serves r through the cache. entity is empty for tenant-level reads.
func read[T any](ctx context.Context, s *Service, r cachetags.Read, kind cachetags.Kind, tenant primitive.ObjectID, entity string, loader func(context.Context) (T, error)) (T, error) {
	parts := append(cachetags.DeriveKeyParts(kind, tenant.Hex()), string(r), entity)
	tags := cachetags.ReadTags(r, tenant.Hex(), entity)
	return readcache.ReadThrough(ctx, s.Cache, parts, 0, tags, loader)
}

// oid parses a hex id that schema validation has already checked.
func oid(field, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidField(field, "must be a valid id")
	}
	return id, nil
}

// optionalOID parses hex, returning nil for an empty string.
func optionalOID(field, hex string) (*primitive.ObjectID, error) {
	if hex == "" {
		return nil, nil
	}
	id, err := oid(field, hex)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Done is the payload of mutations that return nothing.
type Done struct{}
