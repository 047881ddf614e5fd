package actions_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/studyhub/internal/app/store/emailverify"
	userstore "github.com/dalemusser/studyhub/internal/app/store/users"
	"github.com/dalemusser/studyhub/internal/app/system/apperr"
	"github.com/dalemusser/studyhub/internal/app/system/billing"
	"github.com/dalemusser/studyhub/internal/app/system/mailer"
	"github.com/dalemusser/studyhub/internal/app/system/webhooks"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// memStore is an in-memory tenant-scoped collection.
type memStore[T models.TenantOwned] struct {
	mu     sync.Mutex
	label  string
	docs   []T
	assign func(*T) // sets ID and timestamps on create
	writes int
	lists  int
}

func newMem[T models.TenantOwned](label string, assign func(*T)) *memStore[T] {
	return &memStore[T]{label: label, assign: assign}
}

func (m *memStore[T]) notFound() error { return apperr.NotFound(m.label + " not found.") }

func (m *memStore[T]) index(tenant, id primitive.ObjectID) int {
	return slices.IndexFunc(m.docs, func(d T) bool { return d.DocID() == id && d.TenantID() == tenant })
}

func (m *memStore[T]) Count(_ context.Context, tenant, id primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index(tenant, id) >= 0 {
		return 1, nil
	}
	return 0, nil
}

func (m *memStore[T]) CountAll(_ context.Context, tenant primitive.ObjectID) (int64, error) {
	return int64(len(m.where(tenant, func(T) bool { return true }))), nil
}

func (m *memStore[T]) Get(_ context.Context, tenant, id primitive.ObjectID) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.index(tenant, id); i >= 0 {
		return m.docs[i], nil
	}
	var zero T
	return zero, m.notFound()
}

func (m *memStore[T]) List(_ context.Context, tenant primitive.ObjectID) ([]T, error) {
	m.mu.Lock()
	m.lists++
	m.mu.Unlock()
	return m.where(tenant, func(T) bool { return true }), nil
}

func (m *memStore[T]) where(tenant primitive.ObjectID, keep func(T) bool) []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []T{}
	for _, d := range m.docs {
		if d.TenantID() == tenant && keep(d) {
			out = append(out, d)
		}
	}
	return out
}

func (m *memStore[T]) Create(_ context.Context, v T) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assign(&v)
	m.docs = append(m.docs, v)
	m.writes++
	return v, nil
}

// put inserts v as is, for test setup.
func (m *memStore[T]) put(v T) T {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, v)
	return v
}

func (m *memStore[T]) Save(_ context.Context, v T) (T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(v.TenantID(), v.DocID())
	if i < 0 {
		var zero T
		return zero, m.notFound()
	}
	m.docs[i] = v
	m.writes++
	return v, nil
}

func (m *memStore[T]) Delete(_ context.Context, tenant, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.index(tenant, id)
	if i < 0 {
		return m.notFound()
	}
	m.docs = slices.Delete(m.docs, i, i+1)
	m.writes++
	return nil
}

func (m *memStore[T]) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs)
}

func (m *memStore[T]) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// memChild adds study-set scoping.
type memChild[T models.SetOwned] struct {
	*memStore[T]
}

func (m memChild[T]) ListBySet(_ context.Context, tenant, setID primitive.ObjectID) ([]T, error) {
	return m.where(tenant, func(d T) bool { return d.SetID() == setID }), nil
}

func (m memChild[T]) DeleteBySet(_ context.Context, tenant, setID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.docs)
	m.docs = slices.DeleteFunc(m.docs, func(d T) bool { return d.TenantID() == tenant && d.SetID() == setID })
	m.writes++
	return int64(before - len(m.docs)), nil
}

func stamp(id *primitive.ObjectID, created, updated *time.Time) {
	*id = primitive.NewObjectID()
	now := time.Now().UTC()
	if created != nil {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}

/*─────────────────────────────────────────────────────────────────────────────*/

type fakeStudySets struct {
	*memStore[models.StudySet]
}

func newFakeStudySets() fakeStudySets {
	return fakeStudySets{newMem("Study set", func(s *models.StudySet) {
		stamp(&s.ID, &s.CreatedAt, &s.UpdatedAt)
		s.NameCI = text.Fold(s.Name)
	})}
}

func (f fakeStudySets) ListFavorites(_ context.Context, tenant primitive.ObjectID) ([]models.StudySet, error) {
	return f.where(tenant, func(s models.StudySet) bool { return s.IsFavorite() }), nil
}

func (f fakeStudySets) CountFavorites(ctx context.Context, tenant primitive.ObjectID) (int64, error) {
	l, _ := f.ListFavorites(ctx, tenant)
	return int64(len(l)), nil
}

func (f fakeStudySets) PullTag(_ context.Context, tenant, tagID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i, s := range f.docs {
		if s.StudyGroupID == tenant && slices.Contains(s.TagIDs, tagID) {
			f.docs[i].TagIDs = slices.DeleteFunc(slices.Clone(s.TagIDs), func(id primitive.ObjectID) bool { return id == tagID })
			n++
		}
	}
	f.writes++
	return n, nil
}

// patch applies fn to id under the lock, the way a single-document
// update does.
func (f fakeStudySets) patch(tenant, id primitive.ObjectID, fn func(*models.StudySet) bool) (models.StudySet, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(tenant, id)
	if i < 0 {
		return models.StudySet{}, false, f.notFound()
	}
	if !fn(&f.docs[i]) {
		return f.docs[i], false, nil
	}
	f.docs[i].UpdatedAt = time.Now().UTC()
	f.writes++
	return f.docs[i], true, nil
}

func (f fakeStudySets) UpdateDetails(_ context.Context, tenant, id primitive.ObjectID, name, description, subject string) (models.StudySet, error) {
	set, _, err := f.patch(tenant, id, func(s *models.StudySet) bool {
		s.Name, s.NameCI, s.Description, s.Subject = name, text.Fold(name), description, subject
		return true
	})
	return set, err
}

func (f fakeStudySets) SetTags(_ context.Context, tenant, id primitive.ObjectID, tagIDs []primitive.ObjectID) (models.StudySet, error) {
	set, _, err := f.patch(tenant, id, func(s *models.StudySet) bool {
		s.TagIDs = slices.Clone(tagIDs)
		return true
	})
	return set, err
}

func (f fakeStudySets) MarkFavorite(_ context.Context, tenant, id primitive.ObjectID) (bool, error) {
	_, changed, err := f.patch(tenant, id, func(s *models.StudySet) bool {
		if strings.Contains(s.Notes, models.FavoriteMarker) {
			return false
		}
		s.Notes = strings.TrimSpace(s.Notes + " " + models.FavoriteMarker)
		return true
	})
	return changed, err
}

func (f fakeStudySets) UnmarkFavorite(_ context.Context, tenant, id primitive.ObjectID) (bool, error) {
	_, changed, err := f.patch(tenant, id, func(s *models.StudySet) bool {
		if !strings.Contains(s.Notes, models.FavoriteMarker) {
			return false
		}
		out := strings.ReplaceAll(s.Notes, " "+models.FavoriteMarker, "")
		s.Notes = strings.TrimSpace(strings.ReplaceAll(out, models.FavoriteMarker, ""))
		return true
	})
	return changed, err
}

type fakeTasks struct {
	memChild[models.Task]
}

func (f fakeTasks) CountOpen(_ context.Context, tenant primitive.ObjectID) (int64, error) {
	return int64(len(f.where(tenant, func(t models.Task) bool { return !t.Done }))), nil
}

func (f fakeTasks) CountOverdue(_ context.Context, tenant primitive.ObjectID, now time.Time) (int64, error) {
	return int64(len(f.where(tenant, func(t models.Task) bool {
		return !t.Done && t.DueAt != nil && t.DueAt.Before(now)
	}))), nil
}

type fakeTags struct {
	*memStore[models.Tag]
}

func (f fakeTags) CountIDs(_ context.Context, tenant primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	return int64(len(f.where(tenant, func(t models.Tag) bool { return slices.Contains(ids, t.ID) }))), nil
}

func (f fakeTags) Create(ctx context.Context, t models.Tag) (models.Tag, error) {
	t.NameCI = text.Fold(t.Name)
	if len(f.where(t.StudyGroupID, func(o models.Tag) bool { return o.NameCI == t.NameCI })) > 0 {
		return models.Tag{}, apperr.Conflict("A tag with this name already exists.")
	}
	return f.memStore.Create(ctx, t)
}

type fakeInvitations struct {
	*memStore[models.Invitation]
}

func newFakeInvitations() fakeInvitations {
	return fakeInvitations{newMem("Invitation", func(i *models.Invitation) {
		stamp(&i.ID, &i.CreatedAt, nil)
		i.EmailCI = text.Fold(i.Email)
		i.Status = models.InvitationPending
		i.LastSentAt = i.CreatedAt
	})}
}

const msgUsed = "Invitation not found or already used"

func (f fakeInvitations) find(id primitive.ObjectID) int {
	return slices.IndexFunc(f.docs, func(i models.Invitation) bool { return i.ID == id && i.IsPending() })
}

func (f fakeInvitations) FindPending(_ context.Context, id primitive.ObjectID) (models.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.find(id); i >= 0 {
		return f.docs[i], nil
	}
	return models.Invitation{}, apperr.NotFound(msgUsed)
}

func (f fakeInvitations) MarkAccepted(_ context.Context, id primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 {
		return apperr.NotFound(msgUsed)
	}
	f.docs[i].Status = models.InvitationAccepted
	f.docs[i].AcceptedAt = &at
	f.writes++
	return nil
}

func (f fakeInvitations) MarkSent(_ context.Context, tenant, id primitive.ObjectID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.find(id)
	if i < 0 || f.docs[i].StudyGroupID != tenant {
		return apperr.NotFound(msgUsed)
	}
	f.docs[i].LastSentAt = at
	f.writes++
	return nil
}

func (f fakeInvitations) DeletePending(ctx context.Context, tenant, id primitive.ObjectID) error {
	inv, err := f.Get(ctx, tenant, id)
	if err != nil || !inv.IsPending() {
		return apperr.NotFound(msgUsed)
	}
	return f.Delete(ctx, tenant, id)
}

func (f fakeInvitations) PendingExists(_ context.Context, tenant primitive.ObjectID, email string) (bool, error) {
	return len(f.where(tenant, func(i models.Invitation) bool { return i.IsPending() && i.EmailCI == text.Fold(email) })) > 0, nil
}

func (f fakeInvitations) CountPending(_ context.Context, tenant primitive.ObjectID) (int64, error) {
	return int64(len(f.where(tenant, func(i models.Invitation) bool { return i.IsPending() }))), nil
}

/*─────────────────────────────────────────────────────────────────────────────*/

type fakeUsers struct {
	mu    sync.Mutex
	users []models.User
}

func (f *fakeUsers) GetByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, mongo.ErrNoDocuments
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.EmailCI == text.Fold(strings.TrimSpace(email)) {
			return u, nil
		}
	}
	return models.User{}, mongo.ErrNoDocuments
}

func (f *fakeUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.GetByEmail(ctx, email)
	return err == nil, nil
}

func (f *fakeUsers) Create(ctx context.Context, u models.User) (models.User, error) {
	if ok, _ := f.ExistsByEmail(ctx, u.Email); ok {
		return models.User{}, userstore.ErrDuplicateEmail
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.EmailCI = text.Fold(u.Email)
	if u.Status == "" {
		u.Status = models.StatusActive
	}
	f.users = append(f.users, u)
	return u, nil
}

func (f *fakeUsers) MarkEmailVerified(_ context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.users {
		if f.users[i].ID == id {
			f.users[i].EmailVerified = true
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

func (f *fakeUsers) CountByStudyGroup(_ context.Context, sg primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, u := range f.users {
		if u.StudyGroupID == sg {
			n++
		}
	}
	return n, nil
}

func (f *fakeUsers) CountInStudyGroup(_ context.Context, sg, id primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.ID == id && u.StudyGroupID == sg {
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeUsers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

type fakeStudyGroups struct {
	mu     sync.Mutex
	groups map[primitive.ObjectID]models.StudyGroup
}

func (f *fakeStudyGroups) Create(_ context.Context, sg models.StudyGroup) (models.StudyGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stamp(&sg.ID, &sg.CreatedAt, &sg.UpdatedAt)
	f.groups[sg.ID] = sg
	return sg, nil
}

func (f *fakeStudyGroups) GetByID(_ context.Context, id primitive.ObjectID) (models.StudyGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sg, ok := f.groups[id]
	if !ok {
		return models.StudyGroup{}, apperr.NotFound("Study group not found.")
	}
	return sg, nil
}

func (f *fakeStudyGroups) UpdateProfile(_ context.Context, sg models.StudyGroup) (models.StudyGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.groups[sg.ID]; !ok {
		return models.StudyGroup{}, apperr.NotFound("Study group not found.")
	}
	f.groups[sg.ID] = sg
	return sg, nil
}

// fakeVerifications always issues the same code.
type fakeVerifications struct {
	mu       sync.Mutex
	code     string
	attempts map[primitive.ObjectID]int
	resends  map[primitive.ObjectID]int
	live     map[primitive.ObjectID]bool
}

func newFakeVerifications() *fakeVerifications {
	return &fakeVerifications{
		code:     "123456",
		attempts: map[primitive.ObjectID]int{},
		resends:  map[primitive.ObjectID]int{},
		live:     map[primitive.ObjectID]bool{},
	}
}

func (f *fakeVerifications) Create(_ context.Context, userID primitive.ObjectID, _ string, isResend bool) (*emailverify.CreateResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if isResend {
		if f.resends[userID] >= emailverify.MaxResends {
			return nil, emailverify.ErrTooManyResends
		}
		f.resends[userID]++
	}
	f.live[userID] = true
	f.attempts[userID] = 0
	return &emailverify.CreateResult{Code: f.code, ResendCount: f.resends[userID]}, nil
}

func (f *fakeVerifications) VerifyCode(_ context.Context, userID primitive.ObjectID, code string) (*emailverify.Verification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.live[userID] {
		return nil, emailverify.ErrNotFound
	}
	if f.attempts[userID] >= emailverify.MaxVerifyAttempts {
		return nil, emailverify.ErrTooManyAttempts
	}
	f.attempts[userID]++
	if code != f.code {
		return nil, emailverify.ErrInvalidCode
	}
	delete(f.live, userID)
	return &emailverify.Verification{UserID: userID}, nil
}

type fakeTxn struct {
	mu   sync.Mutex
	runs int
}

func (f *fakeTxn) Run(ctx context.Context, fn func(context.Context) error) error {
	f.mu.Lock()
	f.runs++
	f.mu.Unlock()
	return fn(ctx)
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Email
	err  error
}

func (f *fakeMailer) Send(_ context.Context, e mailer.Email) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, e)
	return nil
}

func (f *fakeMailer) last() (mailer.Email, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return mailer.Email{}, false
	}
	return f.sent[len(f.sent)-1], true
}

type fakePublisher struct {
	mu     sync.Mutex
	events []webhooks.Event
}

func (f *fakePublisher) Publish(_ context.Context, ev webhooks.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakePublisher) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Name)
	}
	return out
}

type billingCall struct {
	customerID string
	fields     billing.Fields
}

type fakeBilling struct {
	mu    sync.Mutex
	calls []billingCall
	err   error
}

func (f *fakeBilling) UpdateCustomer(_ context.Context, id string, fl billing.Fields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, billingCall{id, fl})
	return f.err
}

type auditCall struct {
	eventType string
	actor     primitive.ObjectID
	group     primitive.ObjectID
	target    string
}

type fakeAuditor struct {
	mu    sync.Mutex
	calls []auditCall
}

func (f *fakeAuditor) Admin(_ context.Context, eventType string, actorID, studyGroupID primitive.ObjectID, targetID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, auditCall{eventType, actorID, studyGroupID, targetID})
}

func (f *fakeAuditor) AccessTokenIssued(_ context.Context, userID, studyGroupID primitive.ObjectID) {
	f.Admin(context.Background(), "access_token_issued", userID, studyGroupID, "")
}

func (f *fakeAuditor) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.eventType
	}
	return out
}

var errBoom = errors.New("boom")
