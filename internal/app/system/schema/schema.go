// Package schema holds the input shapes accepted by each operation together
// with their validation rules. Validation is pure: it never touches the
// database or the session.
package schema

import (
	"errors"
	"regexp"
	"strings"

	"github.com/dalemusser/studyhub/internal/app/system/apperr"
	"github.com/dalemusser/studyhub/internal/app/system/webhooks"
	"github.com/dalemusser/studyhub/internal/domain/models"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Field limits.
const (
	NameMax        = 64
	SubjectMax     = 64
	DescriptionMax = 2000
	BodyMax        = 10000
	TagNameMax     = 32
	PasswordMin    = 8
	PasswordMax    = 72 // bcrypt ignores bytes beyond 72
	MaxTagsPerSet  = 50
)

var (
	hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	otpCode  = regexp.MustCompile(`^[0-9]{6}$`)
)

// DateLayout is the layout of date-only fields such as a task's due date.
const DateLayout = "2006-01-02"

// notBlank rejects strings made only of whitespace. validation.Required
// accepts them.
var notBlank = validation.NewStringRule(func(s string) bool {
	return strings.TrimSpace(s) != ""
}, "cannot be blank")

// name is the rule set shared by every display name.
func name(max int) []validation.Rule {
	return []validation.Rule{validation.Required, notBlank, validation.RuneLength(1, max)}
}

var objectID = []validation.Rule{validation.Required, is.MongoID}

// Check runs v.Validate and converts ozzo field errors into
// *apperr.InvalidInputError. Other errors pass through unchanged.
func Check(v validation.Validatable) error {
	err := v.Validate()
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		out := make(map[string]string, len(fieldErrs))
		for field, fe := range fieldErrs {
			if fe != nil {
				out[field] = fe.Error()
			}
		}
		return &apperr.InvalidInputError{Fields: out}
	}
	return err
}

/*─────────────────────────────────────────────────────────────────────────────*
| Generic shapes                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// NoInput is used by reads that take nothing beyond the session.
type NoInput struct{}

func (NoInput) Validate() error { return nil }

// IDInput targets a single existing document.
type IDInput struct {
	ID string `json:"id"`
}

func (in IDInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ID, objectID...),
	)
}

// StudySetRef targets the study set that owns a collection of children.
type StudySetRef struct {
	StudySetID string `json:"study_set_id"`
}

func (in StudySetRef) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.StudySetID, objectID...),
	)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Study sets                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// CreateStudySetInput creates a study set.
type CreateStudySetInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
	Notes       string `json:"notes"`
}

func (in CreateStudySetInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, name(NameMax)...),
		validation.Field(&in.Description, validation.Length(0, DescriptionMax)),
		validation.Field(&in.Subject, validation.Length(0, SubjectMax)),
		validation.Field(&in.Notes, validation.Length(0, BodyMax)),
	)
}

// UpdateStudySetDetailsInput edits the descriptive fields of a study set.
type UpdateStudySetDetailsInput struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Subject     string `json:"subject"`
}

func (in UpdateStudySetDetailsInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ID, objectID...),
		validation.Field(&in.Name, name(NameMax)...),
		validation.Field(&in.Description, validation.Length(0, DescriptionMax)),
		validation.Field(&in.Subject, validation.Length(0, SubjectMax)),
	)
}

// SetStudySetTagsInput replaces the tag set of a study set.
type SetStudySetTagsInput struct {
	ID     string   `json:"id"`
	TagIDs []string `json:"tag_ids"`
}

func (in SetStudySetTagsInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ID, objectID...),
		validation.Field(&in.TagIDs, validation.Length(0, MaxTagsPerSet), validation.Each(is.MongoID)),
	)
}

// AddImageInput attaches an image URL to a study set.
type AddImageInput struct {
	StudySetID string `json:"study_set_id"`
	URL        string `json:"url"`
	Caption    string `json:"caption"`
}

func (in AddImageInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.StudySetID, objectID...),
		validation.Field(&in.URL, validation.Required, is.URL),
		validation.Field(&in.Caption, validation.Length(0, NameMax*2)),
	)
}

// ImageRef targets one image of a study set.
type ImageRef struct {
	StudySetID string `json:"study_set_id"`
	ID         string `json:"id"`
}

func (in ImageRef) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.StudySetID, objectID...),
		validation.Field(&in.ID, objectID...),
	)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Notes & comments                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

// CreateBodyInput adds a note or comment to a study set.
type CreateBodyInput struct {
	StudySetID string `json:"study_set_id"`
	Body       string `json:"body"`
}

func (in CreateBodyInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.StudySetID, objectID...),
		validation.Field(&in.Body, validation.Required, notBlank, validation.RuneLength(1, BodyMax)),
	)
}

// EditBodyInput rewrites an existing note or comment.
type EditBodyInput struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

func (in EditBodyInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ID, objectID...),
		validation.Field(&in.Body, validation.Required, notBlank, validation.RuneLength(1, BodyMax)),
	)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Tasks                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

// CreateTaskInput adds an action item to a study set.
type CreateTaskInput struct {
	StudySetID string `json:"study_set_id"`
	Title      string `json:"title"`
	DueAt      string `json:"due_at"` // YYYY-MM-DD, optional
	AssigneeID string `json:"assignee_id"`
}

func (in CreateTaskInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.StudySetID, objectID...),
		validation.Field(&in.Title, name(NameMax*2)...),
		validation.Field(&in.DueAt, validation.Date(DateLayout)),
		validation.Field(&in.AssigneeID, is.MongoID),
	)
}

// UpdateTaskInput edits an action item.
type UpdateTaskInput struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Done  bool   `json:"done"`
	DueAt string `json:"due_at"`
}

func (in UpdateTaskInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ID, objectID...),
		validation.Field(&in.Title, name(NameMax*2)...),
		validation.Field(&in.DueAt, validation.Date(DateLayout)),
	)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Tags                                                                        |
*─────────────────────────────────────────────────────────────────────────────*/

// TagInput creates a tag (ID empty) or edits one.
type TagInput struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (in TagInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ID, is.MongoID),
		validation.Field(&in.Name, name(TagNameMax)...),
		validation.Field(&in.Color, validation.Match(hexColor).Error("must be a hex color like #1a2b3c")),
	)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Study group profile                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// UpdateStudyGroupInput edits the tenant profile.
type UpdateStudyGroupInput struct {
	Name         string `json:"name"`
	BillingEmail string `json:"billing_email"`
	Website      string `json:"website"`
	Description  string `json:"description"`
}

func (in UpdateStudyGroupInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, name(NameMax)...),
		validation.Field(&in.BillingEmail, is.EmailFormat),
		validation.Field(&in.Website, is.URL),
		validation.Field(&in.Description, validation.Length(0, DescriptionMax)),
	)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Webhooks                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

func webhookEvents() []interface{} {
	out := make([]interface{}, 0, len(models.WebhookEvents))
	for _, e := range models.WebhookEvents {
		out = append(out, e)
	}
	return out
}

// WebhookInput creates a webhook (ID empty) or edits one.
type WebhookInput struct {
	ID     string   `json:"id"`
	URL    string   `json:"url"`
	Events []string `json:"events"`
	Active bool     `json:"active"`
}

func (in WebhookInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ID, is.MongoID),
		validation.Field(&in.URL, validation.Required, is.RequestURL, validation.By(publicURL)),
		validation.Field(&in.Events, validation.Required, validation.Each(validation.In(webhookEvents()...))),
	)
}

// publicURL refuses webhook targets on private or local networks.
func publicURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	return webhooks.ValidateURL(s)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Invitations & accounts                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// CreateInvitationInput invites an email address to the caller's group.
type CreateInvitationInput struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (in CreateInvitationInput) Validate() error {
	roles := make([]interface{}, 0, len(models.InvitableRoles))
	for _, r := range models.InvitableRoles {
		roles = append(roles, r)
	}
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.EmailFormat),
		validation.Field(&in.Role, validation.In(roles...)),
	)
}

// JoinInput accepts an invitation and creates the invitee's account.
type JoinInput struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

func (in JoinInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ID, objectID...),
		validation.Field(&in.FullName, name(NameMax)...),
		validation.Field(&in.Password, validation.Required, validation.Length(PasswordMin, PasswordMax)),
	)
}

// SignupInput registers a new study group together with its owner.
type SignupInput struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	StudyGroupName string `json:"study_group_name"`
}

func (in SignupInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.FullName, name(NameMax)...),
		validation.Field(&in.Email, validation.Required, is.EmailFormat),
		validation.Field(&in.Password, validation.Required, validation.Length(PasswordMin, PasswordMax)),
		validation.Field(&in.StudyGroupName, name(NameMax)...),
	)
}

// LoginInput is a credentials sign-in attempt.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in LoginInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.EmailFormat),
		validation.Field(&in.Password, validation.Required),
	)
}

// VerifyInput carries the emailed one-time code.
type VerifyInput struct {
	Code string `json:"code"`
}

func (in VerifyInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Code, validation.Required, validation.Match(otpCode).Error("must be a 6-digit code")),
	)
}

// AuditQuery pages through a study group's audit trail, newest first.
type AuditQuery struct {
	Before string `json:"before"`
	Limit  int    `json:"limit"`
}

func (in AuditQuery) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Before, is.MongoID),
		validation.Field(&in.Limit, validation.Min(0)),
	)
}
