package actions

import (
	"context"

	"github.com/dalemusser/studyhub/internal/app/store/audit"
	"github.com/dalemusser/studyhub/internal/app/system/action"
	"github.com/dalemusser/studyhub/internal/app/system/paging"
	"github.com/dalemusser/studyhub/internal/app/system/schema"
	"github.com/dalemusser/studyhub/internal/app/system/timeouts"
	"github.com/dalemusser/studyhub/internal/domain/models"
)

// Call is a wrapped operation as the transport sees it.
type Call[In any, Out any] func(context.Context, In) action.Result[Out]

// Actions exposes every operation wrapped with session resolution and
// validation. Handlers in features call these, never the Service directly.
type Actions struct {
	// Study sets
	CreateStudySet        Call[schema.CreateStudySetInput, models.StudySet]
	UpdateStudySetDetails Call[schema.UpdateStudySetDetailsInput, models.StudySet]
	DeleteStudySet        Call[schema.IDInput, Done]
	SetStudySetTags       Call[schema.SetStudySetTagsInput, models.StudySet]
	ListStudySets         Call[schema.NoInput, []models.StudySet]
	GetStudySet           Call[schema.IDInput, StudySetView]

	// Favorites
	AddFavorite    Call[schema.IDInput, Done]
	RemoveFavorite Call[schema.IDInput, Done]
	ListFavorites  Call[schema.NoInput, []models.StudySet]

	// Attachments
	AddImage      Call[schema.AddImageInput, models.StudySetImage]
	DeleteImage   Call[schema.ImageRef, Done]
	ListImages    Call[schema.StudySetRef, []models.StudySetImage]
	CreateNote    Call[schema.CreateBodyInput, models.Note]
	UpdateNote    Call[schema.EditBodyInput, models.Note]
	DeleteNote    Call[schema.IDInput, Done]
	ListNotes     Call[schema.StudySetRef, []models.Note]
	CreateComment Call[schema.CreateBodyInput, models.Comment]
	UpdateComment Call[schema.EditBodyInput, models.Comment]
	DeleteComment Call[schema.IDInput, Done]
	ListComments  Call[schema.StudySetRef, []models.Comment]
	CreateTask    Call[schema.CreateTaskInput, models.Task]
	UpdateTask    Call[schema.UpdateTaskInput, models.Task]
	DeleteTask    Call[schema.IDInput, Done]
	ListTasks     Call[schema.StudySetRef, []models.Task]

	// Tags
	CreateTag Call[schema.TagInput, models.Tag]
	UpdateTag Call[schema.TagInput, models.Tag]
	DeleteTag Call[schema.IDInput, Done]
	ListTags  Call[schema.NoInput, []models.Tag]

	// Study group administration
	GetStudyGroup    Call[schema.NoInput, models.StudyGroup]
	UpdateStudyGroup Call[schema.UpdateStudyGroupInput, models.StudyGroup]
	CreateWebhook    Call[schema.WebhookInput, WebhookCreated]
	UpdateWebhook    Call[schema.WebhookInput, models.Webhook]
	DeleteWebhook    Call[schema.IDInput, Done]
	ListWebhooks     Call[schema.NoInput, []models.Webhook]
	CreateInvitation Call[schema.CreateInvitationInput, InvitationSent]
	ResendInvitation Call[schema.IDInput, InvitationSent]
	DeleteInvitation Call[schema.IDInput, Done]
	ListInvitations  Call[schema.NoInput, []models.Invitation]
	DashboardSummary Call[schema.NoInput, DashboardSummary]
	ListAuditEvents  Call[schema.AuditQuery, paging.Page[audit.Event]]

	// Public and authentication flows
	Join        Call[schema.JoinInput, models.User]
	Signup      Call[schema.SignupInput, Pending]
	Login       Call[schema.LoginInput, LoginResult]
	VerifyEmail Call[schema.VerifyInput, models.User]
	ResendCode  Call[schema.NoInput, Pending]
	IssueToken  Call[schema.NoInput, TokenResult]
}

// timed bounds a handler with the medium operation timeout.
func timed[In any, Out any](h func(context.Context, action.Request[In]) (Out, error)) func(context.Context, action.Request[In]) (Out, error) {
	return func(ctx context.Context, req action.Request[In]) (Out, error) {
		ctx, cancel := timeouts.WithMedium(ctx)
		defer cancel()
		return h(ctx, req)
	}
}

// Bind wraps every Service operation with rn.
func Bind(rn *action.Runner, s *Service) *Actions {
	return &Actions{
		CreateStudySet:        action.Wrap(rn, "CreateStudySet", timed(s.CreateStudySet)),
		UpdateStudySetDetails: action.Wrap(rn, "UpdateStudySetDetails", timed(s.UpdateStudySetDetails)),
		DeleteStudySet:        action.Wrap(rn, "DeleteStudySet", timed(s.DeleteStudySet)),
		SetStudySetTags:       action.Wrap(rn, "SetStudySetTags", timed(s.SetStudySetTags)),
		ListStudySets:         action.Wrap(rn, "ListStudySets", timed(s.ListStudySets)),
		GetStudySet:           action.Wrap(rn, "GetStudySet", timed(s.GetStudySet)),

		AddFavorite:    action.Wrap(rn, "AddFavorite", timed(s.AddFavorite)),
		RemoveFavorite: action.Wrap(rn, "RemoveFavorite", timed(s.RemoveFavorite)),
		ListFavorites:  action.Wrap(rn, "ListFavorites", timed(s.ListFavorites)),

		AddImage:      action.Wrap(rn, "AddImage", timed(s.AddImage)),
		DeleteImage:   action.Wrap(rn, "DeleteImage", timed(s.DeleteImage)),
		ListImages:    action.Wrap(rn, "ListImages", timed(s.ListImages)),
		CreateNote:    action.Wrap(rn, "CreateNote", timed(s.CreateNote)),
		UpdateNote:    action.Wrap(rn, "UpdateNote", timed(s.UpdateNote)),
		DeleteNote:    action.Wrap(rn, "DeleteNote", timed(s.DeleteNote)),
		ListNotes:     action.Wrap(rn, "ListNotes", timed(s.ListNotes)),
		CreateComment: action.Wrap(rn, "CreateComment", timed(s.CreateComment)),
		UpdateComment: action.Wrap(rn, "UpdateComment", timed(s.UpdateComment)),
		DeleteComment: action.Wrap(rn, "DeleteComment", timed(s.DeleteComment)),
		ListComments:  action.Wrap(rn, "ListComments", timed(s.ListComments)),
		CreateTask:    action.Wrap(rn, "CreateTask", timed(s.CreateTask)),
		UpdateTask:    action.Wrap(rn, "UpdateTask", timed(s.UpdateTask)),
		DeleteTask:    action.Wrap(rn, "DeleteTask", timed(s.DeleteTask)),
		ListTasks:     action.Wrap(rn, "ListTasks", timed(s.ListTasks)),

		CreateTag: action.Wrap(rn, "CreateTag", timed(s.CreateTag)),
		UpdateTag: action.Wrap(rn, "UpdateTag", timed(s.UpdateTag)),
		DeleteTag: action.Wrap(rn, "DeleteTag", timed(s.DeleteTag)),
		ListTags:  action.Wrap(rn, "ListTags", timed(s.ListTags)),

		GetStudyGroup:    action.Wrap(rn, "GetStudyGroup", timed(s.GetStudyGroup)),
		UpdateStudyGroup: action.Wrap(rn, "UpdateStudyGroup", timed(s.UpdateStudyGroup)),
		CreateWebhook:    action.Wrap(rn, "CreateWebhook", timed(s.CreateWebhook)),
		UpdateWebhook:    action.Wrap(rn, "UpdateWebhook", timed(s.UpdateWebhook)),
		DeleteWebhook:    action.Wrap(rn, "DeleteWebhook", timed(s.DeleteWebhook)),
		ListWebhooks:     action.Wrap(rn, "ListWebhooks", timed(s.ListWebhooks)),
		CreateInvitation: action.Wrap(rn, "CreateInvitation", timed(s.CreateInvitation)),
		ResendInvitation: action.Wrap(rn, "ResendInvitation", timed(s.ResendInvitation)),
		DeleteInvitation: action.Wrap(rn, "DeleteInvitation", timed(s.DeleteInvitation)),
		ListInvitations:  action.Wrap(rn, "ListInvitations", timed(s.ListInvitations)),
		DashboardSummary: action.Wrap(rn, "DashboardSummary", timed(s.DashboardSummary)),
		ListAuditEvents:  action.Wrap(rn, "ListAuditEvents", timed(s.ListAuditEvents)),

		Join:        action.WrapPublic(rn, "Join", timed(s.Join)),
		Signup:      action.WrapPublic(rn, "Signup", timed(s.Signup)),
		Login:       action.WrapPublic(rn, "Login", timed(s.Login)),
		VerifyEmail: action.WrapPublic(rn, "VerifyEmail", timed(s.VerifyEmail)),
		ResendCode:  action.WrapPublic(rn, "ResendCode", timed(s.ResendCode)),
		IssueToken:  action.Wrap(rn, "IssueToken", timed(s.IssueToken)),
	}
}
