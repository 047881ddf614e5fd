package actions

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/studyhub/internal/app/store/audit"
	userstore "github.com/dalemusser/studyhub/internal/app/store/users"
	"github.com/dalemusser/studyhub/internal/app/system/action"
	"github.com/dalemusser/studyhub/internal/app/system/apperr"
	"github.com/dalemusser/studyhub/internal/app/system/auth"
	"github.com/dalemusser/studyhub/internal/app/system/cachetags"
	"github.com/dalemusser/studyhub/internal/app/system/mailer"
	"github.com/dalemusser/studyhub/internal/app/system/normalize"
	"github.com/dalemusser/studyhub/internal/app/system/schema"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.uber.org/zap"
)

// InvitationSent reports a created or resent invitation and whether its
// email went out. A failed email leaves the invitation PENDING so it can
// be resent.
type InvitationSent struct {
	Invitation models.Invitation `json:"invitation"`
	EmailSent  bool              `json:"email_sent"`
}

// JoinLink is the public URL an invitee follows.
func (s *Service) JoinLink(inv models.Invitation) string {
	return strings.TrimRight(s.BaseURL, "/") + "/join/" + inv.ID.Hex()
}

func (s *Service) CreateInvitation(ctx context.Context, req action.Request[schema.CreateInvitationInput]) (InvitationSent, error) {
	tenant := req.Session.StudyGroupID
	email := normalize.Email(req.Input.Email)

	exists, err := s.Users.ExistsByEmail(ctx, email)
	if err != nil {
		return InvitationSent{}, err
	}
	if exists {
		return InvitationSent{}, apperr.Conflict("A user with this email already exists.")
	}
	pending, err := s.Invitations.PendingExists(ctx, tenant, email)
	if err != nil {
		return InvitationSent{}, err
	}
	if pending {
		return InvitationSent{}, apperr.Conflict("An invitation for this email is already pending.")
	}

	inv, err := s.Invitations.Create(ctx, models.Invitation{
		StudyGroupID: tenant,
		Email:        email,
		Role:         normalize.Role(req.Input.Role),
		InvitedByID:  req.Session.ID,
	})
	if err != nil {
		return InvitationSent{}, err
	}
	s.invalidate(cachetags.WriteCreateInvitation, tenant, inv.ID)
	s.audit(ctx, req.Session, audit.EventInvitationSent, inv.ID)

	return InvitationSent{Invitation: inv, EmailSent: s.sendInvitation(ctx, req.Session, inv)}, nil
}

// ResendInvitation emails a PENDING invitation again and records when.
func (s *Service) ResendInvitation(ctx context.Context, req action.Request[schema.IDInput]) (InvitationSent, error) {
	tenant := req.Session.StudyGroupID
	id, err := oid("id", req.Input.ID)
	if err != nil {
		return InvitationSent{}, err
	}
	if err := authorize(ctx, s.Invitations, tenant, id, "Invitation"); err != nil {
		return InvitationSent{}, err
	}
	at := s.now()
	if err := s.Invitations.MarkSent(ctx, tenant, id, at); err != nil {
		return InvitationSent{}, err
	}
	inv, err := s.Invitations.Get(ctx, tenant, id)
	if err != nil {
		return InvitationSent{}, err
	}
	s.invalidate(cachetags.WriteResendInvitation, tenant, id)

	return InvitationSent{Invitation: inv, EmailSent: s.sendInvitation(ctx, req.Session, inv)}, nil
}

// DeleteInvitation revokes a PENDING invitation by removing it.
func (s *Service) DeleteInvitation(ctx context.Context, req action.Request[schema.IDInput]) (Done, error) {
	tenant := req.Session.StudyGroupID
	id, err := oid("id", req.Input.ID)
	if err != nil {
		return Done{}, err
	}
	if err := authorize(ctx, s.Invitations, tenant, id, "Invitation"); err != nil {
		return Done{}, err
	}
	if err := s.Invitations.DeletePending(ctx, tenant, id); err != nil {
		return Done{}, err
	}
	s.invalidate(cachetags.WriteDeleteInvitation, tenant, id)
	s.audit(ctx, req.Session, audit.EventInvitationRevoked, id)
	return Done{}, nil
}

func (s *Service) ListInvitations(ctx context.Context, req action.Request[schema.NoInput]) ([]models.Invitation, error) {
	tenant := req.Session.StudyGroupID
	return read(ctx, s, cachetags.ReadListInvitations, cachetags.Invitations, tenant, "",
		func(ctx context.Context) ([]models.Invitation, error) {
			return s.Invitations.List(ctx, tenant)
		})
}

func (s *Service) sendInvitation(ctx context.Context, inviter *auth.SessionUser, inv models.Invitation) bool {
	if s.Mailer == nil {
		return false
	}
	groupName := s.SiteName
	if sg, err := s.StudyGroups.GetByID(ctx, inv.StudyGroupID); err == nil {
		groupName = sg.Name
	}
	email := mailer.BuildInvitationEmail(mailer.InvitationEmailData{
		SiteName:       s.SiteName,
		StudyGroupName: groupName,
		InviterName:    inviter.Name,
		Role:           inv.Role,
		JoinLink:       s.JoinLink(inv),
	})
	email.To = inv.Email
	if err := s.Mailer.Send(ctx, email); err != nil {
		s.Log.Warn("invitation email failed",
			zap.String("invitation_id", inv.ID.Hex()),
			zap.Error(apperr.Upstream("send invitation", err)))
		return false
	}
	return true
}

// Join accepts a PENDING invitation: it creates the invitee's account and
// marks the invitation ACCEPTED in one transaction. Unknown or already
// used invitations fail with "Invitation not found or already used".
func (s *Service) Join(ctx context.Context, req action.Request[schema.JoinInput]) (models.User, error) {
	id, err := oid("id", req.Input.ID)
	if err != nil {
		return models.User{}, err
	}
	inv, err := s.Invitations.FindPending(ctx, id)
	if err != nil {
		return models.User{}, err
	}

	exists, err := s.Users.ExistsByEmail(ctx, inv.Email)
	if err != nil {
		return models.User{}, err
	}
	if exists {
		return models.User{}, apperr.Conflict("A user with this email already exists.")
	}

	hash, err := auth.HashPassword(req.Input.Password)
	if err != nil {
		return models.User{}, err
	}

	var user models.User
	err = s.Txn.Run(ctx, func(ctx context.Context) error {
		u, err := s.Users.Create(ctx, models.User{
			StudyGroupID: inv.StudyGroupID,
			FullName:     req.Input.FullName,
			Email:        inv.Email,
			PasswordHash: hash,
			Role:         inv.Role,
			// The link was delivered to this address.
			EmailVerified: true,
		})
		if err != nil {
			return err
		}
		user = u
		return s.Invitations.MarkAccepted(ctx, inv.ID, s.now())
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		return models.User{}, apperr.Conflict("A user with this email already exists.")
	}
	if err != nil {
		return models.User{}, err
	}

	s.invalidate(cachetags.WriteJoin, inv.StudyGroupID, inv.ID)
	s.publish(ctx, inv.StudyGroupID, models.EventMemberJoined, map[string]string{
		"user_id": user.ID.Hex(),
		"email":   user.Email,
		"role":    user.Role,
	})
	return user, nil
}
