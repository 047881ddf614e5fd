package actions

import (
	"context"

	"github.com/dalemusser/studyhub/internal/app/store/audit"
	"github.com/dalemusser/studyhub/internal/app/system/action"
	"github.com/dalemusser/studyhub/internal/app/system/apperr"
	"github.com/dalemusser/studyhub/internal/app/system/billing"
	"github.com/dalemusser/studyhub/internal/app/system/cachetags"
	"github.com/dalemusser/studyhub/internal/app/system/normalize"
	"github.com/dalemusser/studyhub/internal/app/system/schema"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.uber.org/zap"
)

func (s *Service) GetStudyGroup(ctx context.Context, req action.Request[schema.NoInput]) (models.StudyGroup, error) {
	tenant := req.Session.StudyGroupID
	return read(ctx, s, cachetags.ReadGetStudyGroup, cachetags.StudyGroup, tenant, "",
		func(ctx context.Context) (models.StudyGroup, error) {
			return s.StudyGroups.GetByID(ctx, tenant)
		})
}

// UpdateStudyGroup edits the caller's study group profile. When the name
// or billing email changes and the group has a payment customer, the
// customer is updated too; that sync never fails the edit.
func (s *Service) UpdateStudyGroup(ctx context.Context, req action.Request[schema.UpdateStudyGroupInput]) (models.StudyGroup, error) {
	in, tenant := req.Input, req.Session.StudyGroupID
	sg, err := s.StudyGroups.GetByID(ctx, tenant)
	if err != nil {
		return models.StudyGroup{}, err
	}
	before := sg

	sg.Name = normalize.Name(in.Name)
	sg.BillingEmail = normalize.Email(in.BillingEmail)
	sg.Website = normalize.Text(in.Website)
	sg.Description = normalize.Text(in.Description)
	if sg, err = s.StudyGroups.UpdateProfile(ctx, sg); err != nil {
		return models.StudyGroup{}, err
	}
	s.invalidate(cachetags.WriteUpdateStudyGroup, tenant, tenant)
	s.audit(ctx, req.Session, audit.EventStudyGroupUpdated, tenant)

	if sg.StripeCustomerID != "" && (sg.Name != before.Name || sg.BillingEmail != before.BillingEmail) {
		s.syncBilling(ctx, sg)
	}
	return sg, nil
}

func (s *Service) syncBilling(ctx context.Context, sg models.StudyGroup) {
	err := s.Billing.UpdateCustomer(ctx, sg.StripeCustomerID, billing.Fields{Name: sg.Name, Email: sg.BillingEmail})
	if err != nil {
		s.Log.Warn("billing sync failed",
			zap.String("study_group_id", sg.ID.Hex()),
			zap.Error(apperr.Upstream("billing sync", err)))
	}
}
