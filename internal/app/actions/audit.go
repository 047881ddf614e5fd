package actions

import (
	"context"

	"github.com/dalemusser/studyhub/internal/app/store/audit"
	"github.com/dalemusser/studyhub/internal/app/system/action"
	"github.com/dalemusser/studyhub/internal/app/system/paging"
	"github.com/dalemusser/studyhub/internal/app/system/schema"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListAuditEvents pages through the caller's study group audit trail. It
// is not cached: the trail grows on every sign-in.
func (s *Service) ListAuditEvents(ctx context.Context, req action.Request[schema.AuditQuery]) (paging.Page[audit.Event], error) {
	if s.AuditEvents == nil {
		return paging.Page[audit.Event]{Items: []audit.Event{}}, nil
	}
	before, err := optionalOID("before", req.Input.Before)
	if err != nil {
		return paging.Page[audit.Event]{}, err
	}
	limit := paging.Clamp(req.Input.Limit)
	rows, err := s.AuditEvents.ListByStudyGroup(ctx, req.Session.StudyGroupID, before, paging.LimitPlusOne(limit))
	if err != nil {
		return paging.Page[audit.Event]{}, err
	}
	return paging.TrimPage(rows, limit, func(e audit.Event) primitive.ObjectID { return e.ID }), nil
}
