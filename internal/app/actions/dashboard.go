package actions

import (
	"context"

	"github.com/dalemusser/studyhub/internal/app/system/action"
	"github.com/dalemusser/studyhub/internal/app/system/cachetags"
	"github.com/dalemusser/studyhub/internal/app/system/schema"
	"golang.org/x/sync/errgroup"
)

// DashboardSummary is the study group's overview.
type DashboardSummary struct {
	StudySets          int64 `json:"study_sets"`
	Favorites          int64 `json:"favorites"`
	OpenTasks          int64 `json:"open_tasks"`
	OverdueTasks       int64 `json:"overdue_tasks"`
	Members            int64 `json:"members"`
	PendingInvitations int64 `json:"pending_invitations"`
}

func (s *Service) DashboardSummary(ctx context.Context, req action.Request[schema.NoInput]) (DashboardSummary, error) {
	tenant := req.Session.StudyGroupID
	return read(ctx, s, cachetags.ReadDashboardSummary, cachetags.Dashboard, tenant, "",
		func(ctx context.Context) (DashboardSummary, error) {
			var d DashboardSummary
			now := s.now()
			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() (err error) { d.StudySets, err = s.StudySets.CountAll(ctx, tenant); return })
			g.Go(func() (err error) { d.Favorites, err = s.StudySets.CountFavorites(ctx, tenant); return })
			g.Go(func() (err error) { d.OpenTasks, err = s.Tasks.CountOpen(ctx, tenant); return })
			g.Go(func() (err error) { d.OverdueTasks, err = s.Tasks.CountOverdue(ctx, tenant, now); return })
			g.Go(func() (err error) { d.Members, err = s.Users.CountByStudyGroup(ctx, tenant); return })
			g.Go(func() (err error) { d.PendingInvitations, err = s.Invitations.CountPending(ctx, tenant); return })
			if err := g.Wait(); err != nil {
				return DashboardSummary{}, err
			}
			return d, nil
		})
}
