package actions

import (
	"context"
	"time"

	"github.com/dalemusser/studyhub/internal/app/system/action"
	"github.com/dalemusser/studyhub/internal/app/system/apperr"
	"github.com/dalemusser/studyhub/internal/app/system/cachetags"
	"github.com/dalemusser/studyhub/internal/app/system/normalize"
	"github.com/dalemusser/studyhub/internal/app/system/schema"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// parseDue turns an optional YYYY-MM-DD string into a UTC midnight.
func parseDue(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(schema.DateLayout, s, time.UTC)
	if err != nil {
		return nil, apperr.InvalidField("due_at", "must be a date (YYYY-MM-DD)")
	}
	return &t, nil
}

func (s *Service) CreateTask(ctx context.Context, req action.Request[schema.CreateTaskInput]) (models.Task, error) {
	in, tenant := req.Input, req.Session.StudyGroupID
	setID, err := oid("study_set_id", in.StudySetID)
	if err != nil {
		return models.Task{}, err
	}
	due, err := parseDue(in.DueAt)
	if err != nil {
		return models.Task{}, err
	}
	assignee, err := s.checkAssignee(ctx, tenant, in.AssigneeID)
	if err != nil {
		return models.Task{}, err
	}

	t, err := addChild[models.Task](ctx, s, s.Tasks, tenant, setID, cachetags.WriteCreateTask, models.Task{
		StudyGroupID: tenant,
		StudySetID:   setID,
		Title:        normalize.Name(in.Title),
		DueAt:        due,
		AssigneeID:   assignee,
	})
	if err != nil {
		return models.Task{}, err
	}
	s.publish(ctx, tenant, models.EventTaskCreated, t)
	return t, nil
}

// checkAssignee parses an optional assignee and requires them to be a
// member of tenant.
func (s *Service) checkAssignee(ctx context.Context, tenant primitive.ObjectID, hex string) (*primitive.ObjectID, error) {
	id, err := optionalOID("assignee_id", hex)
	if err != nil || id == nil {
		return nil, err
	}
	n, err := s.Users.CountInStudyGroup(ctx, tenant, *id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperr.InvalidField("assignee_id", "is not a member of this study group")
	}
	return id, nil
}

func (s *Service) UpdateTask(ctx context.Context, req action.Request[schema.UpdateTaskInput]) (models.Task, error) {
	in, tenant := req.Input, req.Session.StudyGroupID
	id, err := oid("id", in.ID)
	if err != nil {
		return models.Task{}, err
	}
	due, err := parseDue(in.DueAt)
	if err != nil {
		return models.Task{}, err
	}
	t, err := editChild[models.Task](ctx, s, s.Tasks, tenant, id, "Task", cachetags.WriteUpdateTask, func(t *models.Task) {
		t.Title = normalize.Name(in.Title)
		t.Done = in.Done
		t.DueAt = due
	})
	if err != nil {
		return models.Task{}, err
	}
	s.publish(ctx, tenant, models.EventTaskUpdated, t)
	return t, nil
}

func (s *Service) DeleteTask(ctx context.Context, req action.Request[schema.IDInput]) (Done, error) {
	id, err := oid("id", req.Input.ID)
	if err != nil {
		return Done{}, err
	}
	return Done{}, deleteChild[models.Task](ctx, s, s.Tasks, req.Session.StudyGroupID, primitive.NilObjectID, id, "Task", cachetags.WriteDeleteTask)
}

func (s *Service) ListTasks(ctx context.Context, req action.Request[schema.StudySetRef]) ([]models.Task, error) {
	return listChildren[models.Task](ctx, s, s.Tasks, cachetags.ReadListTasks, cachetags.Tasks, req.Session.StudyGroupID, req.Input.StudySetID)
}
