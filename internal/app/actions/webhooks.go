package actions

import (
	"context"

	"github.com/dalemusser/studyhub/internal/app/store/audit"
	"github.com/dalemusser/studyhub/internal/app/system/action"
	"github.com/dalemusser/studyhub/internal/app/system/cachetags"
	"github.com/dalemusser/studyhub/internal/app/system/normalize"
	"github.com/dalemusser/studyhub/internal/app/system/schema"
	"github.com/dalemusser/studyhub/internal/app/system/webhooks"
	"github.com/dalemusser/studyhub/internal/domain/models"
)

// WebhookCreated is returned once, at creation: it is the only time the
// signing secret is shown.
type WebhookCreated struct {
	models.Webhook
	Secret string `json:"secret"`
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func (s *Service) CreateWebhook(ctx context.Context, req action.Request[schema.WebhookInput]) (WebhookCreated, error) {
	tenant := req.Session.StudyGroupID
	w, err := s.Webhooks.Create(ctx, models.Webhook{
		StudyGroupID: tenant,
		URL:          normalize.Text(req.Input.URL),
		Events:       dedupe(req.Input.Events),
		Secret:       webhooks.NewSecret(),
		Active:       req.Input.Active,
	})
	if err != nil {
		return WebhookCreated{}, err
	}
	s.invalidate(cachetags.WriteCreateWebhook, tenant, w.ID)
	s.audit(ctx, req.Session, audit.EventWebhookCreated, w.ID)
	return WebhookCreated{Webhook: w, Secret: w.Secret}, nil
}

func (s *Service) UpdateWebhook(ctx context.Context, req action.Request[schema.WebhookInput]) (models.Webhook, error) {
	tenant := req.Session.StudyGroupID
	id, err := oid("id", req.Input.ID)
	if err != nil {
		return models.Webhook{}, err
	}
	if err := authorize(ctx, s.Webhooks, tenant, id, "Webhook"); err != nil {
		return models.Webhook{}, err
	}
	w, err := s.Webhooks.Get(ctx, tenant, id)
	if err != nil {
		return models.Webhook{}, err
	}
	w.URL = normalize.Text(req.Input.URL)
	w.Events = dedupe(req.Input.Events)
	w.Active = req.Input.Active
	if w, err = s.Webhooks.Save(ctx, w); err != nil {
		return models.Webhook{}, err
	}
	s.invalidate(cachetags.WriteUpdateWebhook, tenant, id)
	s.audit(ctx, req.Session, audit.EventWebhookUpdated, id)
	return w, nil
}

func (s *Service) DeleteWebhook(ctx context.Context, req action.Request[schema.IDInput]) (Done, error) {
	tenant := req.Session.StudyGroupID
	id, err := oid("id", req.Input.ID)
	if err != nil {
		return Done{}, err
	}
	if err := authorize(ctx, s.Webhooks, tenant, id, "Webhook"); err != nil {
		return Done{}, err
	}
	if err := s.Webhooks.Delete(ctx, tenant, id); err != nil {
		return Done{}, err
	}
	s.invalidate(cachetags.WriteDeleteWebhook, tenant, id)
	s.audit(ctx, req.Session, audit.EventWebhookDeleted, id)
	return Done{}, nil
}

func (s *Service) ListWebhooks(ctx context.Context, req action.Request[schema.NoInput]) ([]models.Webhook, error) {
	tenant := req.Session.StudyGroupID
	return read(ctx, s, cachetags.ReadListWebhooks, cachetags.Webhooks, tenant, "",
		func(ctx context.Context) ([]models.Webhook, error) {
			return s.Webhooks.List(ctx, tenant)
		})
}
