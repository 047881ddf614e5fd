// Package webhooks delivers signed event notifications to the URLs a study
// group has registered.
//
// Delivery is fire-and-forget: Publish enqueues and returns immediately, a
// fixed pool of workers posts the payloads, and failures are logged and
// dropped. A full queue drops the event rather than blocking the mutation
// that produced it.
package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/studyhub/internal/app/system/ratelimit"
	"github.com/dalemusser/studyhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// SignatureHeader carries "sha256=" + hex(HMAC-SHA256(secret, body)).
const SignatureHeader = "X-StudyHub-Signature"

// EventHeader carries the event name.
const EventHeader = "X-StudyHub-Event"

// Event is one notification.
type Event struct {
	ID           string             `json:"id"`
	Name         string             `json:"event"`
	StudyGroupID primitive.ObjectID `json:"study_group_id"`
	OccurredAt   time.Time          `json:"occurred_at"`
	Data         any                `json:"data,omitempty"`
}

// Lister returns the webhooks registered by a study group.
type Lister interface {
	ListActive(ctx context.Context, studyGroupID primitive.ObjectID) ([]models.Webhook, error)
}

// Config tunes the dispatcher.
type Config struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration // per delivery
	// PerHookBurst and PerHookPerMinute bound deliveries to a single webhook.
	PerHookBurst     int
	PerHookPerMinute int
}

func (c *Config) defaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.PerHookBurst <= 0 {
		c.PerHookBurst = 10
	}
	if c.PerHookPerMinute <= 0 {
		c.PerHookPerMinute = 60
	}
}

// Dispatcher owns the delivery queue and workers.
type Dispatcher struct {
	hooks  Lister
	client *http.Client
	cfg    Config
	limits *ratelimit.Keyed
	log    *zap.Logger

	queue    chan Event
	wg       sync.WaitGroup
	mu       sync.Mutex
	started  bool
	stopped  bool
	stopOnce sync.Once
}

// New creates a Dispatcher. Call Start before publishing and Stop at
// shutdown.
func New(hooks Lister, cfg Config, logger *zap.Logger) *Dispatcher {
	cfg.defaults()
	return &Dispatcher{
		hooks:  hooks,
		client: SafeClient(cfg.Timeout),
		cfg:    cfg,
		limits: ratelimit.New(cfg.PerHookBurst, cfg.PerHookPerMinute, time.Minute),
		log:    logger,
		queue:  make(chan Event, cfg.QueueSize),
	}
}

// WithHTTPClient replaces the SafeClient default. Tests use it to reach
// httptest servers on loopback.
func (d *Dispatcher) WithHTTPClient(c *http.Client) *Dispatcher {
	d.client = c
	return d
}

// Start launches the workers. It is a no-op if already started.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.log.Info("webhook dispatcher started", zap.Int("workers", d.cfg.Workers))
}

// Stop stops accepting events, drains the queue and waits for the workers,
// or until ctx is done.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		d.stopped = true
		close(d.queue)
		d.mu.Unlock()
		d.limits.Stop()
	})

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		d.log.Info("webhook dispatcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Publish enqueues ev for delivery. It never blocks; when the queue is full
// or the dispatcher is stopped the event is dropped and logged.
func (d *Dispatcher) Publish(_ context.Context, ev Event) {
	if d == nil {
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		d.log.Warn("webhook event dropped; dispatcher stopped", zap.String("event", ev.Name))
		return
	}
	select {
	case d.queue <- ev:
	default:
		d.log.Warn("webhook event dropped; queue full",
			zap.String("event", ev.Name),
			zap.String("study_group_id", ev.StudyGroupID.Hex()))
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for ev := range d.queue {
		d.fanOut(ev)
	}
}

// fanOut delivers ev to every subscribed webhook of its study group.
func (d *Dispatcher) fanOut(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Timeout)
	hooks, err := d.hooks.ListActive(ctx, ev.StudyGroupID)
	cancel()
	if err != nil {
		d.log.Warn("webhook lookup failed", zap.Error(err), zap.String("event", ev.Name))
		return
	}

	body, err := json.Marshal(ev)
	if err != nil {
		d.log.Error("webhook payload encode failed", zap.Error(err), zap.String("event", ev.Name))
		return
	}

	for _, h := range hooks {
		if !h.Subscribes(ev.Name) {
			continue
		}
		if err := d.deliver(h, ev, body); err != nil {
			d.log.Warn("webhook delivery failed",
				zap.Error(err),
				zap.String("webhook_id", h.ID.Hex()),
				zap.String("event", ev.Name),
				zap.String("event_id", ev.ID))
		}
	}
}

func (d *Dispatcher) deliver(h models.Webhook, ev Event, body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Timeout)
	defer cancel()

	if err := d.limits.Limiter(h.ID.Hex()).Wait(ctx); err != nil {
		return fmt.Errorf("rate limited: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "StudyHub-Webhooks/1.0")
	req.Header.Set(EventHeader, ev.Name)
	req.Header.Set(SignatureHeader, Sign(h.Secret, body))

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("endpoint returned %s", resp.Status)
	}
	d.log.Debug("webhook delivered",
		zap.String("webhook_id", h.ID.Hex()),
		zap.String("event", ev.Name),
		zap.Int("status", resp.StatusCode))
	return nil
}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is a valid Sign(secret, body). Receivers
// use it; it runs in constant time.
func Verify(secret string, body []byte, signature string) bool {
	got, ok := strings.CutPrefix(signature, "sha256=")
	if !ok {
		return false
	}
	raw, err := hex.DecodeString(got)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(raw, mac.Sum(nil))
}

// NewSecret returns a random signing secret for a new webhook.
func NewSecret() string {
	return "whsec_" + strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
