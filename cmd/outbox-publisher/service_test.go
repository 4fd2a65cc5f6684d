package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/greenloop-app/greenloop-backend/pkg/config"
	"github.com/greenloop-app/greenloop-backend/pkg/db/models"
	"github.com/greenloop-app/greenloop-backend/pkg/enums"
	"github.com/greenloop-app/greenloop-backend/pkg/logger"
	"github.com/greenloop-app/greenloop-backend/pkg/outbox"
)

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	fetchErr  error
}

func (f *fakeRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if limit < len(f.events) {
		return f.events[:limit], nil
	}
	return f.events, nil
}

func (f *fakeRepo) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakeBus struct {
	channels []string
	payloads [][]byte
	errs     []error
	calls    int
}

func (f *fakeBus) Ping(context.Context) error {
	return nil
}

func (f *fakeBus) Publish(ctx context.Context, channel string, payload []byte) error {
	idx := f.calls
	f.calls++
	f.channels = append(f.channels, channel)
	f.payloads = append(f.payloads, payload)
	if idx < len(f.errs) {
		return f.errs[idx]
	}
	return nil
}

type fakePinger struct{}

func (fakePinger) Ping(context.Context) error {
	return nil
}

func newTestService(t *testing.T, repo outboxRepository, bus eventBus) *Service {
	t.Helper()
	cfg := &config.Config{}
	cfg.Outbox.Channel = "test.events"
	cfg.Outbox.BatchSize = 10
	cfg.Outbox.MaxAttempts = 3
	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logger.New(logger.Options{ServiceName: "outbox-test", Level: zerolog.Disabled, Output: io.Discard}),
		DB:         fakePinger{},
		Bus:        bus,
		Repository: repo,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func orderEvent(t *testing.T) models.OutboxEvent {
	t.Helper()
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       json.RawMessage(`{"order_id":"` + uuid.NewString() + `"}`),
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		CreatedAt:     time.Now(),
		Payload:       payload,
	}
}

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	event := orderEvent(t)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	bus := &fakeBus{}
	service := newTestService(t, repo, bus)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(repo.published); got != 1 {
		t.Fatalf("unexpected number of published rows: %d", got)
	}
	if repo.published[0] != event.ID {
		t.Fatalf("published row recorded wrong ID")
	}
	if bus.channels[0] != "test.events" {
		t.Fatalf("published to wrong channel %q", bus.channels[0])
	}

	var msg busMessage
	if err := json.Unmarshal(bus.payloads[0], &msg); err != nil {
		t.Fatalf("decode bus message: %v", err)
	}
	if msg.OutboxID != event.ID {
		t.Fatalf("bus message carries wrong outbox id")
	}
	if msg.EventType != string(enums.EventOrderCreated) {
		t.Fatalf("bus message carries wrong event type %q", msg.EventType)
	}
}

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	first := orderEvent(t)
	second := orderEvent(t)
	repo := &fakeRepo{events: []models.OutboxEvent{first, second}}
	bus := &fakeBus{errs: []error{errors.New("transient")}}
	service := newTestService(t, repo, bus)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if got := len(repo.failed); got != 1 {
		t.Fatalf("unexpected number of failed rows: %d", got)
	}
	if repo.failed[0] != first.ID {
		t.Fatalf("failed row recorded wrong ID")
	}
	if got := len(repo.published); got != 1 {
		t.Fatalf("unexpected number of published rows: %d", got)
	}
	if repo.published[0] != second.ID {
		t.Fatalf("published row recorded wrong ID")
	}
}

func TestProcessBatchReportsIdleWhenEmpty(t *testing.T) {
	repo := &fakeRepo{}
	bus := &fakeBus{}
	service := newTestService(t, repo, bus)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if processed {
		t.Fatalf("expected idle batch")
	}
	if bus.calls != 0 {
		t.Fatalf("expected no publishes, got %d", bus.calls)
	}
}

func TestProcessBatchSurfacesFetchError(t *testing.T) {
	repo := &fakeRepo{fetchErr: errors.New("db down")}
	service := newTestService(t, repo, &fakeBus{})

	if _, err := service.processBatch(context.Background()); err == nil {
		t.Fatalf("expected fetch error to surface")
	}
}

func TestNextBackoffDoublesUpToMax(t *testing.T) {
	base := 500 * time.Millisecond
	got := nextBackoff(base, base, maxBackoff)
	if got != time.Second {
		t.Fatalf("expected 1s, got %v", got)
	}
	got = nextBackoff(8*time.Second, base, maxBackoff)
	if got != maxBackoff {
		t.Fatalf("expected cap at %v, got %v", maxBackoff, got)
	}
}
