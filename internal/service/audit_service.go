package service

import (
	"context"
	"log/slog"
	"time"

	"go-video-backend/internal/event"
	"go-video-backend/internal/model"
	"go-video-backend/pkg/apierror"
)

const (
	auditStatusSuccess = "success"
	auditStatusFailure = "failure"
)

type AuditStore interface {
	Log(ctx context.Context, entry model.AuditEntry) error
	Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error)
}

// AuditService persists auth events published on the bus.
type AuditService struct {
	store AuditStore
}

func NewAuditService(store AuditStore) *AuditService {
	return &AuditService{store: store}
}

// Start subscribes to bus and records events until the returned stop
// function is called. Stop drains buffered events before returning.
func (s *AuditService) Start(bus event.Bus) (stop func()) {
	events, unsubscribe := bus.Subscribe()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for e := range events {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			s.Record(ctx, e)
			cancel()
		}
	}()

	return func() {
		unsubscribe()
		<-done
	}
}

func (s *AuditService) Record(ctx context.Context, e event.Event) {
	status := auditStatusSuccess
	if e.Failed() {
		status = auditStatusFailure
	}

	entry := model.AuditEntry{
		ID:         e.ID,
		Action:     string(e.Type),
		UserID:     e.UserID,
		Identifier: e.Identifier,
		Status:     status,
		Reason:     e.Reason,
		OccurredAt: e.OccurredAt,
	}

	if err := s.store.Log(ctx, entry); err != nil {
		slog.Error("failed to record audit entry", "action", entry.Action, "error", err)
	}
}

func (s *AuditService) Query(ctx context.Context, query model.AuditQuery) ([]model.AuditEntry, model.Meta, error) {
	entries, meta, err := s.store.Query(ctx, query.Normalize())
	if err != nil {
		return nil, model.Meta{}, apierror.Internal("failed to query audit entries", err)
	}
	return entries, meta, nil
}
