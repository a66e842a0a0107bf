package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/quorumlabs/minute/internal/auth/domain"
	"github.com/quorumlabs/minute/internal/auth/store"
	"github.com/quorumlabs/minute/pkg/idx"
)

const defaultAuditBuffer = 256

// AuditService writes security events to the audit log without blocking the
// request path. Entries are queued to a background writer; when the queue is
// full the entry is dropped and logged, never the response delayed.
type AuditService struct {
	Store  store.Store
	Logger *slog.Logger

	queue  chan domain.AuditEntry
	stopCh chan struct{}
	doneCh chan struct{}
}

func NewAuditService(st store.Store, logger *slog.Logger, buffer int) *AuditService {
	if buffer <= 0 {
		buffer = defaultAuditBuffer
	}
	return &AuditService{
		Store:  st,
		Logger: logger,
		queue:  make(chan domain.AuditEntry, buffer),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins the background writer. Call Stop() to drain and shut down.
func (s *AuditService) Start() {
	go s.run()
}

// Stop drains queued entries and blocks until the writer has finished.
func (s *AuditService) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

// Record queues one audit entry. ID and CreatedAt are filled in here so
// callers only describe the event. Never blocks.
func (s *AuditService) Record(actorID, action, entityType, entityID string, tenantID *string) {
	e := domain.AuditEntry{
		ID:         idx.New().String(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		TenantID:   tenantID,
		CreatedAt:  time.Now().UTC(),
	}

	select {
	case s.queue <- e:
	default:
		s.Logger.Warn("audit queue full, dropping entry",
			"action", action, "entity_id", entityID)
	}
}

func (s *AuditService) run() {
	defer close(s.doneCh)

	for {
		select {
		case e := <-s.queue:
			s.write(e)
		case <-s.stopCh:
			// Drain anything already queued before exiting.
			for {
				select {
				case e := <-s.queue:
					s.write(e)
				default:
					return
				}
			}
		}
	}
}

func (s *AuditService) write(e domain.AuditEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Store.AuditLog().Append(ctx, e); err != nil {
		s.Logger.Error("audit write failed",
			"action", e.Action, "entity_id", e.EntityID, "error", err)
	}
}
