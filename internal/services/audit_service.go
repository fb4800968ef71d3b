// internal/services/audit_service.go
package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/conefivem/hub/internal/models"
	"github.com/conefivem/hub/internal/repository"
	"github.com/conefivem/hub/internal/utils"
)

// Auditor records security and business events. Log never blocks and never fails the caller.
type Auditor interface {
	Log(ctx context.Context, entry models.AuditEntry)
}

const (
	defaultAuditQueueSize = 1024
	auditInsertTimeout    = 5 * time.Second
)

// AuditService queues entries and persists them from a single background worker.
type AuditService struct {
	repo   repository.AuditLogRepository
	queue  chan *models.AuditLog
	now    func() time.Time
	done   chan struct{}
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

func NewAuditService(repo repository.AuditLogRepository, queueSize int) *AuditService {
	if queueSize <= 0 {
		queueSize = defaultAuditQueueSize
	}

	s := &AuditService{
		repo:  repo,
		queue: make(chan *models.AuditLog, queueSize),
		now:   time.Now,
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *AuditService) Log(_ context.Context, entry models.AuditEntry) {
	if entry.Severity == "" {
		entry.Severity = models.SeverityInfo
	}
	record := models.NewAuditLog(entry, s.now())

	if entry.Severity == models.SeverityError || entry.Severity == models.SeverityCritical {
		logrus.WithFields(logrus.Fields{
			"action":   entry.Action,
			"severity": entry.Severity,
			"ip":       entry.IPAddress,
			"metadata": entry.Metadata,
		}).Error("Security audit event")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		logrus.WithField("action", entry.Action).Warn("Audit sink closed, dropping entry")
		return
	}

	select {
	case s.queue <- record:
	default:
		logrus.WithField("action", entry.Action).Warn("Audit queue full, dropping entry")
	}
}

func (s *AuditService) run() {
	defer close(s.done)
	for record := range s.queue {
		s.persist(record)
	}
}

func (s *AuditService) persist(record *models.AuditLog) {
	ctx, cancel := context.WithTimeout(context.Background(), auditInsertTimeout)
	defer cancel()

	if err := s.repo.Insert(ctx, record); err != nil {
		logrus.WithError(err).WithField("action", record.Action).Error("Failed to create audit log")
	}
}

// Close flushes queued entries and stops the worker.
func (s *AuditService) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.queue)
		s.mu.Unlock()
	})
	<-s.done
}

func (s *AuditService) List(ctx context.Context, filter repository.AuditLogFilter, params utils.PaginationParams) ([]models.AuditLog, int64, error) {
	return s.repo.List(ctx, filter, params)
}
