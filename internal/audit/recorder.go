// Package audit records an append-only trail of mutations. Recording is best
// effort: failures are logged and counted, and never fail the caller.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/evolutech/platform/internal/domain"
)

//nolint:gochecknoglobals // process-wide collectors
var failures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "evolutech_audit_failures_total",
	Help: "Audit entries that could not be written, by sink.",
}, []string{"sink"})

// Producer publishes audit entries to a stream.
type Producer interface {
	Publish(ctx context.Context, messages ...kafka.Message) error
}

type Recorder struct {
	repo     domain.AuditRepository
	producer Producer
	timeout  time.Duration
}

// NewRecorder returns a Recorder writing to repo and, when producer is
// non-nil, exporting each entry to it.
func NewRecorder(repo domain.AuditRepository, producer Producer) *Recorder {
	return &Recorder{repo: repo, producer: producer, timeout: 5 * time.Second}
}

// Record stores entry. It outlives the caller's cancellation so a client
// hanging up right after a write still leaves a trail.
func (r *Recorder) Record(ctx context.Context, entry *domain.AuditEntry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	if err := r.repo.Record(ctx, entry); err != nil {
		failures.WithLabelValues("postgres").Inc()
		log.Warn().Err(err).
			Str("action", entry.Action).
			Str("entity_type", entry.EntityType).
			Str("entity_id", entry.EntityID).
			Msg("audit: record failed")
	}

	if r.producer == nil {
		return
	}
	msg, err := Message(entry)
	if err != nil {
		failures.WithLabelValues("kafka").Inc()
		log.Warn().Err(err).Msg("audit: encode entry")
		return
	}
	if err := r.producer.Publish(ctx, msg); err != nil {
		failures.WithLabelValues("kafka").Inc()
		log.Warn().Err(err).Str("entity_type", entry.EntityType).Msg("audit: export failed")
	}
}

// List returns a company's audit trail, newest first.
func (r *Recorder) List(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]*domain.AuditEntry, int64, error) {
	entries, total, err := r.repo.ListByCompany(ctx, companyID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("audit.List: %w", err)
	}
	return entries, total, nil
}

// Message encodes entry for the stream, keyed by company so one company's
// entries stay ordered within a partition. Platform-level entries use an
// empty key.
func Message(entry *domain.AuditEntry) (kafka.Message, error) {
	value, err := json.Marshal(entry)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("audit.Message: %w", err)
	}
	var key []byte
	if entry.CompanyID != nil {
		key = []byte(entry.CompanyID.String())
	}
	return kafka.Message{Key: key, Value: value, Time: entry.CreatedAt}, nil
}
