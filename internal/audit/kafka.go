package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// ErrExportBacklog is returned by Publish when the export queue is full.
var ErrExportBacklog = errors.New("audit export queue is full")

const (
	exportQueueSize = 1024
	exportTimeout   = 10 * time.Second
)

type messageWriter interface {
	WriteMessages(ctx context.Context, messages ...kafka.Message) error
	Close() error
}

// KafkaProducer writes audit entries to one topic. Publish only enqueues; a
// background goroutine delivers, and delivery failures surface through the
// evolutech_audit_failures_total counter and the log.
type KafkaProducer struct {
	writer messageWriter
	queue  chan kafka.Message
	done   chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	return newKafkaProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion:   exported,
	}, exportQueueSize)
}

func newKafkaProducer(w messageWriter, size int) *KafkaProducer {
	p := &KafkaProducer{
		writer: w,
		queue:  make(chan kafka.Message, size),
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *KafkaProducer) run() {
	defer close(p.done)
	for msg := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		err := p.writer.WriteMessages(ctx, msg)
		cancel()
		if err != nil {
			exported([]kafka.Message{msg}, err)
		}
	}
}

func exported(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	failures.WithLabelValues("kafka").Add(float64(len(messages)))
	log.Warn().Err(err).Int("messages", len(messages)).Msg("audit: export failed")
}

// Publish enqueues messages without waiting for the brokers.
func (p *KafkaProducer) Publish(_ context.Context, messages ...kafka.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("audit.KafkaProducer.Publish: %w", errors.New("producer closed"))
	}
	for _, msg := range messages {
		select {
		case p.queue <- msg:
		default:
			return fmt.Errorf("audit.KafkaProducer.Publish: %w", ErrExportBacklog)
		}
	}
	return nil
}

// Close drains the queue and flushes the writer.
func (p *KafkaProducer) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	<-p.done
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("audit.KafkaProducer.Close: %w", err)
	}
	return nil
}
