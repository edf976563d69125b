package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Store wraps one Redis client used for both company event fan-out and the
// records page cache.
type Store struct {
	client   *redis.Client
	cacheTTL time.Duration
}

func New(ctx context.Context, addr, password string, db int, cacheTTL time.Duration) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return &Store{client: client, cacheTTL: cacheTTL}, nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client, cacheTTL time.Duration) *Store {
	return &Store{client: client, cacheTTL: cacheTTL}
}

func (s *Store) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("redis.Store.Close: %w", err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis.Store.Ping: %w", err)
	}
	return nil
}

func (s *Store) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := s.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis.Store.Publish: %w", err)
	}
	return nil
}

// PublishCompany sends a JSON event to every client connected for companyID.
func (s *Store) PublishCompany(ctx context.Context, companyID uuid.UUID, event CompanyEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis.Store.PublishCompany: marshal: %w", err)
	}
	return s.Publish(ctx, CompanyChannel(companyID), payload)
}

func (s *Store) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	sub := s.client.Subscribe(ctx, channel)

	// Wait for subscription confirmation.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis.Store.Subscribe: receive confirmation: %w", err)
	}

	out := make(chan []byte, 64)
	redisCh := sub.Channel()

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-redisCh:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	cleanup := func() {
		_ = sub.Close()
	}

	return out, cleanup, nil
}

// Event types pushed on company channels.
const (
	EventRecordsChanged = "records_changed"
	EventModulesChanged = "modules_changed"
)

// CompanyEvent is the payload pushed to a company's WebSocket clients.
type CompanyEvent struct {
	Type   string `json:"type"`
	Table  string `json:"table,omitempty"`
	Action string `json:"action,omitempty"`
	ID     string `json:"id,omitempty"`
}

// CompanyChannel returns the Redis channel name for company-wide events.
func CompanyChannel(companyID uuid.UUID) string {
	return "company:" + companyID.String()
}
