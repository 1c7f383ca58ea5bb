package audit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	id "testament/pkg/domain"
)

// streamKeyPrefix namespaces per-owner audit streams in Redis.
const streamKeyPrefix = "testament:audit:"

// maxStreamLength caps each owner's stream; XADD MAXLEN ~ trims approximately.
const maxStreamLength = 10_000

// RedisStreamStore appends events to a per-owner Redis stream so external
// consumers (auditors, notification pipelines) can tail them.
type RedisStreamStore struct {
	client *redis.Client
}

func NewRedisStreamStore(client *redis.Client) *RedisStreamStore {
	return &RedisStreamStore{client: client}
}

func (s *RedisStreamStore) Append(ctx context.Context, event Event) error {
	values := map[string]any{
		"category":  string(event.Category),
		"action":    event.Action,
		"owner":     event.Owner.String(),
		"timestamp": event.Timestamp.UnixNano(),
		"amount":    strconv.FormatUint(event.Amount, 10),
	}
	if !event.Actor.IsNil() {
		values["actor"] = event.Actor.String()
	}
	if !event.Beneficiary.IsNil() {
		values["beneficiary"] = event.Beneficiary.String()
	}
	if event.Percent != 0 {
		values["percent"] = event.Percent
	}
	if event.InactivityPeriod != 0 {
		values["inactivity_period_seconds"] = int64(event.InactivityPeriod / time.Second)
	}
	if event.RequestID != "" {
		values["request_id"] = event.RequestID
	}

	err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey(event.Owner),
		MaxLen: maxStreamLength,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("append audit event to stream: %w", err)
	}
	return nil
}

func (s *RedisStreamStore) ListByOwner(ctx context.Context, owner id.AccountID) ([]Event, error) {
	entries, err := s.client.XRange(ctx, streamKey(owner), "-", "+").Result()
	if err != nil {
		return nil, fmt.Errorf("read audit stream: %w", err)
	}
	events := make([]Event, 0, len(entries))
	for _, entry := range entries {
		events = append(events, eventFromStream(owner, entry.Values))
	}
	return events, nil
}

func streamKey(owner id.AccountID) string {
	return streamKeyPrefix + owner.String()
}

func eventFromStream(owner id.AccountID, values map[string]any) Event {
	event := Event{Owner: owner}
	if v, ok := values["category"].(string); ok {
		event.Category = EventCategory(v)
	}
	if v, ok := values["action"].(string); ok {
		event.Action = v
	}
	if v, ok := values["actor"].(string); ok {
		if actor, err := id.ParseAccountID(v); err == nil {
			event.Actor = actor
		}
	}
	if v, ok := values["beneficiary"].(string); ok {
		if b, err := id.ParseAccountID(v); err == nil {
			event.Beneficiary = b
		}
	}
	if v, ok := values["timestamp"].(string); ok {
		if ns, err := strconv.ParseInt(v, 10, 64); err == nil {
			event.Timestamp = time.Unix(0, ns)
		}
	}
	if v, ok := values["amount"].(string); ok {
		if amount, err := strconv.ParseUint(v, 10, 64); err == nil {
			event.Amount = amount
		}
	}
	if v, ok := values["percent"].(string); ok {
		if p, err := strconv.Atoi(v); err == nil {
			event.Percent = p
		}
	}
	if v, ok := values["inactivity_period_seconds"].(string); ok {
		if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
			event.InactivityPeriod = time.Duration(secs) * time.Second
		}
	}
	if v, ok := values["request_id"].(string); ok {
		event.RequestID = v
	}
	return event
}
