package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisQueue stores JSON-encoded items in a Redis list. It survives process
// restarts and can be shared by several workers. Entries that cannot be
// decoded are moved to a dead-letter hash instead of being dropped.
type RedisQueue[T any] struct {
	client *redis.Client
	key    string
	dead   *RedisDeadLetterQueue
}

// NewRedisQueue creates a queue on the list at key, with its dead letters
// under "dlq:<key>". The client is owned by the queue and closed by Close.
func NewRedisQueue[T any](client *redis.Client, key string) *RedisQueue[T] {
	return &RedisQueue[T]{
		client: client,
		key:    key,
		dead:   NewRedisDeadLetterQueue(client, "dlq:"+key),
	}
}

// DeadLetters returns the queue holding undecodable entries.
func (q *RedisQueue[T]) DeadLetters() *RedisDeadLetterQueue {
	return q.dead
}

// Ping checks the connection to Redis.
func (q *RedisQueue[T]) Ping(ctx context.Context) error {
	if err := q.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	return nil
}

func (q *RedisQueue[T]) Enqueue(ctx context.Context, item T) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal queue item: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, data).Err(); err != nil {
		return mapRedisError(err, "push to redis")
	}
	return nil
}

func (q *RedisQueue[T]) Dequeue(ctx context.Context, max int) ([]T, error) {
	return q.pop(ctx, max, 0)
}

func (q *RedisQueue[T]) DequeueWithTimeout(ctx context.Context, max int, timeout time.Duration) ([]T, error) {
	return q.pop(ctx, max, timeout)
}

// pop takes up to max entries. Once BLPOP has removed the first entry the
// call never fails without returning what it already holds: a failed
// follow-up LPOP only shortens the batch, and an undecodable entry goes to
// the dead-letter hash while the rest of the batch is still decoded.
func (q *RedisQueue[T]) pop(ctx context.Context, max int, timeout time.Duration) ([]T, error) {
	res, err := q.client.BLPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return []T{}, nil
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, mapRedisError(err, "pop from redis")
	}

	// res[0] is the key, res[1] the value.
	raw := []string{res[1]}
	if max > 1 {
		more, err := q.client.LPopCount(ctx, q.key, max-1).Result()
		if err == nil {
			raw = append(raw, more...)
		}
		// on error the remaining entries are still in the list for the next pop
	}

	// Entries are already off the list; bookkeeping must outlive a cancelled caller.
	keep := context.WithoutCancel(ctx)

	items := make([]T, 0, len(raw))
	var errs []error
	for _, s := range raw {
		var item T
		if err := json.Unmarshal([]byte(s), &item); err != nil {
			if dlErr := q.dead.Add(keep, s, err); dlErr != nil {
				errs = append(errs, fmt.Errorf("undecodable queue item %q: %w", s, dlErr))
			}
			continue
		}
		items = append(items, item)
	}
	return items, errors.Join(errs...)
}

func (q *RedisQueue[T]) Length(ctx context.Context) (int, error) {
	n, err := q.client.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, mapRedisError(err, "get queue length")
	}
	return int(n), nil
}

func (q *RedisQueue[T]) Close() error {
	return q.client.Close()
}

func mapRedisError(err error, op string) error {
	if errors.Is(err, redis.ErrClosed) {
		return ErrQueueClosed
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ---------------------------------------------------------------------------
// Dead letters
// ---------------------------------------------------------------------------

// DeadLetter is a queue entry that could not be processed.
type DeadLetter struct {
	ID        string    `json:"id"`
	Payload   string    `json:"payload"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// RedisDeadLetterQueue keeps dead letters in a Redis hash keyed by id.
type RedisDeadLetterQueue struct {
	client *redis.Client
	key    string
}

func NewRedisDeadLetterQueue(client *redis.Client, key string) *RedisDeadLetterQueue {
	return &RedisDeadLetterQueue{client: client, key: key}
}

// Add stores the raw payload with the error that rejected it.
func (q *RedisDeadLetterQueue) Add(ctx context.Context, payload string, cause error) error {
	dl := DeadLetter{
		ID:        uuid.NewString(),
		Payload:   payload,
		Error:     cause.Error(),
		Timestamp: time.Now().UTC(),
	}
	data, err := json.Marshal(dl)
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}
	if err := q.client.HSet(ctx, q.key, dl.ID, data).Err(); err != nil {
		return mapRedisError(err, "add dead letter")
	}
	return nil
}

// List returns up to max dead letters (all when max <= 0). Unreadable
// hash values are skipped.
func (q *RedisDeadLetterQueue) List(ctx context.Context, max int) ([]DeadLetter, error) {
	res, err := q.client.HGetAll(ctx, q.key).Result()
	if err != nil {
		return nil, mapRedisError(err, "list dead letters")
	}
	out := make([]DeadLetter, 0, len(res))
	for _, data := range res {
		var dl DeadLetter
		if err := json.Unmarshal([]byte(data), &dl); err != nil {
			continue
		}
		out = append(out, dl)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out, nil
}

// Length returns the number of dead letters.
func (q *RedisDeadLetterQueue) Length(ctx context.Context) (int, error) {
	n, err := q.client.HLen(ctx, q.key).Result()
	if err != nil {
		return 0, mapRedisError(err, "count dead letters")
	}
	return int(n), nil
}

// Remove deletes a dead letter after it was handled.
func (q *RedisDeadLetterQueue) Remove(ctx context.Context, id string) error {
	if err := q.client.HDel(ctx, q.key, id).Err(); err != nil {
		return mapRedisError(err, "remove dead letter")
	}
	return nil
}
