// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultOutboxKey is the Redis list that holds pending messages
const DefaultOutboxKey = "interpoll:mail:outbox"

// RedisQueue is a Sender that enqueues messages onto a Redis list for a
// Worker to deliver later. Poll creation does not wait on the mail relay.
type RedisQueue struct {
	rdb *redis.Client
	key string
}

type QueueOption func(*RedisQueue)

func WithOutboxKey(key string) QueueOption {
	return func(q *RedisQueue) { q.key = strings.Trim(key, ":") }
}

func NewRedisQueue(rdb *redis.Client, opts ...QueueOption) *RedisQueue {
	q := &RedisQueue{rdb: rdb, key: DefaultOutboxKey}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

func (q *RedisQueue) Key() string { return q.key }

// Send pushes msg onto the head of the outbox
func (q *RedisQueue) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue message: %w", err)
	}
	return nil
}

// Len reports how many messages are waiting
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.key).Result()
}

// Worker drains a RedisQueue into a delivering Sender
type Worker struct {
	queue   *RedisQueue
	sender  Sender
	timeout time.Duration
}

// NewWorker delivers through sender. pollTimeout bounds each blocking pop
// so the worker notices cancellation.
func NewWorker(queue *RedisQueue, sender Sender, pollTimeout time.Duration) *Worker {
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	return &Worker{queue: queue, sender: sender, timeout: pollTimeout}
}

// Run pops and delivers messages until ctx is done. Messages that fail to
// decode or deliver are logged and dropped.
func (w *Worker) Run(ctx context.Context) error {
	slog.Info("mail worker started", "queue", w.queue.key)
	for {
		delivered, err := w.ProcessOne(ctx)
		if ctx.Err() != nil {
			slog.Info("mail worker stopped")
			return nil
		}
		if err != nil {
			slog.Error("mail worker failed", "error", err)
			if !delivered {
				// back off on Redis errors
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(time.Second):
				}
			}
		}
	}
}

// ProcessOne waits up to the poll timeout for a message and delivers it.
// It reports whether a message was taken off the queue.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	res, err := w.queue.rdb.BRPop(ctx, w.timeout, w.queue.key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("dequeue message: %w", err)
	}

	// BRPOP replies with [key, value]
	var msg Message
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		return true, fmt.Errorf("decode message: %w", err)
	}

	if err := w.sender.Send(ctx, msg); err != nil {
		return true, fmt.Errorf("deliver message to %s: %w", msg.To, err)
	}
	return true, nil
}
