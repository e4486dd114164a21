package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	defaultMaxAttempts = 5
	redeliveryBase     = time.Second
)

// deliveryLimits caps how many times a task type is handed to a worker when
// the task itself does not say. A failed processing run has already marked
// its document FAILED, so it is delivered once.
var deliveryLimits = map[TaskType]int{
	TaskTypeProcess: 1,
}

func subjectFor(t TaskType) string { return "tasks." + string(t) }
func groupFor(t TaskType) string   { return "workers-" + string(t) }

// maxAttempts is the delivery limit for task.
func maxAttempts(task Task) int {
	if task.MaxAttempts > 0 {
		return task.MaxAttempts
	}
	if n, ok := deliveryLimits[task.Type]; ok {
		return n
	}
	return defaultMaxAttempts
}

// redelivery returns the task to publish again after a failed attempt, or
// false when the task has used up its deliveries.
func redelivery(task Task, now time.Time) (Task, bool) {
	task.Attempts++
	task.MaxAttempts = maxAttempts(task)
	if task.Attempts >= task.MaxAttempts {
		return task, false
	}
	task.NotBefore = now.Add(ExponentialBackoff(task.Attempts, redeliveryBase))
	return task, true
}

// NATSQueue publishes tasks on "tasks.<type>". Workers share the
// "workers-<type>" queue group, so each task reaches one worker.
type NATSQueue struct {
	log *slog.Logger
	nc  *nats.Conn
}

var _ Queue = (*NATSQueue)(nil)

func NewNATS(log *slog.Logger, nc *nats.Conn) *NATSQueue {
	return &NATSQueue{log: log, nc: nc}
}

func (q *NATSQueue) Enqueue(_ context.Context, task Task) error {
	if task.Type == "" {
		return errors.New("task type required")
	}
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return q.nc.Publish(subjectFor(task.Type), body)
}

// Worker consumes taskType until ctx is done.
func (q *NATSQueue) Worker(ctx context.Context, taskType TaskType, handler Handler) error {
	sub, err := q.nc.QueueSubscribe(subjectFor(taskType), groupFor(taskType), func(msg *nats.Msg) {
		q.deliver(ctx, msg, handler)
	})
	if err != nil {
		return err
	}
	q.log.Info("consuming tasks", "subject", sub.Subject, "group", sub.Queue)
	<-ctx.Done()
	return sub.Unsubscribe()
}

// Close drains pending messages and closes the connection.
func (q *NATSQueue) Close() error {
	if q.nc == nil || q.nc.IsClosed() {
		return nil
	}
	return q.nc.Drain()
}

func (q *NATSQueue) deliver(ctx context.Context, msg *nats.Msg, handler Handler) {
	var task Task
	if err := json.Unmarshal(msg.Data, &task); err != nil {
		q.log.Error("failed to decode task", "subject", msg.Subject, "err", err)
		return
	}
	log := q.log.With("task_id", task.ID, "type", task.Type, "attempt", task.Attempts+1)

	if wait := time.Until(task.NotBefore); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}

	handlerErr := handler(ctx, task)
	if handlerErr == nil {
		return
	}
	next, ok := redelivery(task, time.Now())
	if !ok {
		log.Error("task failed, not redelivering", "err", handlerErr)
		return
	}
	log.Warn("task failed, redelivering", "err", handlerErr, "not_before", next.NotBefore)
	if err := q.Enqueue(ctx, next); err != nil {
		log.Error("failed to re-enqueue task", "err", err, "handler_err", handlerErr)
	}
}
