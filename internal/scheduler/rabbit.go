package scheduler

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Queue names.  TaskQueue is consumed by the worker; DelayQueue has no
// consumer and dead-letters expired messages into TaskQueue, which is how
// per-task delays are implemented without a broker plugin.
const (
	TaskQueue  = "scheduler.tasks"
	DelayQueue = "scheduler.delay"
)

// RabbitPublisher implements Publisher against RabbitMQ.  Each publish
// dials a fresh connection; task emission is rare (a few per booking) and
// a persistent connection would only add reconnect bookkeeping to the
// request path.
type RabbitPublisher struct {
	url string
}

// NewRabbitPublisher returns a publisher for the given AMQP URL.
func NewRabbitPublisher(url string) *RabbitPublisher {
	return &RabbitPublisher{url: url}
}

// Publish enqueues a task on the worker queue.
func (p *RabbitPublisher) Publish(ctx context.Context, task Task) error {
	return p.publish(ctx, TaskQueue, task, 0)
}

// PublishDelayed enqueues a task on the delay queue with a per-message TTL;
// the broker routes it to the worker queue when the TTL lapses.
func (p *RabbitPublisher) PublishDelayed(ctx context.Context, task Task, delay time.Duration) error {
	return p.publish(ctx, DelayQueue, task, delay)
}

func (p *RabbitPublisher) publish(ctx context.Context, queue string, task Task, delay time.Duration) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := DeclareQueues(ch); err != nil {
		return err
	}

	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = time.Now().UTC()
	}
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // survive broker restarts
		Timestamp:    task.EnqueuedAt,
		Body:         body,
	}
	if delay > 0 {
		pub.Expiration = strconv.FormatInt(delay.Milliseconds(), 10)
	}

	return ch.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key = queue name
		false, // mandatory
		false, // immediate
		pub,
	)
}

// DeclareQueues declares the worker queue and its delay companion.  Both
// declarations are idempotent; publisher and consumer call this so either
// side can start first.
func DeclareQueues(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(TaskQueue, true, false, false, false, nil); err != nil {
		return err
	}
	_, err := ch.QueueDeclare(DelayQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": TaskQueue,
	})
	return err
}
