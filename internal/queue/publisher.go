package queue

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/photo-platform/internal/logger"
)

// AMQPDispatcher publishes tasks to a durable RabbitMQ queue. Each publish
// dials its own connection; errors are logged and returned so the caller
// can decide whether to ignore them.
type AMQPDispatcher struct {
    url   string
    queue string
}

func NewAMQPDispatcher(url, queue string) *AMQPDispatcher {
    return &AMQPDispatcher{url: url, queue: queue}
}

func (d *AMQPDispatcher) Dispatch(ctx context.Context, task ClassificationRequested) error {
    conn, err := amqp.Dial(d.url)
    if err != nil {
        logger.Log.Warnw("rabbitmq: dial failed", "error", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        logger.Log.Warnw("rabbitmq: channel open failed", "error", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Durable so tasks survive broker restarts.
    if _, err := ch.QueueDeclare(d.queue, true, false, false, false, nil); err != nil {
        logger.Log.Warnw("rabbitmq: queue declare failed", "queue", d.queue, "error", err)
        return err
    }

    pub, err := newPublishing(task, time.Now().UTC())
    if err != nil {
        return err
    }
    if err := ch.PublishWithContext(ctx, "", d.queue, false, false, pub); err != nil {
        logger.Log.Warnw("rabbitmq: publish failed", "queue", d.queue, "error", err)
        return err
    }
    return nil
}

func newPublishing(task ClassificationRequested, now time.Time) (amqp.Publishing, error) {
    if task.RequestedAt == "" {
        task.RequestedAt = now.Format(time.RFC3339)
    }
    body, err := json.Marshal(task)
    if err != nil {
        return amqp.Publishing{}, err
    }
    return amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    task.SubmissionID,
        Timestamp:    now,
        Body:         body,
    }, nil
}
