package queue

import (
    "context"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/photo-platform/internal/config"
    "github.com/iliyamo/photo-platform/internal/logger"
)

// StartClassificationConsumer connects to RabbitMQ, declares the task
// queue (durable) and feeds each delivery to handle. It runs a reconnect
// loop with exponential backoff and only returns once ctx is cancelled.
// Failed tasks are rejected without requeue; the submission row already
// records the failure.
func StartClassificationConsumer(ctx context.Context, cfg config.QueueConfig, handle Handler) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(cfg.URL)
        if err != nil {
            logger.Log.Warnw("classify-consumer: failed to dial broker", "error", err, "retry_in", backoff.String())
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, cfg, handle)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        logger.Log.Warnw("classify-consumer: consume loop ended; reconnecting", "error", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, cfg config.QueueConfig, handle Handler) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(cfg.Prefetch, 0, false); err != nil {
        logger.Log.Warnw("classify-consumer: set QoS failed", "error", err)
    }
    if _, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(cfg.QueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }
    logger.Log.Infow("classify-consumer: consuming", "queue", cfg.QueueName)

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := process(ctx, d.Body, handle); err != nil {
                logger.Log.Errorw("classify-consumer: handle message failed", "message_id", d.MessageId, "error", err)
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func process(ctx context.Context, body []byte, handle Handler) error {
    task, err := decodeTask(body)
    if err != nil {
        return err
    }
    return handle(ctx, task)
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
