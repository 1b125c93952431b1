package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/smart-parking/internal/logging"
    "github.com/iliyamo/smart-parking/internal/model"
)

// SessionLog appends formatted session events to a file, creating its
// directory on first use.
type SessionLog struct {
    path string
    mu   sync.Mutex
}

func NewSessionLog(path string) *SessionLog { return &SessionLog{path: path} }

// Handle decodes one message body and appends it to the log.
func (l *SessionLog) Handle(body []byte) error {
    var ev model.SessionEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.SessionID == "" {
        return errors.New("event without session id")
    }
    l.mu.Lock()
    defer l.mu.Unlock()
    if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(FormatSessionLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// StartSessionConsumer connects to RabbitMQ, declares the queue (durable)
// and hands every delivery to sink.  It reconnects with exponential
// backoff until ctx is cancelled, then returns ctx.Err().  A message the
// sink rejects is logged and dropped without requeue.
func StartSessionConsumer(ctx context.Context, url, queue string, sink *SessionLog) error {
    if queue == "" {
        queue = DefaultQueue
    }
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            logging.Warn(ctx).Err(err).Dur("retry_in", backoff).Msg("session-consumer: dial broker failed")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn, queue, sink)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        logging.Warn(ctx).Err(err).Msg("session-consumer: consume loop ended, reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, queue string, sink *SessionLog) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        logging.Warn(ctx).Err(err).Msg("session-consumer: set QoS failed")
    }
    if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }
    logging.Info(ctx).Str("queue", queue).Msg("session-consumer: consuming")

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := sink.Handle(d.Body); err != nil {
                logging.Error(ctx).Err(err).Msg("session-consumer: handle message failed")
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
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
