package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/smart-parking/internal/model"
    "github.com/iliyamo/smart-parking/internal/parking"
)

// ErrBrokerUnavailable is returned without dialing while the publisher is
// backing off after a failed dial.
var ErrBrokerUnavailable = errors.New("broker unavailable")

const (
    defaultDialTimeout = 2 * time.Second
    defaultRedialAfter = 5 * time.Second
)

// Publisher sends session events to a durable queue.  The connection is
// opened lazily and re-opened after any failure, so a broker outage only
// loses the events published while it lasts.  Messages are persistent.
//
// A dial is bounded by dialTimeout and by the caller's deadline.  After a
// failed dial no new dial is attempted for redialAfter; publishes in that
// window fail immediately with ErrBrokerUnavailable.
type Publisher struct {
    url   string
    queue string

    dialTimeout time.Duration
    redialAfter time.Duration
    now         func() time.Time

    mu       sync.Mutex
    conn     *amqp.Connection
    ch       *amqp.Channel
    nextDial time.Time
}

var _ parking.EventPublisher = (*Publisher)(nil)

func NewPublisher(url, queue string) *Publisher {
    if queue == "" {
        queue = DefaultQueue
    }
    return &Publisher{
        url:         url,
        queue:       queue,
        dialTimeout: defaultDialTimeout,
        redialAfter: defaultRedialAfter,
        now:         time.Now,
    }
}

// PublishSessionEvent implements parking.EventPublisher.
func (p *Publisher) PublishSessionEvent(ctx context.Context, ev model.SessionEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    p.mu.Lock()
    defer p.mu.Unlock()
    ch, err := p.channel(ctx)
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Type:         string(ev.Kind),
        MessageId:    ev.SessionID + ":" + string(ev.Kind),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx,
        "",      // default exchange
        p.queue, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        pub,
    ); err != nil {
        p.reset()
        return fmt.Errorf("publish: %w", err)
    }
    return nil
}

// channel returns an open channel, dialing when needed.  p.mu must be held.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    p.reset()
    if now := p.now(); now.Before(p.nextDial) {
        return nil, fmt.Errorf("%w: next dial in %s", ErrBrokerUnavailable, p.nextDial.Sub(now).Round(time.Millisecond))
    }
    if err := ctx.Err(); err != nil {
        return nil, err
    }
    timeout := p.dialTimeout
    if dl, ok := ctx.Deadline(); ok {
        if left := time.Until(dl); left < timeout {
            timeout = left
        }
    }
    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(timeout),
    })
    if err != nil {
        p.nextDial = p.now().Add(p.redialAfter)
        return nil, fmt.Errorf("dial broker: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        p.nextDial = p.now().Add(p.redialAfter)
        return nil, fmt.Errorf("channel open: %w", err)
    }
    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        p.nextDial = p.now().Add(p.redialAfter)
        return nil, fmt.Errorf("queue declare: %w", err)
    }
    p.conn, p.ch = conn, ch
    p.nextDial = time.Time{}
    return ch, nil
}

// reset drops the current connection.  p.mu must be held.
func (p *Publisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
    }
    if p.conn != nil {
        _ = p.conn.Close()
    }
    p.conn, p.ch = nil, nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.reset()
    return nil
}
