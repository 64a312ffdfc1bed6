package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/pestiq-backend/internal/logger"
)

// EventPublisher publishes activity events.  Callers treat failures as
// non-fatal.
type EventPublisher interface {
    Publish(ctx context.Context, ev Event) error
}

// NopPublisher drops every event.  Used when the broker is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Defaults for redialing a dropped broker.
const (
    defaultDialTimeout = 2 * time.Second
    defaultRetryAfter  = 15 * time.Second
)

// ErrBrokerUnavailable is returned while a failed redial is backing off.
var ErrBrokerUnavailable = errors.New("rabbitmq unavailable")

// Publisher keeps one connection and channel open and redials lazily after
// the broker drops them.  A redial never outlives the caller's context, and
// after a failed one Publish fails fast until retryAfter has passed.
type Publisher struct {
    url   string
    queue string

    dialTimeout time.Duration
    retryAfter  time.Duration
    now         func() time.Time

    // lock is a one-slot semaphore so waiting callers can give up on ctx.
    lock     chan struct{}
    conn     *amqp.Connection
    ch       *amqp.Channel
    nextDial time.Time
}

func newPublisher(url, queue string) *Publisher {
    return &Publisher{
        url:         url,
        queue:       queue,
        dialTimeout: defaultDialTimeout,
        retryAfter:  defaultRetryAfter,
        now:         time.Now,
        lock:        make(chan struct{}, 1),
    }
}

// NewPublisher dials the broker and declares the durable activity queue.
// The publisher is returned even when the first dial fails; Publish
// redials on demand.
func NewPublisher(url, queue string) (*Publisher, error) {
    p := newPublisher(url, queue)
    err := p.connect(context.Background())
    if err != nil {
        p.nextDial = p.now().Add(p.retryAfter)
    }
    return p, err
}

func (p *Publisher) acquire(ctx context.Context) error {
    select {
    case p.lock <- struct{}{}:
        return nil
    case <-ctx.Done():
        return ctx.Err()
    }
}

func (p *Publisher) release() { <-p.lock }

func (p *Publisher) connect(ctx context.Context) error {
    timeout := p.dialTimeout
    if dl, ok := ctx.Deadline(); ok {
        left := time.Until(dl)
        if left <= 0 {
            return ctx.Err()
        }
        timeout = min(timeout, left)
    }
    // DefaultDial bounds both the TCP connect and the AMQP handshake
    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(timeout),
    })
    if err != nil {
        return fmt.Errorf("dial rabbitmq: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return fmt.Errorf("open channel: %w", err)
    }
    // durable, not auto-deleted, not exclusive
    if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return fmt.Errorf("declare queue: %w", err)
    }
    p.conn, p.ch = conn, ch
    return nil
}

// Publish sends ev to the activity queue through the default exchange.
// Messages are persistent.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }
    if err := p.acquire(ctx); err != nil {
        return err
    }
    defer p.release()

    if p.ch == nil || p.ch.IsClosed() {
        if p.now().Before(p.nextDial) {
            return ErrBrokerUnavailable
        }
        if p.conn != nil {
            _ = p.conn.Close()
            p.conn = nil
        }
        if err := p.connect(ctx); err != nil {
            p.nextDial = p.now().Add(p.retryAfter)
            return err
        }
    }
    err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Type:         ev.Type,
        Body:         body,
    })
    if err != nil {
        return fmt.Errorf("publish %s: %w", ev.Type, err)
    }
    return nil
}

func (p *Publisher) Close() error {
    p.lock <- struct{}{}
    defer p.release()
    var errs []error
    if p.ch != nil {
        errs = append(errs, p.ch.Close())
    }
    if p.conn != nil {
        errs = append(errs, p.conn.Close())
    }
    p.ch, p.conn = nil, nil
    return errors.Join(errs...)
}

// Emit publishes ev and logs a failure instead of returning it.
func Emit(ctx context.Context, p EventPublisher, ev Event) {
    if p == nil {
        return
    }
    if err := p.Publish(ctx, ev); err != nil {
        logger.FromContext(ctx).Warn("event publish failed", "type", ev.Type, "error", err)
    }
}
