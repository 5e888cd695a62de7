package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DefaultExchange is the durable topic exchange lifecycle events go to.
const DefaultExchange = "motel.lifecycle"

const (
	defaultDialTimeout = 3 * time.Second
	// redialBackoff is how long Publish fails fast after a failed dial.
	redialBackoff = 10 * time.Second
)

// ErrBrokerUnavailable is returned while the publisher is backing off after
// a failed dial.
var ErrBrokerUnavailable = errors.New("rabbitmq: broker unavailable")

// Publisher sends lifecycle events to a RabbitMQ topic exchange, routed by
// event type.  The connection is opened lazily and re-dialled after the
// broker drops it.  Publish errors are logged and returned so the caller
// can ignore them without failing the request.
type Publisher struct {
	url      string
	exchange string
	log      *zap.Logger

	// DialTimeout bounds the TCP connect and AMQP handshake together.
	DialTimeout time.Duration

	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	retryAt time.Time
}

// NewPublisher returns a Publisher for the given broker URL and exchange.
// No connection is made until the first Publish.
func NewPublisher(url, exchange string, log *zap.Logger) *Publisher {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &Publisher{url: url, exchange: exchange, log: log, DialTimeout: defaultDialTimeout}
}

// channel returns an open channel, dialling and declaring the exchange when
// needed.  The dial is bounded by DialTimeout and by ctx's deadline.  After
// a failed dial every call fails fast with ErrBrokerUnavailable until the
// backoff passes.  Callers must hold p.mu.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.closeLocked()
	if time.Now().Before(p.retryAt) {
		return nil, ErrBrokerUnavailable
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      p.dialer(ctx),
	})
	if err != nil {
		p.retryAt = time.Now().Add(redialBackoff)
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	// Durable so events survive broker restarts.
	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

// dialer connects with ctx and leaves a deadline on the socket for the
// handshake; amqp091 clears it once the connection is open.
func (p *Publisher) dialer(ctx context.Context) func(network, addr string) (net.Conn, error) {
	timeout := p.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	return func(network, addr string) (net.Conn, error) {
		deadline := time.Now().Add(timeout)
		if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
			deadline = d
		}
		d := net.Dialer{Deadline: deadline}
		conn, err := d.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		if err := conn.SetDeadline(deadline); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	}
}

// Publish marshals ev and publishes it with the event type as routing key.
// Messages are marked persistent.
func (p *Publisher) Publish(ctx context.Context, ev LifecycleEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("rabbitmq: marshal event failed", zap.Error(err))
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel(ctx)
	if err != nil {
		p.log.Warn("rabbitmq: connect failed", zap.String("event", ev.Type), zap.Error(err))
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, p.exchange, ev.Type, false, false, pub); err != nil {
		p.log.Warn("rabbitmq: publish failed",
			zap.String("event", ev.Type), zap.String("booking_id", ev.BookingID), zap.Error(err))
		p.closeLocked()
		return err
	}
	return nil
}

// Close releases the channel and connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeLocked()
}

func (p *Publisher) closeLocked() error {
	var err error
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err = p.conn.Close()
		p.conn = nil
	}
	return err
}
