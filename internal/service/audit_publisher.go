package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/robot-management/internal/queue"
)

// AuditPublisher emits audit events.  Publishing is best effort: handlers
// log failures and never fail a request because of them.
type AuditPublisher interface {
	Publish(ctx context.Context, ev queue.AuditEvent) error
}

// NopPublisher drops every event.  It is used when AMQP_URL is unset.
type NopPublisher struct{}

// Publish discards ev.
func (NopPublisher) Publish(context.Context, queue.AuditEvent) error { return nil }

var (
	// ErrAuditBufferFull is returned when the outgoing buffer has no room;
	// the event is dropped.
	ErrAuditBufferFull = errors.New("audit: buffer full, event dropped")
	// ErrPublisherClosed is returned by Publish after Close.
	ErrPublisherClosed = errors.New("audit: publisher closed")
)

const (
	defaultAuditBuffer      = 256
	defaultAuditDialTimeout = 3 * time.Second
	// redialBackoff is how long the sender drops events after a failed dial
	// before it tries the broker again.
	redialBackoff = 5 * time.Second
)

// AMQPPublisher publishes persistent JSON messages to a durable queue on the
// default exchange.  Publish only enqueues into a bounded buffer; a single
// sender goroutine owns the broker connection, dials lazily with a short
// timeout and re-dials after a failure.
type AMQPPublisher struct {
	url         string
	queue       string
	log         *zap.Logger
	dialTimeout time.Duration

	events chan queue.AuditEvent
	quit   chan struct{}
	done   chan struct{}
	once   sync.Once

	// owned by the sender goroutine
	conn       *amqp.Connection
	ch         *amqp.Channel
	failedDial time.Time
}

// NewAMQPPublisher starts the sender goroutine.  Call Close to stop it.
func NewAMQPPublisher(url, queueName string, log *zap.Logger) *AMQPPublisher {
	return newAMQPPublisher(url, queueName, log, defaultAuditBuffer, defaultAuditDialTimeout)
}

func newAMQPPublisher(url, queueName string, log *zap.Logger, buffer int, dialTimeout time.Duration) *AMQPPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	p := &AMQPPublisher{
		url:         url,
		queue:       queueName,
		log:         log,
		dialTimeout: dialTimeout,
		events:      make(chan queue.AuditEvent, buffer),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	go p.run()
	return p
}

// Publish hands ev to the sender without waiting for the broker.  It fails
// only when the buffer is full or the publisher is closed.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.AuditEvent) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	select {
	case <-p.quit:
		return ErrPublisherClosed
	default:
	}
	select {
	case p.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.log.Warn("audit: buffer full, dropping event",
			zap.String("action", ev.Action), zap.String("entity", ev.Entity))
		return ErrAuditBufferFull
	}
}

// Close stops the sender and releases the broker connection.  Events still
// buffered are discarded.
func (p *AMQPPublisher) Close() error {
	p.once.Do(func() { close(p.quit) })
	<-p.done
	return nil
}

func (p *AMQPPublisher) run() {
	defer close(p.done)
	defer p.closeConn()
	for {
		select {
		case <-p.quit:
			return
		case ev := <-p.events:
			p.send(ev)
		}
	}
}

func (p *AMQPPublisher) send(ev queue.AuditEvent) {
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Warn("audit: marshal failed", zap.Error(err))
		return
	}
	ch, err := p.channel()
	if err != nil {
		p.log.Warn("audit: broker unavailable, dropping event", zap.Error(err),
			zap.String("action", ev.Action), zap.String("entity", ev.Entity))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.dialTimeout)
	defer cancel()
	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		Body:         body,
	})
	if err != nil {
		p.log.Warn("audit: publish failed", zap.Error(err),
			zap.String("action", ev.Action), zap.String("entity", ev.Entity))
		p.closeConn()
	}
}

var errDialBackoff = errors.New("audit: waiting before next dial")

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.closeConn()
	if !p.failedDial.IsZero() && time.Since(p.failedDial) < redialBackoff {
		return nil, errDialBackoff
	}
	ch, err := p.dial()
	if err != nil {
		p.failedDial = time.Now()
		return nil, err
	}
	p.failedDial = time.Time{}
	return ch, nil
}

func (p *AMQPPublisher) dial() (*amqp.Channel, error) {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Dial:      amqp.DefaultDial(p.dialTimeout),
	})
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) closeConn() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
