package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// DefaultAuditQueue is the durable queue bound to every lifecycle routing key.
const DefaultAuditQueue = "motel.lifecycle.audit"

const auditFileName = "lifecycle.log"

// AuditConfig tells the audit consumer where to read from and write to.
type AuditConfig struct {
    URL      string
    Exchange string
    Queue    string
    Dir      string
}

// StartAuditConsumer binds a durable queue to the lifecycle exchange and
// appends one line per event to <Dir>/lifecycle.log.  It reconnects with
// exponential backoff until ctx is cancelled, then returns ctx.Err().
// Messages that cannot be decoded or written are rejected without requeue.
func StartAuditConsumer(ctx context.Context, cfg AuditConfig, log *zap.Logger) error {
    if cfg.Exchange == "" {
        cfg.Exchange = DefaultExchange
    }
    if cfg.Queue == "" {
        cfg.Queue = DefaultAuditQueue
    }
    if cfg.Dir == "" {
        cfg.Dir = "logs"
    }

    backoff := time.Second
    for {
        conn, err := amqp.Dial(cfg.URL)
        if err != nil {
            log.Warn("audit-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleepCtx(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, cfg, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn("audit-consumer: consume loop ended, reconnecting", zap.Error(err))
        if !sleepCtx(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, cfg AuditConfig, log *zap.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Warn("audit-consumer: set QoS failed", zap.Error(err))
    }
    if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
        return fmt.Errorf("exchange declare: %w", err)
    }
    if _, err := ch.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    for _, key := range []string{EventGuestRegistered, EventGuestCheckedIn, EventGuestCheckedOut} {
        if err := ch.QueueBind(cfg.Queue, key, cfg.Exchange, false, nil); err != nil {
            return fmt.Errorf("queue bind %s: %w", key, err)
        }
    }

    msgs, err := ch.Consume(cfg.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := handleMessage(cfg.Dir, d.Body); err != nil {
                log.Warn("audit-consumer: handle message failed", zap.Error(err))
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func handleMessage(dir string, body []byte) error {
    var ev LifecycleEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.BookingID == "" {
        return errors.New("event missing type or booking id")
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", dir, err)
    }
    f, err := os.OpenFile(filepath.Join(dir, auditFileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open audit file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(formatAuditLine(ev)); err != nil {
        return fmt.Errorf("write audit line: %w", err)
    }
    return nil
}

func formatAuditLine(ev LifecycleEvent) string {
    return fmt.Sprintf("[%s] %s | booking_id=%s | room=%d | guest=%q | booking=%s | room_status=%s | stay=%s..%s | paid=%d\n",
        ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.BookingID, ev.RoomNumber, ev.GuestName,
        ev.BookingStatus, ev.RoomStatus, ev.CheckIn, ev.CheckOut, ev.PaymentAmount)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
