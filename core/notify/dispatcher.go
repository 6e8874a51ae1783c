package notify

import (
	"context"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Dispatcher fans out circulation events to registered notifiers on its own
// goroutine. Publish never blocks and never fails: the lifecycle engine must
// not be coupled to notifier latency or errors.
type Dispatcher struct {
	events    chan Event
	notifiers []Notifier
	logger    *zap.Logger

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewDispatcher creates a dispatcher and starts its delivery worker.
func NewDispatcher(cfg Config, logger *zap.Logger, notifiers ...Notifier) *Dispatcher {
	size := cfg.BufferSize
	if size <= 0 {
		size = 64
	}

	d := &Dispatcher{
		events:    make(chan Event, size),
		notifiers: notifiers,
		logger:    logger,
		done:      make(chan struct{}),
	}

	go d.run()
	return d
}

// Publish enqueues an event for delivery. A full buffer or a closed
// dispatcher drops the event with a warning; the caller's transaction has
// already committed and must not be affected.
func (d *Dispatcher) Publish(event Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		d.logger.Warn("Notification dropped, dispatcher closed", zap.String("type", string(event.Type)))
		return
	}

	select {
	case d.events <- event:
	default:
		d.logger.Warn("Notification dropped, buffer full", zap.String("type", string(event.Type)))
	}
}

// Close stops accepting events and waits for queued deliveries to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.events)
	d.mu.Unlock()

	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)

	for event := range d.events {
		// Each delivery gets its own bounded context so one stuck notifier
		// cannot stall the queue forever.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		for _, n := range d.notifiers {
			if err := n.Notify(ctx, event); err != nil {
				d.logger.Error("Notification delivery failed",
					zap.String("type", string(event.Type)),
					zap.Error(err),
				)
			}
		}
		cancel()
	}
}

// LogNotifier writes events to the application log. It stands in for the
// external chat/webhook collaborator in environments that have none.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier that logs event payloads as JSON.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, event Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	n.logger.Info("Circulation event",
		zap.String("type", string(event.Type)),
		zap.Time("occurred_at", event.OccurredAt),
		zap.ByteString("payload", payload),
	)
	return nil
}
