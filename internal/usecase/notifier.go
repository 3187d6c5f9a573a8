package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/vitos/bracket_trader/internal/domain"
)

type EventKind string

const (
	EventOpened EventKind = "OPENED"
	EventClosed EventKind = "CLOSED"
)

// Event carries a copy of the position at the time of the transition.
type Event struct {
	Kind     EventKind
	Position domain.Position
}

// Publisher accepts position events without blocking.
type Publisher interface {
	Publish(Event)
}

// Sink delivers one event to an external system.
type Sink interface {
	Name() string
	Send(ctx context.Context, event Event) error
}

// Dispatcher fans events out to sinks from a single goroutine. Publish
// never blocks the trading path.
type Dispatcher struct {
	queue  *Queue[Event]
	sinks  []Sink
	logger *zap.Logger
}

func NewDispatcher(logger *zap.Logger, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		queue:  NewQueue[Event](),
		sinks:  sinks,
		logger: logger,
	}
}

func (d *Dispatcher) Publish(event Event) {
	d.queue.Push(event)
}

func (d *Dispatcher) Pending() int {
	return d.queue.Len()
}

// Run delivers events until ctx is cancelled. Sink failures are logged.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		event, err := d.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		for _, sink := range d.sinks {
			if err := sink.Send(ctx, event); err != nil {
				d.logger.Warn("failed to deliver position event",
					zap.String("sink", sink.Name()),
					zap.String("event", string(event.Kind)),
					zap.String("market", event.Position.Market),
					zap.Error(err))
			}
		}
	}
}

// AuditSink records opened and closed positions in the repository.
type AuditSink struct {
	repo domain.PositionRepository
}

func NewAuditSink(repo domain.PositionRepository) *AuditSink {
	return &AuditSink{repo: repo}
}

func (s *AuditSink) Name() string { return "audit" }

func (s *AuditSink) Send(ctx context.Context, event Event) error {
	p := event.Position
	switch event.Kind {
	case EventOpened:
		return s.repo.SavePosition(ctx, &p)
	case EventClosed:
		return s.repo.UpdatePositionOutcome(ctx, &p)
	}
	return nil
}
