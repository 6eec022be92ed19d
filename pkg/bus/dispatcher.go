package bus

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pulsekit/pulse/pkg/concurrency"
	"github.com/pulsekit/pulse/pkg/reactor"
)

// dispatcher routes a filtered batch to the execution context chosen
// by the message's affinity. The batch is already snapshotted and
// ordered; nothing here takes registry locks.
type dispatcher struct {
	loop      *reactor.Loop
	pool      concurrency.WorkerPool
	logger    Logger
	observers *observerList
	tracer    trace.Tracer
}

func newDispatcher(loop *reactor.Loop, pool concurrency.WorkerPool, logger Logger, observers *observerList) *dispatcher {
	return &dispatcher{
		loop:      loop,
		pool:      pool,
		logger:    logger,
		observers: observers,
		tracer:    otel.Tracer("github.com/pulsekit/pulse/pkg/bus"),
	}
}

// dispatch hands the batch to the target context. When the caller is
// already on that context the batch runs inline; otherwise it is
// enqueued and the caller returns immediately. A full target queue
// drops the batch with a log line rather than blocking the caller.
func (d *dispatcher) dispatch(ctx context.Context, msg Message, batch []*subscription) {
	switch msg.Affinity() {
	case AffinityWorker:
		if d.pool.IsWorker() {
			d.deliver(ctx, msg, batch)
			return
		}
		task := concurrency.NewNamedTask(
			fmt.Sprintf("bus-dispatch-%s", msg.Kind()),
			func(taskCtx context.Context) error {
				d.deliver(taskCtx, msg, batch)
				return nil
			},
		)
		if err := d.pool.Submit(task); err != nil {
			d.logger.Errorf("dispatch %s: worker pool rejected batch: %v", msg.Kind(), err)
			d.observers.dropped(msg, "worker-queue")
		}
	default: // AffinityUI
		if d.loop.IsCurrent() {
			d.deliver(ctx, msg, batch)
			return
		}
		if err := d.loop.Execute(func() { d.deliver(ctx, msg, batch) }); err != nil {
			d.logger.Errorf("dispatch %s: ui loop rejected batch: %v", msg.Kind(), err)
			d.observers.dropped(msg, "ui-queue")
		}
	}
}

// deliver invokes the batch in registration order, each handler
// isolated from the others' faults.
func (d *dispatcher) deliver(ctx context.Context, msg Message, batch []*subscription) {
	_, span := d.tracer.Start(ctx, "bus.deliver",
		trace.WithAttributes(
			attribute.String("message.kind", string(msg.Kind())),
			attribute.String("message.affinity", msg.Affinity().String()),
			attribute.String("message.scope", msg.Scope().String()),
			attribute.Int("batch.size", len(batch)),
		),
	)
	defer span.End()

	for _, sub := range batch {
		// Unsubscribed after the snapshot was taken: skip. A handler
		// already running is never retracted.
		if sub.removed() {
			continue
		}
		d.invoke(span, msg, sub)
	}
}

func (d *dispatcher) invoke(span trace.Span, msg Message, sub *subscription) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf("handler for %s (owner %q) panicked (isolated): %v", msg.Kind(), sub.owner, r)
			span.RecordError(fmt.Errorf("handler panic: %v", r))
			span.SetStatus(codes.Error, "handler fault")
			d.observers.fault(msg, sub.owner, r)
		}
	}()
	sub.handler(msg)
	d.observers.delivered(msg, sub.owner)
}
